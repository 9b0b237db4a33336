package config

import (
	"testing"
	"time"

	"herdsnap/internal/blob"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != "8080" || cfg.RowBatchSize != 500 || cfg.RejectionPreview != 10 {
			t.Errorf("unexpected defaults %+v", cfg)
		}
		if cfg.ClassifierTimeout != 2*time.Second || cfg.ArchiveSweepGrace != time.Hour {
			t.Errorf("unexpected duration defaults %+v", cfg)
		}
		if cfg.Blob().Driver != blob.DriverFilesystem {
			t.Errorf("expected fs driver, got %q", cfg.Blob().Driver)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("BLOB_DRIVER", "s3")
		t.Setenv("BLOB_S3_BUCKET", "herd")
		t.Setenv("BLOB_S3_PATH_STYLE", "true")
		t.Setenv("CLASSIFIER_CONCURRENCY", "8")
		t.Setenv("CLASSIFIER_RPS", "2.5")
		t.Setenv("MAX_UPLOAD_BYTES", "1024")

		cfg, _ := Load()
		b := cfg.Blob()
		if b.Driver != blob.DriverS3 || b.S3.Bucket != "herd" || !b.S3.PathStyle {
			t.Errorf("unexpected blob config %+v", b)
		}
		c := cfg.Classifier()
		if c.Concurrency != 8 || c.RPS != 2.5 {
			t.Errorf("unexpected classifier options %+v", c)
		}
		if cfg.MaxUploadBytes != 1024 {
			t.Errorf("expected 1024, got %d", cfg.MaxUploadBytes)
		}
	})

	t.Run("invalid_values_fall_back", func(t *testing.T) {
		t.Setenv("ROW_BATCH_SIZE", "lots")
		t.Setenv("CLASSIFIER_TIMEOUT", "soon")
		t.Setenv("BLOB_S3_PATH_STYLE", "maybe")

		cfg, _ := Load()
		if cfg.RowBatchSize != 500 || cfg.ClassifierTimeout != 2*time.Second || cfg.BlobS3PathStyle {
			t.Errorf("expected fallbacks, got %+v", cfg)
		}
	})
}
