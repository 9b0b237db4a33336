package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"herdsnap/internal/blob"
	"herdsnap/internal/classifier"
)

// Config holds application configuration
type Config struct {
	// Server
	Port           string
	Env            string
	MaxUploadBytes int64

	// JWT. Tokens are issued by the identity provider; this service only verifies them.
	JWTSecret string
	JWTIssuer string

	// Archive storage
	BlobDriver        string
	BlobFSRoot        string
	BlobS3Bucket      string
	BlobS3Region      string
	BlobS3Endpoint    string
	BlobS3PathStyle   bool
	BlobS3AccessKey   string
	BlobS3SecretKey   string
	ArchiveSweepEvery string
	ArchiveSweepGrace time.Duration

	// Classifier
	ClassifierURL         string
	ClassifierTimeout     time.Duration
	ClassifierConcurrency int
	ClassifierRPS         float64

	// Ingestion
	CensusProfile    string
	RowBatchSize     int
	RejectionPreview int

	// Metrics
	MetricsAPIKey string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 20<<20)),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		JWTIssuer: getEnv("JWT_ISSUER", ""),

		// Archive storage
		BlobDriver:        getEnv("BLOB_DRIVER", string(blob.DriverFilesystem)),
		BlobFSRoot:        getEnv("BLOB_FS_ROOT", "./data/archive"),
		BlobS3Bucket:      getEnv("BLOB_S3_BUCKET", ""),
		BlobS3Region:      getEnv("BLOB_S3_REGION", "us-east-1"),
		BlobS3Endpoint:    getEnv("BLOB_S3_ENDPOINT", ""),
		BlobS3PathStyle:   getEnvBool("BLOB_S3_PATH_STYLE", false),
		BlobS3AccessKey:   getEnv("BLOB_S3_ACCESS_KEY_ID", ""),
		BlobS3SecretKey:   getEnv("BLOB_S3_SECRET_ACCESS_KEY", ""),
		ArchiveSweepEvery: getEnv("ARCHIVE_SWEEP_SCHEDULE", "@every 6h"),
		ArchiveSweepGrace: getEnvDuration("ARCHIVE_SWEEP_GRACE", time.Hour),

		// Classifier
		ClassifierURL:         getEnv("CLASSIFIER_URL", ""),
		ClassifierTimeout:     getEnvDuration("CLASSIFIER_TIMEOUT", 2*time.Second),
		ClassifierConcurrency: getEnvInt("CLASSIFIER_CONCURRENCY", 4),
		ClassifierRPS:         getEnvFloat("CLASSIFIER_RPS", 0),

		// Ingestion
		CensusProfile:    getEnv("CENSUS_PROFILE", ""),
		RowBatchSize:     getEnvInt("ROW_BATCH_SIZE", 500),
		RejectionPreview: getEnvInt("REJECTION_PREVIEW", 10),

		// Metrics
		MetricsAPIKey: getEnv("METRICS_API_KEY", ""),
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Blob returns the archive store configuration.
func (c *Config) Blob() blob.Config {
	return blob.Config{
		Driver: blob.Driver(c.BlobDriver),
		FSRoot: c.BlobFSRoot,
		S3: blob.S3Config{
			Bucket:          c.BlobS3Bucket,
			Region:          c.BlobS3Region,
			Endpoint:        c.BlobS3Endpoint,
			PathStyle:       c.BlobS3PathStyle,
			AccessKeyID:     c.BlobS3AccessKey,
			SecretAccessKey: c.BlobS3SecretKey,
		},
	}
}

// Classifier returns the classifier gateway options.
func (c *Config) Classifier() classifier.Options {
	return classifier.Options{
		Timeout:     c.ClassifierTimeout,
		Concurrency: c.ClassifierConcurrency,
		RPS:         c.ClassifierRPS,
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %v\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %t\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return v
}
