package services

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"herdsnap/internal/blob"
	"herdsnap/internal/census"
	"herdsnap/internal/classifier"
	apperrors "herdsnap/internal/errors"
	"herdsnap/internal/logger"
	"herdsnap/internal/metrics"
	"herdsnap/internal/models"
)

// DefaultRejectionPreview bounds the rejections echoed back on partial success.
const DefaultRejectionPreview = 10

// Snapshot header column limits.
const (
	maxOwnerIDLen        = 255
	maxSnapshotNameLen   = 200
	maxSourceFileNameLen = 255
)

// IngestOptions configures the ingestion pipeline.
type IngestOptions struct {
	Profile          census.Profile
	RejectionPreview int
}

// ingestService chains read, clean, validate, classify and persist.
type ingestService struct {
	snapshots SnapshotServicer
	gateway   *classifier.Gateway
	archive   blob.Store
	profile   census.Profile
	preview   int
	log       *zap.SugaredLogger
}

// NewIngestService creates a new IngestServicer. gateway and archive may be
// nil: rows then stay unclassified and uploads are not archived.
func NewIngestService(snapshots SnapshotServicer, gateway *classifier.Gateway, archive blob.Store, opts IngestOptions) IngestServicer {
	if len(opts.Profile.Fields) == 0 {
		opts.Profile = census.DefaultProfile()
	}
	if opts.RejectionPreview <= 0 {
		opts.RejectionPreview = DefaultRejectionPreview
	}
	return &ingestService{
		snapshots: snapshots,
		gateway:   gateway,
		archive:   archive,
		profile:   opts.Profile,
		preview:   opts.RejectionPreview,
		log:       logger.Named("ingest"),
	}
}

// IngestFile ingests a CSV or XLSX census and archives the original bytes.
func (s *ingestService) IngestFile(ctx context.Context, upload FileUpload) (*IngestResult, error) {
	start := time.Now()
	defer func() { metrics.IngestDuration.Observe(time.Since(start).Seconds()) }()

	if err := validateHeader(upload.SnapshotHeader); err != nil {
		return nil, err
	}
	table, err := census.ReadTable(upload.Filename, upload.Content)
	if err != nil {
		return nil, s.formatFailure(err)
	}
	return s.run(ctx, upload.SnapshotHeader, table, &upload)
}

// IngestRecords ingests records keyed by canonical field names. Nothing is
// archived.
func (s *ingestService) IngestRecords(ctx context.Context, header SnapshotHeader, records []map[string]any) (*IngestResult, error) {
	start := time.Now()
	defer func() { metrics.IngestDuration.Observe(time.Since(start).Seconds()) }()

	if err := validateHeader(header); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		metrics.Ingestions.WithLabelValues(metrics.OutcomeInvalidFile).Inc()
		return nil, apperrors.WithMessage(apperrors.ErrInvalidCensusFile, "no records supplied")
	}
	return s.run(ctx, header, census.FromMaps(records), nil)
}

func (s *ingestService) run(ctx context.Context, header SnapshotHeader, raw census.Table, upload *FileUpload) (*IngestResult, error) {
	cleaned, err := census.Clean(raw, s.profile)
	if err != nil {
		return nil, s.formatFailure(err)
	}

	records, rejections := census.Validate(cleaned)
	metrics.IngestRows.WithLabelValues("accepted").Add(float64(len(records)))
	metrics.IngestRows.WithLabelValues("rejected").Add(float64(len(rejections)))
	if len(records) == 0 {
		metrics.Ingestions.WithLabelValues(metrics.OutcomeNoValidRows).Inc()
		return nil, apperrors.WithDetails(apperrors.ErrNoValidRows, IngestWarnings{
			RejectedCount: len(rejections),
			Rejections:    rejections,
		})
	}

	// Classification runs before the transaction so a slow model never holds it open.
	categories := s.gateway.ClassifyAll(ctx, records)
	rows := make([]models.AnimalRow, len(records))
	unclassified := 0
	for i, r := range records {
		rows[i] = models.AnimalRow{
			Position:           r.Position,
			AnimalNumber:       r.AnimalNumber,
			GroupName:          r.GroupName,
			MilkYesterday:      r.MilkYesterday,
			MilkAvg7d:          r.MilkAvg7d,
			ReproductionStatus: r.ReproductionStatus,
			DaysInMilking:      r.DaysInMilking,
			SelectionTag:       r.SelectionTag,
			Category:           categories[i],
		}
		if categories[i] == nil {
			unclassified++
		}
	}

	snapshot := &models.Snapshot{
		OwnerID:      header.OwnerID,
		Name:         header.Name,
		SnapshotDate: header.SnapshotDate,
	}

	var archivedKey string
	if upload != nil && s.archive != nil {
		archivedKey, err = s.store(ctx, header, upload)
		if err != nil {
			metrics.Ingestions.WithLabelValues(metrics.OutcomeStorageFailed).Inc()
			return nil, apperrors.Wrap(apperrors.ErrStorageFailure, err)
		}
		filename := truncateName(filepath.Base(upload.Filename), maxSourceFileNameLen)
		checksum := blob.Checksum(upload.Content)
		snapshot.SourceFileRef = &archivedKey
		snapshot.SourceFileName = &filename
		snapshot.SourceChecksum = &checksum
	}

	created, err := s.snapshots.CreateSnapshot(ctx, snapshot, rows)
	if err != nil {
		if archivedKey != "" {
			if _, delErr := s.archive.Delete(context.WithoutCancel(ctx), archivedKey); delErr != nil {
				s.log.Warnw("failed to remove archive of aborted ingestion", "key", archivedKey, "error", delErr)
			}
		}
		metrics.Ingestions.WithLabelValues(metrics.OutcomeStorageFailed).Inc()
		return nil, err
	}
	metrics.Ingestions.WithLabelValues(metrics.OutcomeCreated).Inc()

	summary := census.Summarize(records)
	s.log.Infow("census ingested",
		"snapshot_id", created.ID,
		"owner_id", created.OwnerID,
		"animals", summary.TotalAnimals,
		"groups", summary.DistinctGroupCount,
		"rejected", len(rejections),
		"unclassified", unclassified,
	)

	result := &IngestResult{Snapshot: created, UnclassifiedCount: unclassified}
	if len(rejections) > 0 {
		preview := rejections
		if len(preview) > s.preview {
			preview = preview[:s.preview]
		}
		result.Warnings = &IngestWarnings{RejectedCount: len(rejections), Rejections: preview}
	}
	return result, nil
}

func (s *ingestService) store(ctx context.Context, header SnapshotHeader, upload *FileUpload) (string, error) {
	key := blob.ArchiveKey(header.OwnerID, time.Now(), upload.Filename)
	contentType := upload.ContentType
	if contentType == "" {
		contentType = contentTypeFor(upload.Filename)
	}
	_, err := s.archive.Put(ctx, key, bytes.NewReader(upload.Content), blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"owner_id": header.OwnerID, "filename": filepath.Base(upload.Filename)},
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// formatFailure maps census format errors to INVALID_CENSUS_FILE.
func (s *ingestService) formatFailure(err error) error {
	metrics.Ingestions.WithLabelValues(metrics.OutcomeInvalidFile).Inc()
	var fe *census.FormatError
	if errors.As(err, &fe) {
		return apperrors.WithMessage(apperrors.ErrInvalidCensusFile, fe.Reason)
	}
	return apperrors.Wrap(apperrors.ErrInvalidCensusFile, err)
}

func validateHeader(h SnapshotHeader) error {
	if h.OwnerID == "" {
		return apperrors.ErrUnauthorized
	}
	if len(h.OwnerID) > maxOwnerIDLen {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "caller identity is too long")
	}
	name := strings.TrimSpace(h.Name)
	if name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "snapshot name is required")
	}
	if utf8.RuneCountInString(name) > maxSnapshotNameLen {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "snapshot name must be at most 200 characters")
	}
	if h.SnapshotDate.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "snapshot date is required")
	}
	return nil
}

// truncateName keeps the last n characters so the extension survives.
func truncateName(name string, n int) string {
	r := []rune(name)
	if len(r) <= n {
		return name
	}
	return string(r[len(r)-n:])
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xlsm":
		return "application/vnd.ms-excel.sheet.macroEnabled.12"
	case ".csv":
		return "text/csv"
	}
	return "application/octet-stream"
}
