package services

import (
	"context"
	"io"

	"herdsnap/internal/census"
	"herdsnap/internal/models"
	"herdsnap/internal/pagination"
)

// SnapshotFilter holds optional filter parameters for listing snapshots.
type SnapshotFilter struct {
	Search    string
	DateFrom  *models.Date
	DateTo    *models.Date
	SortBy    string
	SortOrder string
}

// RowFilter holds optional filter parameters for listing a snapshot's rows.
type RowFilter struct {
	Search    string
	Group     string
	SortBy    string
	SortOrder string
}

// Archive is an opened original upload. Callers must close Body.
type Archive struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// SnapshotServicer owns the snapshot persistence boundary and ownership checks.
type SnapshotServicer interface {
	CreateSnapshot(ctx context.Context, snapshot *models.Snapshot, rows []models.AnimalRow) (*models.Snapshot, error)
	GetSnapshot(ownerID, snapshotID string) (*models.Snapshot, error)
	ListSnapshots(ownerID string, page pagination.PageRequest, filter SnapshotFilter) (*pagination.PageResponse[models.Snapshot], error)
	DeleteSnapshot(ctx context.Context, ownerID, snapshotID string) error
	OpenArchive(ctx context.Context, ownerID, snapshotID string) (*Archive, error)
	ReferencedArchives(keys []string) (map[string]bool, error)
}

// AnimalQueryServicer serves read-side queries over a snapshot's rows.
type AnimalQueryServicer interface {
	ListRows(ownerID, snapshotID string, page pagination.PageRequest, filter RowFilter) (*pagination.PageResponse[models.AnimalRow], error)
	AggregateByGroup(ownerID, snapshotID string) ([]models.CorralGroup, error)
	ListGroupRows(ownerID, snapshotID, groupName string) ([]models.AnimalRow, error)
}

// SnapshotHeader carries the caller-supplied part of a new snapshot.
type SnapshotHeader struct {
	OwnerID      string
	Name         string
	SnapshotDate models.Date
}

// FileUpload is a census file submitted for ingestion.
type FileUpload struct {
	SnapshotHeader
	Filename    string
	ContentType string
	Content     []byte
}

// IngestWarnings previews the rows dropped by validation. RejectedCount is
// the true total even when Rejections is truncated.
type IngestWarnings struct {
	RejectedCount int                `json:"rejected_count"`
	Rejections    []census.Rejection `json:"rejections"`
}

// IngestResult is the outcome of a successful ingestion.
type IngestResult struct {
	Snapshot          *models.Snapshot `json:"snapshot"`
	UnclassifiedCount int              `json:"unclassified_count"`
	Warnings          *IngestWarnings  `json:"warnings,omitempty"`
}

// IngestServicer runs the full census pipeline and persists the snapshot.
type IngestServicer interface {
	IngestFile(ctx context.Context, upload FileUpload) (*IngestResult, error)
	IngestRecords(ctx context.Context, header SnapshotHeader, records []map[string]any) (*IngestResult, error)
}

// AuditServicer records the snapshot audit trail.
type AuditServicer interface {
	RecordIngestion(userID, ipAddress string, source IngestSource, result *IngestResult)
	RecordDeletion(userID, ipAddress, snapshotID string)
}
