package services

import (
	"context"
	"errors"
	"path"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"herdsnap/internal/blob"
	"herdsnap/internal/census"
	apperrors "herdsnap/internal/errors"
	"herdsnap/internal/logger"
	"herdsnap/internal/models"
	"herdsnap/internal/pagination"
	"herdsnap/internal/query"
	"herdsnap/internal/uuid"
)

// DefaultRowBatchSize is the number of rows written per INSERT.
const DefaultRowBatchSize = 500

var snapshotSortKeys = query.SortKeys{
	Columns: map[string]string{
		"name":          "name",
		"snapshot_date": "snapshot_date",
		"total_animals": "total_animals",
		"created_at":    "created_at",
	},
	Default: query.Sort{Column: "created_at", Desc: true},
}

// snapshotService handles snapshot persistence and ownership.
type snapshotService struct {
	db        *gorm.DB
	archive   blob.Store
	batchSize int
}

// NewSnapshotService creates a new SnapshotServicer. archive may be nil when
// uploads are not archived.
func NewSnapshotService(db *gorm.DB, archive blob.Store, batchSize int) SnapshotServicer {
	if batchSize <= 0 {
		batchSize = DefaultRowBatchSize
	}
	return &snapshotService{db: db, archive: archive, batchSize: batchSize}
}

// CreateSnapshot writes the header and every row in one transaction. The
// summary columns are derived from rows, so callers cannot make them drift.
func (s *snapshotService) CreateSnapshot(ctx context.Context, snapshot *models.Snapshot, rows []models.AnimalRow) (*models.Snapshot, error) {
	if snapshot.OwnerID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	snapshot.Name = strings.TrimSpace(snapshot.Name)
	if snapshot.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "snapshot name is required")
	}
	if snapshot.SnapshotDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "snapshot date is required")
	}
	if len(rows) == 0 {
		return nil, apperrors.ErrNoValidRows
	}

	groups := make([]string, len(rows))
	for i, r := range rows {
		groups[i] = r.GroupName
	}
	summary := census.SummarizeGroups(groups)

	created := *snapshot
	created.ID = ""
	created.TotalAnimals = summary.TotalAnimals
	created.DistinctGroupCount = summary.DistinctGroupCount

	batch := make([]models.AnimalRow, len(rows))
	copy(batch, rows)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&created).Error; err != nil {
			return err
		}
		for i := range batch {
			batch[i].ID = 0
			batch[i].SnapshotID = created.ID
		}
		return tx.CreateInBatches(&batch, s.batchSize).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorageFailure, err)
	}

	logger.Get().Infow("snapshot created",
		"snapshot_id", created.ID,
		"owner_id", created.OwnerID,
		"total_animals", created.TotalAnimals,
		"groups", created.DistinctGroupCount,
	)
	return &created, nil
}

// GetSnapshot returns a snapshot owned by ownerID. Foreign snapshots are
// reported as missing.
func (s *snapshotService) GetSnapshot(ownerID, snapshotID string) (*models.Snapshot, error) {
	if !uuid.IsValid(snapshotID) {
		return nil, apperrors.ErrSnapshotNotFound
	}
	var snapshot models.Snapshot
	err := s.db.Where("id = ? AND owner_id = ?", snapshotID, ownerID).First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSnapshotNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &snapshot, nil
}

// ListSnapshots retrieves a paginated, filtered list of the caller's snapshots.
func (s *snapshotService) ListSnapshots(ownerID string, page pagination.PageRequest, filter SnapshotFilter) (*pagination.PageResponse[models.Snapshot], error) {
	spec := query.Spec{
		Sort: snapshotSortKeys.Resolve(filter.SortBy, filter.SortOrder),
		Page: page,
	}
	spec.Filter(query.Where("owner_id = ?", ownerID))
	if p, ok := query.Contains(filter.Search, "name_search"); ok {
		spec.Filter(p)
	}
	if filter.DateFrom != nil {
		spec.Filter(query.Where("snapshot_date >= ?", *filter.DateFrom))
	}
	if filter.DateTo != nil {
		spec.Filter(query.Where("snapshot_date <= ?", *filter.DateTo))
	}

	result, err := query.Page[models.Snapshot](s.db, spec)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &result, nil
}

// DeleteSnapshot removes a snapshot and its rows. The archived upload is
// removed after commit on a best-effort basis.
func (s *snapshotService) DeleteSnapshot(ctx context.Context, ownerID, snapshotID string) error {
	if !uuid.IsValid(snapshotID) {
		return apperrors.ErrSnapshotNotFound
	}
	var snapshot models.Snapshot
	if err := s.db.WithContext(ctx).Where("id = ?", snapshotID).First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrSnapshotNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if snapshot.OwnerID != ownerID {
		return apperrors.ErrSnapshotForbidden
	}

	// animal_rows cascade with the header
	if err := s.db.WithContext(ctx).Delete(&snapshot).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStorageFailure, err)
	}

	if snapshot.HasArchive() && s.archive != nil {
		if _, err := s.archive.Delete(ctx, *snapshot.SourceFileRef); err != nil {
			logger.Get().Warnw("failed to delete snapshot archive",
				"snapshot_id", snapshot.ID,
				"key", *snapshot.SourceFileRef,
				"error", err,
			)
		}
	}
	return nil
}

// OpenArchive opens the original upload of a snapshot owned by ownerID.
func (s *snapshotService) OpenArchive(ctx context.Context, ownerID, snapshotID string) (*Archive, error) {
	snapshot, err := s.GetSnapshot(ownerID, snapshotID)
	if err != nil {
		return nil, err
	}
	if !snapshot.HasArchive() || s.archive == nil {
		return nil, apperrors.ErrArchiveNotFound
	}

	info, body, err := s.archive.Get(ctx, *snapshot.SourceFileRef)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, apperrors.ErrArchiveNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	filename := path.Base(*snapshot.SourceFileRef)
	if snapshot.SourceFileName != nil && *snapshot.SourceFileName != "" {
		filename = *snapshot.SourceFileName
	}
	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Archive{Filename: filename, ContentType: contentType, Size: info.Size, Body: body}, nil
}

// ReferencedArchives reports which of keys are still referenced by a snapshot.
func (s *snapshotService) ReferencedArchives(keys []string) (map[string]bool, error) {
	refs := make(map[string]bool, len(keys))
	if len(keys) == 0 {
		return refs, nil
	}
	for start := 0; start < len(keys); start += s.batchSize {
		end := min(start+s.batchSize, len(keys))
		var found []string
		if err := s.db.Model(&models.Snapshot{}).
			Where("source_file_ref IN ?", keys[start:end]).
			Pluck("source_file_ref", &found).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, k := range found {
			refs[k] = true
		}
	}
	return refs, nil
}
