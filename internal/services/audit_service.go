package services

import (
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"herdsnap/internal/logger"
	"herdsnap/internal/models"
)

// IngestSource describes where an ingested census came from: the uploaded
// file name, or empty for JSON records.
type IngestSource struct {
	Filename string
	Records  int
}

// auditService writes the snapshot audit trail. Failures are logged and
// never fail the operation being audited.
type auditService struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db, log: logger.Named("audit")}
}

// RecordIngestion audits a created snapshot with the outcome of its ingestion.
func (s *auditService) RecordIngestion(userID, ipAddress string, source IngestSource, result *IngestResult) {
	if result == nil || result.Snapshot == nil {
		return
	}
	snap := result.Snapshot
	changes := map[string]any{
		"name":                 snap.Name,
		"snapshot_date":        snap.SnapshotDate.String(),
		"total_animals":        snap.TotalAnimals,
		"distinct_group_count": snap.DistinctGroupCount,
		"unclassified_count":   result.UnclassifiedCount,
		"rejected_count":       0,
	}
	if result.Warnings != nil {
		changes["rejected_count"] = result.Warnings.RejectedCount
	}
	if source.Filename != "" {
		changes["source_file_name"] = source.Filename
	} else {
		changes["records"] = source.Records
	}
	if snap.SourceChecksum != nil {
		changes["source_checksum"] = *snap.SourceChecksum
	}
	s.write(userID, models.AuditCreateSnapshot, snap.ID, ipAddress, changes)
}

// RecordDeletion audits a deleted snapshot.
func (s *auditService) RecordDeletion(userID, ipAddress, snapshotID string) {
	s.write(userID, models.AuditDeleteSnapshot, snapshotID, ipAddress, nil)
}

func (s *auditService) write(userID, action, snapshotID, ipAddress string, changes map[string]any) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			s.log.Errorw("failed to marshal audit changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: models.AuditResourceSnapshot,
		ResourceID:   snapshotID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}
	if err := s.db.Create(entry).Error; err != nil {
		s.log.Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"snapshot_id", snapshotID,
		)
	}
}
