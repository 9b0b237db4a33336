package models

import (
	"time"

	"herdsnap/internal/textfold"
	"herdsnap/internal/uuid"

	"gorm.io/gorm"
)

// Snapshot is one immutable herd census ingested from a single upload.
// It is never updated or soft-deleted.
// Deleting a snapshot removes its rows through the database cascade declared
// on AnimalRow.
type Snapshot struct {
	ID                 string    `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID            string    `gorm:"not null;index:idx_snapshots_owner_created,priority:1" json:"owner_id"`
	Name               string    `gorm:"not null;size:200" json:"name"`
	NameSearch         string    `gorm:"not null;default:''" json:"-"`
	SnapshotDate       Date      `gorm:"not null;index" json:"snapshot_date"`
	TotalAnimals       int       `gorm:"not null" json:"total_animals"`
	DistinctGroupCount int       `gorm:"not null" json:"distinct_group_count"`
	SourceFileRef      *string   `gorm:"size:512" json:"source_file_reference,omitempty"`
	SourceFileName     *string   `gorm:"size:255" json:"source_file_name,omitempty"`
	SourceChecksum     *string   `gorm:"size:64" json:"source_checksum,omitempty"`
	CreatedAt          time.Time `gorm:"not null;index:idx_snapshots_owner_created,priority:2" json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records and folds the name
// for search.
func (s *Snapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New()
	}
	s.NameSearch = textfold.Fold(s.Name)
	return nil
}

// HasArchive reports whether the original upload was archived.
func (s *Snapshot) HasArchive() bool {
	return s.SourceFileRef != nil && *s.SourceFileRef != ""
}
