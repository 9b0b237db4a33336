package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"herdsnap/internal/models"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewOwnerID returns a unique caller identity.
func NewOwnerID() string {
	return fmt.Sprintf("user-%d", nextID())
}

// Row builds an unclassified animal row.
func Row(animal, group string, milk float64) models.AnimalRow {
	return models.AnimalRow{AnimalNumber: animal, GroupName: group, MilkYesterday: milk, MilkAvg7d: milk}
}

// CategoryPtr returns a pointer to c.
func CategoryPtr(c models.Category) *models.Category {
	return &c
}

// CreateTestSnapshot inserts a snapshot dated today with the given rows.
func CreateTestSnapshot(t *testing.T, db *gorm.DB, ownerID string, rows ...models.AnimalRow) *models.Snapshot {
	t.Helper()
	return CreateTestSnapshotOn(t, db, ownerID, fmt.Sprintf("Census %d", nextID()), models.NewDate(time.Now()), rows...)
}

// CreateTestSnapshotOn inserts a snapshot with an explicit name and date.
// Summary columns are derived from rows; positions are assigned in order.
func CreateTestSnapshotOn(t *testing.T, db *gorm.DB, ownerID, name string, date models.Date, rows ...models.AnimalRow) *models.Snapshot {
	t.Helper()

	groups := map[string]bool{}
	for i := range rows {
		rows[i].Position = i + 1
		if rows[i].GroupName != "" {
			groups[rows[i].GroupName] = true
		}
	}
	snap := &models.Snapshot{
		OwnerID:            ownerID,
		Name:               name,
		SnapshotDate:       date,
		TotalAnimals:       len(rows),
		DistinctGroupCount: len(groups),
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(snap).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].SnapshotID = snap.ID
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		t.Fatalf("failed to create test snapshot: %v", err)
	}
	return snap
}

// CountRows returns the number of animal rows stored for a snapshot.
func CountRows(t *testing.T, db *gorm.DB, snapshotID string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.AnimalRow{}).Where("snapshot_id = ?", snapshotID).Count(&n).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}
