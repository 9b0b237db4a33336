package testutil_test

import (
	"testing"

	"herdsnap/internal/errors"
	"herdsnap/internal/models"
	"herdsnap/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	var count int64
	for _, table := range []string{"snapshots", "animal_rows", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDBIsolated(t *testing.T) {
	db1 := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db1)
	db2 := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db2)

	testutil.CreateTestSnapshot(t, db1, testutil.NewOwnerID(), testutil.Row("A1", "G", 1))

	var n int64
	db2.Model(&models.Snapshot{}).Count(&n)
	if n != 0 {
		t.Errorf("expected second database to be empty, got %d snapshots", n)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	owner := testutil.NewOwnerID()
	snap := testutil.CreateTestSnapshot(t, db, owner,
		testutil.Row("A1", "LACTANTES", 10),
		testutil.Row("A2", "LACTANTES", 12),
		testutil.Row("A3", "FRESCAS", 8),
	)
	if snap.ID == "" {
		t.Fatal("snapshot should have an ID")
	}
	if snap.TotalAnimals != 3 || snap.DistinctGroupCount != 2 {
		t.Errorf("unexpected summary %d/%d", snap.TotalAnimals, snap.DistinctGroupCount)
	}
	if got := testutil.CountRows(t, db, snap.ID); got != 3 {
		t.Errorf("expected 3 rows, got %d", got)
	}
}

func TestAssertAppError(t *testing.T) {
	// Verify that AssertAppError works with a real AppError.
	err := errors.Wrap(errors.ErrSnapshotNotFound, nil)
	testutil.AssertAppError(t, err, "SNAPSHOT_NOT_FOUND")
}

func TestCascadeDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	snap := testutil.CreateTestSnapshot(t, db, testutil.NewOwnerID(),
		testutil.Row("A1", "G", 1), testutil.Row("A2", "G", 2))

	if err := db.Delete(&models.Snapshot{}, "id = ?", snap.ID).Error; err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if got := testutil.CountRows(t, db, snap.ID); got != 0 {
		t.Errorf("expected rows to cascade, %d left", got)
	}
}

func TestForeignKeyEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	orphan := testutil.Row("A1", "G", 1)
	orphan.SnapshotID = "0190b6a4-0000-7000-8000-000000000000"
	orphan.Position = 1
	if err := db.Create(&orphan).Error; err == nil {
		t.Error("expected a row without a snapshot to be rejected")
	}
}
