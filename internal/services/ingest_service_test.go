package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"herdsnap/internal/blob"
	"herdsnap/internal/census"
	"herdsnap/internal/classifier"
	apperrors "herdsnap/internal/errors"
	"herdsnap/internal/models"
	"herdsnap/internal/pagination"
	"herdsnap/internal/testutil"
)

// failingSnapshots is a SnapshotServicer whose CreateSnapshot always fails.
type failingSnapshots struct {
	SnapshotServicer
}

func (failingSnapshots) CreateSnapshot(context.Context, *models.Snapshot, []models.AnimalRow) (*models.Snapshot, error) {
	return nil, apperrors.Wrap(apperrors.ErrStorageFailure, errors.New("disk full"))
}

func header(t *testing.T, owner string) SnapshotHeader {
	return SnapshotHeader{OwnerID: owner, Name: "Censo", SnapshotDate: mustDate(t, "2024-03-01")}
}

const sampleCSV = "Número del animal;Nombre del grupo;Producción de leche ayer;Producción media diaria últimos 7 días;Días en ordeño\n" +
	"1001;LACTANTES;30,5;29;120\n" +
	"1002;SECAS;0;0;0\n" +
	";LACTANTES;12;11;40\n" +
	"1003;FRESCAS;;;15\n"

func TestIngestRecords(t *testing.T) {
	t.Run("validation_example", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngestService(NewSnapshotService(db, nil, 0), nil, nil, IngestOptions{})
		owner := testutil.NewOwnerID()

		res, err := svc.IngestRecords(context.Background(), header(t, owner), []map[string]any{
			{"animal_number": "A1", "group_name": "LACTANTES", "milk_yesterday": "12.5"},
			{"animal_number": "", "group_name": "LACTANTES", "milk_yesterday": "9"},
		})
		testutil.AssertNoError(t, err)

		if res.Snapshot.TotalAnimals != 1 {
			t.Errorf("expected 1 animal, got %d", res.Snapshot.TotalAnimals)
		}
		if res.Warnings == nil || res.Warnings.RejectedCount != 1 {
			t.Fatalf("expected 1 rejection, got %+v", res.Warnings)
		}
		rej := res.Warnings.Rejections[0]
		if rej.Position != 2 || rej.Reason != census.ReasonMissingRequiredField {
			t.Errorf("unexpected rejection %+v", rej)
		}

		var rows []models.AnimalRow
		db.Where("snapshot_id = ?", res.Snapshot.ID).Find(&rows)
		if len(rows) != 1 || rows[0].AnimalNumber != "A1" || rows[0].MilkYesterday != 12.5 {
			t.Errorf("unexpected persisted rows %+v", rows)
		}
		if rows[0].MilkAvg7d != 0 {
			t.Errorf("expected absent milk_avg_7d to persist as 0, got %v", rows[0].MilkAvg7d)
		}
		if rows[0].Category != nil {
			t.Errorf("expected unclassified without a classifier, got %v", *rows[0].Category)
		}
	})

	t.Run("no_valid_rows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngestService(NewSnapshotService(db, nil, 0), nil, nil, IngestOptions{})

		_, err := svc.IngestRecords(context.Background(), header(t, testutil.NewOwnerID()), []map[string]any{
			{"animal_number": "", "group_name": "LACTANTES"},
			{"animal_number": "A2", "group_name": " "},
		})
		testutil.AssertAppError(t, err, "NO_VALID_ROWS")

		var appErr *apperrors.AppError
		errors.As(err, &appErr)
		details, ok := appErr.Details.(IngestWarnings)
		if !ok || details.RejectedCount != 2 || len(details.Rejections) != 2 {
			t.Errorf("expected full rejection report, got %#v", appErr.Details)
		}

		var n int64
		db.Model(&models.Snapshot{}).Count(&n)
		if n != 0 {
			t.Errorf("expected no snapshot, got %d", n)
		}
	})

	t.Run("excluded_groups_never_persist", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngestService(NewSnapshotService(db, nil, 0), nil, nil, IngestOptions{})
		profile := census.DefaultProfile()

		var records []map[string]any
		for i, g := range append([]string{"LACTANTES", " SECAS ", "FRESCAS"}, profile.ExcludedGroups...) {
			records = append(records, map[string]any{"animal_number": fmt.Sprintf("A%d", i), "group_name": g})
		}
		res, err := svc.IngestRecords(context.Background(), header(t, testutil.NewOwnerID()), records)
		testutil.AssertNoError(t, err)

		var groups []string
		db.Model(&models.AnimalRow{}).Where("snapshot_id = ?", res.Snapshot.ID).Pluck("group_name", &groups)
		for _, g := range groups {
			for _, excluded := range profile.ExcludedGroups {
				if g == excluded {
					t.Errorf("excluded group %q was persisted", g)
				}
			}
		}
		if len(groups) != 2 {
			t.Errorf("expected 2 rows, got %d", len(groups))
		}
	})

	t.Run("classifies_rows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		gateway := classifier.NewGateway(classifier.Func(func(_ context.Context, f census.Features) (int, error) {
			if f[5] > 20 {
				return int(models.CategoryProducing), nil
			}
			return 0, errors.New("model unavailable")
		}), classifier.Options{})
		svc := NewIngestService(NewSnapshotService(db, nil, 0), gateway, nil, IngestOptions{})

		res, err := svc.IngestRecords(context.Background(), header(t, testutil.NewOwnerID()), []map[string]any{
			{"animal_number": "A1", "group_name": "G", "milk_yesterday": 30},
			{"animal_number": "A2", "group_name": "G", "milk_yesterday": 10},
		})
		testutil.AssertNoError(t, err)
		if res.UnclassifiedCount != 1 {
			t.Errorf("expected 1 unclassified row, got %d", res.UnclassifiedCount)
		}

		var rows []models.AnimalRow
		db.Where("snapshot_id = ?", res.Snapshot.ID).Order("id").Find(&rows)
		if rows[0].Category == nil || *rows[0].Category != models.CategoryProducing {
			t.Errorf("expected A1 producing, got %v", rows[0].Category)
		}
		if rows[1].Category != nil {
			t.Errorf("expected A2 unclassified, got %v", *rows[1].Category)
		}
	})

	t.Run("warning_preview_is_bounded", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngestService(NewSnapshotService(db, nil, 0), nil, nil, IngestOptions{RejectionPreview: 2})

		records := []map[string]any{{"animal_number": "A1", "group_name": "G"}}
		for i := 0; i < 5; i++ {
			records = append(records, map[string]any{"animal_number": "", "group_name": "G"})
		}
		res, err := svc.IngestRecords(context.Background(), header(t, testutil.NewOwnerID()), records)
		testutil.AssertNoError(t, err)
		if res.Warnings.RejectedCount != 5 || len(res.Warnings.Rejections) != 2 {
			t.Errorf("expected 5 rejected with 2 previewed, got %d/%d", res.Warnings.RejectedCount, len(res.Warnings.Rejections))
		}
	})

	t.Run("invalid_header", func(t *testing.T) {
		svc := NewIngestService(nil, nil, nil, IngestOptions{})
		h := header(t, testutil.NewOwnerID())
		h.Name = ""
		_, err := svc.IngestRecords(context.Background(), h, []map[string]any{{"animal_number": "A1"}})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("missing_group_column", func(t *testing.T) {
		svc := NewIngestService(nil, nil, nil, IngestOptions{})
		_, err := svc.IngestRecords(context.Background(), header(t, testutil.NewOwnerID()), []map[string]any{{"animal_number": "A1"}})
		testutil.AssertAppError(t, err, "INVALID_CENSUS_FILE")
	})
}

func TestIngestFile(t *testing.T) {
	t.Run("csv_with_archive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		archive := blob.NewMemory()
		snapshots := NewSnapshotService(db, archive, 0)
		svc := NewIngestService(snapshots, nil, archive, IngestOptions{})
		owner := testutil.NewOwnerID()

		res, err := svc.IngestFile(context.Background(), FileUpload{
			SnapshotHeader: header(t, owner),
			Filename:       "censo.csv",
			Content:        []byte(sampleCSV),
		})
		testutil.AssertNoError(t, err)

		snap := res.Snapshot
		if snap.TotalAnimals != 2 || snap.DistinctGroupCount != 2 {
			t.Errorf("expected 2 animals in 2 groups, got %d/%d", snap.TotalAnimals, snap.DistinctGroupCount)
		}
		if !snap.HasArchive() || !strings.HasPrefix(*snap.SourceFileRef, "census/"+owner+"/") {
			t.Fatalf("expected archive reference, got %v", snap.SourceFileRef)
		}
		if snap.SourceChecksum == nil || *snap.SourceChecksum != blob.Checksum([]byte(sampleCSV)) {
			t.Errorf("unexpected checksum %v", snap.SourceChecksum)
		}
		if res.Warnings == nil || res.Warnings.Rejections[0].Position != 3 {
			t.Errorf("expected rejection at position 3, got %+v", res.Warnings)
		}

		rows, err := NewAnimalQueryService(db).ListRows(owner, snap.ID, pagination.PageRequest{}, RowFilter{})
		testutil.AssertNoError(t, err)
		if rows.Data[0].MilkYesterday != 30.5 || rows.Data[0].DaysInMilking != 120 {
			t.Errorf("unexpected first row %+v", rows.Data[0])
		}
		if rows.Data[1].Position != 4 || rows.Data[1].MilkAvg7d != 0 {
			t.Errorf("unexpected second row %+v", rows.Data[1])
		}

		a, err := snapshots.OpenArchive(context.Background(), owner, snap.ID)
		testutil.AssertNoError(t, err)
		a.Body.Close()
		if a.Filename != "censo.csv" || a.ContentType != "text/csv" {
			t.Errorf("unexpected archive %+v", a)
		}
	})

	t.Run("noisy_rows_do_not_abort_upload", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		archive := blob.NewMemory()
		svc := NewIngestService(NewSnapshotService(db, archive, 0), nil, archive, IngestOptions{})
		owner := testutil.NewOwnerID()

		content := "Número del animal;Nombre del grupo;Días en ordeño;Estado de la reproducción\n" +
			strings.Repeat("7", census.MaxAnimalNumberLen+1) + ";LACTANTES;10;VACÍA\n" +
			"1001;LACTANTES;1e30;" + strings.Repeat("Ñ", census.MaxTextLen+5) + "\n" +
			"1002;FRESCAS;99999999999;PREÑADA\n"
		filename := strings.Repeat("a", 300) + ".csv"

		res, err := svc.IngestFile(context.Background(), FileUpload{
			SnapshotHeader: header(t, owner),
			Filename:       filename,
			Content:        []byte(content),
		})
		testutil.AssertNoError(t, err)

		if res.Snapshot.TotalAnimals != 2 {
			t.Errorf("expected 2 animals, got %d", res.Snapshot.TotalAnimals)
		}
		if res.Warnings == nil || res.Warnings.RejectedCount != 1 || res.Warnings.Rejections[0].Reason != census.ReasonValueTooLong {
			t.Fatalf("expected one value_too_long rejection, got %+v", res.Warnings)
		}
		if name := *res.Snapshot.SourceFileName; utf8.RuneCountInString(name) != 255 || !strings.HasSuffix(name, ".csv") {
			t.Errorf("expected file name cut to 255 characters keeping the extension, got %d", utf8.RuneCountInString(name))
		}

		rows, err := NewAnimalQueryService(db).ListRows(owner, res.Snapshot.ID, pagination.PageRequest{}, RowFilter{})
		testutil.AssertNoError(t, err)
		for _, r := range rows.Data {
			if r.DaysInMilking != 0 {
				t.Errorf("%s: expected out-of-range days in milking stored as 0, got %d", r.AnimalNumber, r.DaysInMilking)
			}
		}
		if n := utf8.RuneCountInString(rows.Data[0].ReproductionStatus); n != census.MaxTextLen {
			t.Errorf("expected status cut to %d characters, got %d", census.MaxTextLen, n)
		}
	})

	t.Run("header_bounds_count_characters", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIngestService(NewSnapshotService(db, nil, 0), nil, nil, IngestOptions{})
		records := []map[string]any{{"animal_number": "A1", "group_name": "G"}}

		h := header(t, testutil.NewOwnerID())
		h.Name = strings.Repeat("Ñ", 200)
		_, err := svc.IngestRecords(context.Background(), h, records)
		testutil.AssertNoError(t, err)

		h.Name = strings.Repeat("Ñ", 201)
		_, err = svc.IngestRecords(context.Background(), h, records)
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		h = header(t, strings.Repeat("u", 256))
		_, err = svc.IngestRecords(context.Background(), h, records)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("archive_removed_when_persistence_fails", func(t *testing.T) {
		archive := blob.NewMemory()
		svc := NewIngestService(failingSnapshots{}, nil, archive, IngestOptions{})

		_, err := svc.IngestFile(context.Background(), FileUpload{
			SnapshotHeader: header(t, testutil.NewOwnerID()),
			Filename:       "censo.csv",
			Content:        []byte(sampleCSV),
		})
		testutil.AssertAppError(t, err, "STORAGE_FAILURE")

		left, _ := archive.List(context.Background(), blob.ArchivePrefix)
		if len(left) != 0 {
			t.Errorf("expected no orphaned archive, found %d", len(left))
		}
	})

	t.Run("unreadable_file", func(t *testing.T) {
		svc := NewIngestService(nil, nil, blob.NewMemory(), IngestOptions{})
		_, err := svc.IngestFile(context.Background(), FileUpload{
			SnapshotHeader: header(t, testutil.NewOwnerID()),
			Filename:       "censo.xlsx",
			Content:        []byte("definitely not a workbook"),
		})
		testutil.AssertAppError(t, err, "INVALID_CENSUS_FILE")
	})

	t.Run("everything_excluded", func(t *testing.T) {
		svc := NewIngestService(nil, nil, nil, IngestOptions{})
		_, err := svc.IngestFile(context.Background(), FileUpload{
			SnapshotHeader: header(t, testutil.NewOwnerID()),
			Filename:       "censo.csv",
			Content:        []byte("animal_number,group_name\nA1,SECAS\n"),
		})
		testutil.AssertAppError(t, err, "INVALID_CENSUS_FILE")
	})
}
