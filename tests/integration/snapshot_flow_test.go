package integration

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

const herdCSV = "Número del animal;Nombre del grupo;Producción de leche ayer;Producción media diaria últimos 7 días\n" +
	"1001;LACTANTES;30;28\n" +
	"1002;LACTANTES;10;12\n" +
	"1003;PRE/PARTO;25;20\n" +
	"1004;SECAS;0;0\n" +
	";LACTANTES;5;5\n"

// uploadHerd uploads herdCSV and returns the new snapshot ID.
func (app *testApp) uploadHerd(t *testing.T, token string) string {
	t.Helper()
	rec := app.upload(t, token, "Censo marzo", "2024-03-01", "censo.csv", []byte(herdCSV))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload failed: %d %s", rec.Code, rec.Body.String())
	}
	snapshot := parseJSON(t, rec)["snapshot"].(map[string]interface{})
	return snapshot["id"].(string)
}

func TestSnapshotFlow_UploadBrowseDownloadDelete(t *testing.T) {
	app := setupApp(t)
	token := tokenFor(t, "owner-1")

	// Step 1: Upload
	rec := app.upload(t, token, "Censo marzo", "2024-03-01", "censo.csv", []byte(herdCSV))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	snapshot := result["snapshot"].(map[string]interface{})
	id := snapshot["id"].(string)
	if snapshot["total_animals"] != float64(3) || snapshot["distinct_group_count"] != float64(2) {
		t.Errorf("unexpected counts %v", snapshot)
	}
	if snapshot["snapshot_date"] != "2024-03-01" {
		t.Errorf("expected snapshot_date 2024-03-01, got %v", snapshot["snapshot_date"])
	}
	warnings := result["warnings"].(map[string]interface{})
	if warnings["rejected_count"] != float64(1) {
		t.Errorf("expected 1 rejected row, got %v", warnings["rejected_count"])
	}

	// Step 2: List
	rec = app.request("GET", "/api/v1/snapshots", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list failed: %d %s", rec.Code, rec.Body.String())
	}
	list := parseJSON(t, rec)
	if list["total_items"] != float64(1) {
		t.Errorf("expected 1 snapshot, got %v", list["total_items"])
	}

	// Step 3: Animals, paginated in file order
	rec = app.request("GET", "/api/v1/snapshots/"+id+"/animals?page_size=2", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("animals failed: %d %s", rec.Code, rec.Body.String())
	}
	animals := parseJSON(t, rec)
	if animals["total_items"] != float64(3) || animals["total_pages"] != float64(2) {
		t.Errorf("unexpected page metadata %v", animals)
	}
	first := animals["data"].([]interface{})[0].(map[string]interface{})
	if first["animal_number"] != "1001" || first["category_label"] != "En Producción" {
		t.Errorf("unexpected first row %v", first)
	}

	// Step 4: Corral aggregates
	rec = app.request("GET", "/api/v1/snapshots/"+id+"/corrals", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("corrals failed: %d %s", rec.Code, rec.Body.String())
	}
	corrals := map[string]map[string]interface{}{}
	for _, c := range parseJSON(t, rec)["corrals"].([]interface{}) {
		group := c.(map[string]interface{})
		corrals[group["group_name"].(string)] = group
	}
	if len(corrals) != 2 {
		t.Fatalf("expected 2 corrals, got %v", corrals)
	}
	lact := corrals["LACTANTES"]
	if lact["animal_count"] != float64(2) || lact["sum_milk_yesterday"] != float64(40) || lact["avg_milk_yesterday"] != float64(20) {
		t.Errorf("unexpected LACTANTES aggregate %v", lact)
	}
	if _, ok := corrals["SECAS"]; ok {
		t.Error("excluded group must not be stored")
	}

	// Step 5: One corral, with a '/' in its name
	rec = app.request("GET", "/api/v1/snapshots/"+id+"/corrals/"+url.PathEscape("PRE/PARTO")+"/animals", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("corral animals failed: %d %s", rec.Code, rec.Body.String())
	}
	rows := parseJSON(t, rec)["animals"].([]interface{})
	if len(rows) != 1 || rows[0].(map[string]interface{})["animal_number"] != "1003" {
		t.Errorf("unexpected corral rows %v", rows)
	}

	// Step 6: Download the original upload
	rec = app.request("GET", "/api/v1/snapshots/"+id+"/download", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("download failed: %d %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != herdCSV {
		t.Error("downloaded content differs from the upload")
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "censo.csv") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}

	// Step 7: Delete removes rows and the archive
	rec = app.request("DELETE", "/api/v1/snapshots/"+id, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = app.request("GET", "/api/v1/snapshots/"+id, "", token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
	var remaining int64
	app.DB.Table("animal_rows").Where("snapshot_id = ?", id).Count(&remaining)
	if remaining != 0 {
		t.Errorf("expected rows to cascade, %d left", remaining)
	}
	archived, err := app.Archive.List(context.Background(), "census/")
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 0 {
		t.Errorf("expected archive to be removed, found %d", len(archived))
	}

	// Step 8: The deletion was audited
	var audits int64
	app.DB.Table("audit_logs").Where("action = ? AND resource_id = ?", "DELETE_SNAPSHOT", id).Count(&audits)
	if audits != 1 {
		t.Errorf("expected 1 audit entry, got %d", audits)
	}
}

func TestSnapshotFlow_OtherUsersCannotSee(t *testing.T) {
	app := setupApp(t)
	owner := tokenFor(t, "owner-1")
	intruder := tokenFor(t, "owner-2")
	id := app.uploadHerd(t, owner)

	for _, path := range []string{
		"/api/v1/snapshots/" + id,
		"/api/v1/snapshots/" + id + "/download",
	} {
		if rec := app.request("GET", path, "", intruder); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s: expected 404, got %d", path, rec.Code)
		}
	}

	rec := app.request("GET", "/api/v1/snapshots", "", intruder)
	if parseJSON(t, rec)["total_items"] != float64(0) {
		t.Errorf("expected empty list for another user, got %s", rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/snapshots/"+id+"/animals", "", intruder)
	if rec.Code != http.StatusOK || parseJSON(t, rec)["total_items"] != float64(0) {
		t.Errorf("expected empty animal page, got %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/snapshots/"+id+"/corrals", "", intruder)
	if corrals := parseJSON(t, rec)["corrals"].([]interface{}); len(corrals) != 0 {
		t.Errorf("expected no corrals for another user, got %v", corrals)
	}

	rec = app.request("DELETE", "/api/v1/snapshots/"+id, "", intruder)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}

	// Still there for the owner.
	if rec := app.request("GET", "/api/v1/snapshots/"+id, "", owner); rec.Code != http.StatusOK {
		t.Errorf("expected owner to still see the snapshot, got %d", rec.Code)
	}
}

func TestSnapshotFlow_CreateFromRecords(t *testing.T) {
	app := setupApp(t)
	token := tokenFor(t, "owner-1")

	body := `{"name":"Manual","snapshot_date":"2024-04-02","records":[
		{"animal_number":"7","group_name":"LACTANTES","milk_yesterday":"22,5"},
		{"animal_number":"8","group_name":"MACHOS"}
	]}`
	rec := app.request("POST", "/api/v1/snapshots", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", rec.Code, rec.Body.String())
	}
	snapshot := parseJSON(t, rec)["snapshot"].(map[string]interface{})
	if snapshot["total_animals"] != float64(1) {
		t.Errorf("expected 1 animal, got %v", snapshot["total_animals"])
	}
	if _, ok := snapshot["source_file_reference"]; ok {
		t.Error("record-based snapshots have no archive")
	}

	id := snapshot["id"].(string)
	rec = app.request("GET", "/api/v1/snapshots/"+id+"/download", "", token)
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "ARCHIVE_NOT_FOUND" {
		t.Errorf("expected ARCHIVE_NOT_FOUND, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestSnapshotFlow_NothingValid(t *testing.T) {
	app := setupApp(t)
	token := tokenFor(t, "owner-1")

	body := `{"name":"Vacío","snapshot_date":"2024-04-02","records":[{"group_name":"LACTANTES"}]}`
	rec := app.request("POST", "/api/v1/snapshots", body, token)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "NO_VALID_ROWS" {
		t.Errorf("expected NO_VALID_ROWS, got %s", code)
	}

	rec = app.request("GET", "/api/v1/snapshots", "", token)
	if parseJSON(t, rec)["total_items"] != float64(0) {
		t.Error("a failed ingestion must not leave a snapshot behind")
	}
}

func TestSnapshotFlow_RejectsUnreadableFile(t *testing.T) {
	app := setupApp(t)
	token := tokenFor(t, "owner-1")

	rec := app.upload(t, token, "Roto", "2024-03-01", "censo.xlsx", []byte("not a workbook"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "INVALID_CENSUS_FILE" {
		t.Errorf("expected INVALID_CENSUS_FILE, got %s", code)
	}
	archived, _ := app.Archive.List(context.Background(), "census/")
	if len(archived) != 0 {
		t.Errorf("expected nothing archived, found %d", len(archived))
	}
}
