package census

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadTable(t *testing.T) {
	t.Run("comma_csv", func(t *testing.T) {
		data := "Número del animal,Nombre del grupo,Producción de leche ayer\nA1,LACTANTES,12.5\nA2,FRESCAS,9\n"
		tbl, err := ReadTable("census.csv", []byte(data))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tbl.Header) != 3 {
			t.Fatalf("expected 3 header cells, got %d", len(tbl.Header))
		}
		if tbl.Len() != 2 {
			t.Fatalf("expected 2 rows, got %d", tbl.Len())
		}
		if tbl.Rows[1].Position != 2 || tbl.Rows[1].Get(0) != "A2" {
			t.Errorf("unexpected second row: %+v", tbl.Rows[1])
		}
	})

	t.Run("semicolon_csv_with_bom", func(t *testing.T) {
		data := "\xef\xbb\xbfNúmero del animal;Nombre del grupo;Producción de leche ayer\nA1;LACTANTES;12,5\n"
		tbl, err := ReadTable("census.csv", []byte(data))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tbl.Column("Número del animal") != 0 {
			t.Errorf("BOM should be stripped from first header, got %q", tbl.Header[0])
		}
		if got := tbl.Rows[0].Get(2); got != "12,5" {
			t.Errorf("expected raw cell 12,5, got %q", got)
		}
	})

	t.Run("blank_rows_keep_positions", func(t *testing.T) {
		data := "\nanimal_number,group_name\nA1,G1\n,\nA3,G1\n"
		tbl, err := ReadTable("census.csv", []byte(data))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tbl.Len() != 2 {
			t.Fatalf("expected 2 rows, got %d", tbl.Len())
		}
		if tbl.Rows[1].Position != 3 {
			t.Errorf("expected position 3 for third data line, got %d", tbl.Rows[1].Position)
		}
	})

	t.Run("empty_file", func(t *testing.T) {
		_, err := ReadTable("census.csv", []byte("  \n"))
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Fatalf("expected FormatError, got %v", err)
		}
	})

	t.Run("xlsx_first_sheet", func(t *testing.T) {
		f := excelize.NewFile()
		sheet := f.GetSheetName(0)
		rows := [][]any{
			{"Número del animal", "Nombre del grupo", "Producción de leche ayer"},
			{"A1", "LACTANTES", 12.5},
			{"A2", "FRESCAS", 9},
		}
		for i, r := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := f.SetSheetRow(sheet, cell, &r); err != nil {
				t.Fatalf("failed to write row: %v", err)
			}
		}
		var buf bytes.Buffer
		if err := f.Write(&buf); err != nil {
			t.Fatalf("failed to write workbook: %v", err)
		}

		tbl, err := ReadTable("upload.bin", buf.Bytes())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tbl.Len() != 2 {
			t.Fatalf("expected 2 rows, got %d", tbl.Len())
		}
		if got := tbl.Rows[0].Get(2); got != "12.5" {
			t.Errorf("expected 12.5, got %q", got)
		}
	})

	t.Run("corrupt_xlsx", func(t *testing.T) {
		_, err := ReadTable("census.xlsx", []byte("not a workbook"))
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Fatalf("expected FormatError, got %v", err)
		}
	})
}
