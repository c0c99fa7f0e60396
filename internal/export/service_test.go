package export

import (
	"bytes"
	"context"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/claud0698/boulder-delivery-receipts/constants"
	"github.com/claud0698/boulder-delivery-receipts/internal/ledger"
	"github.com/claud0698/boulder-delivery-receipts/internal/ledger/memory"
)

func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	recs := []*ledger.Record{
		{
			Date: "2024-05-11", ReceiptNumber: "WB-0001", Time: "08:42:00",
			MaterialName: "Batu Pecah 1/2", Category: constants.BatuPecahHalf,
			GrossWeight: 24.36, EmptyWeight: 9.12, NetWeight: 15.24,
			Status: constants.StatusSaved, Notes: constants.NoteAutoSaved,
			CreatedAt: time.Date(2024, 5, 11, 8, 45, 0, 0, time.UTC),
		},
		{
			Date: "2024-05-11", ReceiptNumber: "WB-0002", Time: "09:10:00",
			MaterialName: "Pasir", Category: constants.Pasir,
			GrossWeight: 18.0, EmptyWeight: 8.0, NetWeight: 10.0,
			Status: constants.StatusSaved, Notes: constants.NoteAutoSaved,
			CreatedAt: time.Date(2024, 5, 11, 9, 12, 0, 0, time.UTC),
		},
	}
	if _, err := store.AppendBatch(context.Background(), recs); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestExportDayXLSX(t *testing.T) {
	svc := NewService(seedStore(t), nil)

	data, err := svc.ExportDayXLSX(context.Background(), "2024-05-11")
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a readable workbook: %v", err)
	}
	defer f.Close()

	sheet := "Pengiriman 2024-05-11"
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatal(err)
	}
	// header + 2 records + total row
	if len(rows) != 4 {
		t.Fatalf("workbook has %d rows, want 4", len(rows))
	}
	if rows[0][0] != "No" || rows[0][2] != "No Nota" {
		t.Errorf("header row = %v", rows[0])
	}
	if rows[1][2] != "WB-0001" || rows[2][2] != "WB-0002" {
		t.Errorf("data rows = %v / %v", rows[1], rows[2])
	}
	if rows[3][9] != "Total" {
		t.Errorf("total row = %v", rows[3])
	}
	total, err := strconv.ParseFloat(rows[3][10], 64)
	if err != nil || math.Abs(total-25.24) > 1e-9 {
		t.Errorf("total cell = %q, want 25.24", rows[3][10])
	}
}

func TestExportLatestXLSXOldestFirst(t *testing.T) {
	svc := NewService(seedStore(t), nil)

	data, err := svc.ExportLatestXLSX(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows("Pengiriman")
	if err != nil {
		t.Fatal(err)
	}
	if rows[1][2] != "WB-0001" || rows[2][2] != "WB-0002" {
		t.Errorf("rows not oldest first: %v / %v", rows[1], rows[2])
	}
}
