package ledger

import (
	"fmt"
	"strconv"
	"time"

	"github.com/claud0698/boulder-delivery-receipts/constants"
)

// Column order is fixed and shared by every backend and the export:
// sequence, date, receipt number, time, scale, vehicle, material,
// category, gross, empty, net, status, notes, image locator, created at.
const NumColumns = 15

// Headers as they appear in the shared sheet (Indonesian).
var Headers = []string{
	"No", "Tanggal", "No Nota", "Waktu",
	"No Timbangan", "No Kendaraan", "Nama Material",
	"Jenis Material", "Berat Isi", "Berat Kosong",
	"Berat Bersih", "Status", "Catatan", "URL Bukti",
	"Ditambahkan",
}

// ToRow renders the record as one ledger row. Weights stay numeric so
// spreadsheet backends store them as numbers.
func (r *Record) ToRow() []any {
	return []any{
		strconv.Itoa(r.SequenceNumber),
		r.Date,
		r.ReceiptNumber,
		r.Time,
		r.ScaleNumber,
		r.VehicleNumber,
		r.MaterialName,
		string(r.Category),
		r.GrossWeight,
		r.EmptyWeight,
		r.NetWeight,
		string(r.Status),
		r.Notes,
		r.ImageLocator,
		r.CreatedAt.Format(time.RFC3339),
	}
}

// FromRow parses a ledger row back into a record. Short rows are padded
// with empty cells; unparseable numeric cells become zero, matching how
// the tail scan tolerates garbage rows.
func FromRow(cells []string) (*Record, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("empty row")
	}
	row := make([]string, NumColumns)
	copy(row, cells)

	seq, _ := strconv.Atoi(row[0])
	createdAt, _ := time.Parse(time.RFC3339, row[14])
	cat, _ := constants.Canonicalize(row[7])

	return &Record{
		SequenceNumber: seq,
		Date:           row[1],
		ReceiptNumber:  row[2],
		Time:           row[3],
		ScaleNumber:    row[4],
		VehicleNumber:  row[5],
		MaterialName:   row[6],
		Category:       cat,
		GrossWeight:    parseWeight(row[8]),
		EmptyWeight:    parseWeight(row[9]),
		NetWeight:      parseWeight(row[10]),
		Status:         constants.DeliveryStatus(row[11]),
		Notes:          row[12],
		ImageLocator:   row[13],
		CreatedAt:      createdAt,
	}, nil
}

func parseWeight(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
