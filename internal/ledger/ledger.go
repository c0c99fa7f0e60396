// Package ledger defines the shared delivery ledger: the record shape,
// the fixed row layout and the store contract the backends implement.
package ledger

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/claud0698/boulder-delivery-receipts/constants"
	"github.com/claud0698/boulder-delivery-receipts/internal/llm"
)

// Record is one persisted delivery row. SequenceNumber is assigned by the
// store at append time; records handed to Append carry zero. Nothing
// mutates a record after it is appended.
type Record struct {
	SequenceNumber     int
	Date               string // YYYY-MM-DD, derived from WeighingDatetime
	ReceiptNumber      string
	Time               string // HH:MM:SS, derived from WeighingDatetime
	ScaleNumber        string
	VehicleNumber      string
	MaterialName       string
	Category           constants.Category
	GrossWeight        float64
	EmptyWeight        float64
	NetWeight          float64
	Status             constants.DeliveryStatus
	Notes              string
	ImageLocator       string
	AdjustedConfidence float64 // rides with the record, not a ledger column
	CreatedAt          time.Time
}

// FromReceipt builds an unnumbered record from extracted fields.
func FromReceipt(f *llm.ReceiptFields, cat constants.Category, status constants.DeliveryStatus, notes, imageLocator string, adjustedConfidence float64, now time.Time) *Record {
	date, clock := splitDatetime(f.WeighingDatetime)
	return &Record{
		Date:               date,
		ReceiptNumber:      f.ReceiptNumber,
		Time:               clock,
		ScaleNumber:        f.ScaleNumber,
		VehicleNumber:      f.VehicleNumber,
		MaterialName:       f.MaterialName,
		Category:           cat,
		GrossWeight:        f.GrossWeight,
		EmptyWeight:        f.EmptyWeight,
		NetWeight:          f.NetWeight,
		Status:             status,
		Notes:              notes,
		ImageLocator:       imageLocator,
		AdjustedConfidence: adjustedConfidence,
		CreatedAt:          now.UTC(),
	}
}

func splitDatetime(dt string) (date, clock string) {
	parts := strings.SplitN(strings.TrimSpace(dt), " ", 2)
	date = parts[0]
	if len(parts) == 2 {
		clock = parts[1]
	}
	return date, clock
}

// Store is the shared tabular ledger. Append and AppendBatch assign
// sequence numbers and return them; whether the numbers are strictly
// unique under concurrent appends is a property of the backend (see the
// sheets store for the documented read-then-write race).
type Store interface {
	Append(ctx context.Context, rec *Record) (int, error)
	AppendBatch(ctx context.Context, recs []*Record) ([]int, error)
	Latest(ctx context.Context, n int) ([]*Record, error)
	ByDate(ctx context.Context, date string) ([]*Record, error)
}

// NextFromTail estimates the next sequence number from the tail window of
// the sequence column: the last parseable value plus one, or 1 when the
// tail is empty or contains no parseable numbers.
func NextFromTail(tail []string) int {
	for i := len(tail) - 1; i >= 0; i-- {
		v := strings.TrimSpace(tail[i])
		if v == "" {
			continue
		}
		if n, err := strconv.Atoi(v); err == nil {
			return n + 1
		}
	}
	return 1
}

// TotalNetWeight sums net weight over records, for daily totals and batch
// summaries.
func TotalNetWeight(recs []*Record) float64 {
	var total float64
	for _, r := range recs {
		total += r.NetWeight
	}
	return total
}
