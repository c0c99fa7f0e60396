package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"math"
	"testing"

	"github.com/claud0698/boulder-delivery-receipts/constants"
	"github.com/claud0698/boulder-delivery-receipts/internal/category"
	"github.com/claud0698/boulder-delivery-receipts/internal/imgprep"
	"github.com/claud0698/boulder-delivery-receipts/internal/ledger/memory"
	"github.com/claud0698/boulder-delivery-receipts/internal/llm"
)

func photoFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func validFields() *llm.ReceiptFields {
	return &llm.ReceiptFields{
		ReceiptNumber:    "WB-2024-0117",
		ScaleNumber:      "02",
		WeighingDatetime: "2024-05-11 08:42:00",
		VehicleNumber:    "B 9041 KYU",
		MaterialName:     "Batu Pecah 1/2",
		GrossWeight:      24.36,
		EmptyWeight:      9.12,
		NetWeight:        15.24,
	}
}

type stubExtractor struct {
	fields *llm.ReceiptFields
	conf   float64
	err    error
}

func (s *stubExtractor) Extract(ctx context.Context, ref llm.ImageRef) (*llm.ReceiptFields, float64, error) {
	return s.fields, s.conf, s.err
}

type failingImageStore struct{}

func (failingImageStore) Put(ctx context.Context, data []byte, receiptNumber, weighingDatetime string) (string, error) {
	return "", errors.New("bucket gone")
}

func newTestProcessor(t *testing.T, extractor llm.Extractor) (*Processor, *memory.Store) {
	t.Helper()
	cat, err := category.New(nil, 0, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	store := memory.NewStore()
	proc := NewProcessor(imgprep.NewNormalizer(800, nil), extractor, cat, store, nil, 0.5, nil)
	return proc, store
}

func TestProcessReceiptSaved(t *testing.T) {
	proc, store := newTestProcessor(t, &stubExtractor{fields: validFields(), conf: 0.95})

	res, err := proc.ProcessReceipt(context.Background(), photoFixture(t, 640, 480))
	if err != nil {
		t.Fatal(err)
	}
	if res.Rejected {
		t.Fatal("valid receipt was rejected")
	}
	if res.Record.SequenceNumber != 1 {
		t.Errorf("sequence = %d, want 1", res.Record.SequenceNumber)
	}
	if res.Record.Category != constants.BatuPecahHalf {
		t.Errorf("category = %q", res.Record.Category)
	}
	if res.Record.Status != constants.StatusSaved || res.Record.Notes != constants.NoteAutoSaved {
		t.Errorf("status/notes = %q/%q", res.Record.Status, res.Record.Notes)
	}
	if res.Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", res.Confidence)
	}

	rows, err := store.Latest(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ReceiptNumber != "WB-2024-0117" {
		t.Errorf("ledger rows = %v", rows)
	}
}

func TestProcessReceiptLowConfidenceRejected(t *testing.T) {
	proc, store := newTestProcessor(t, &stubExtractor{fields: validFields(), conf: 0.3})

	res, err := proc.ProcessReceipt(context.Background(), photoFixture(t, 640, 480))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Rejected {
		t.Fatal("low-confidence receipt was not rejected")
	}
	rows, err := store.Latest(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("rejected receipt reached the ledger: %v", rows)
	}
}

func TestProcessReceiptPenaltiesCauseRejection(t *testing.T) {
	// raw 0.8 with a weight mismatch adjusts to 0.56; with a short
	// receipt number on top it drops to 0.448, below the 0.5 threshold
	fields := validFields()
	fields.NetWeight = 10
	fields.ReceiptNumber = "7"
	proc, _ := newTestProcessor(t, &stubExtractor{fields: fields, conf: 0.8})

	res, err := proc.ProcessReceipt(context.Background(), photoFixture(t, 640, 480))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Rejected {
		t.Errorf("adjusted confidence %v should reject", res.Confidence)
	}
}

func TestProcessReceiptUnparseableExtraction(t *testing.T) {
	proc, _ := newTestProcessor(t, &stubExtractor{fields: nil, conf: 0})

	res, err := proc.ProcessReceipt(context.Background(), photoFixture(t, 640, 480))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Rejected {
		t.Error("unparseable extraction should be rejected")
	}
}

func TestProcessReceiptWeightMismatchNeedsReview(t *testing.T) {
	fields := validFields()
	fields.NetWeight = 10 // inconsistent, x0.7 -> 0.665, still above threshold
	proc, _ := newTestProcessor(t, &stubExtractor{fields: fields, conf: 0.95})

	res, err := proc.ProcessReceipt(context.Background(), photoFixture(t, 640, 480))
	if err != nil {
		t.Fatal(err)
	}
	if res.Rejected {
		t.Fatal("receipt above threshold was rejected")
	}
	if res.Record.Status != constants.StatusNeedsReview || res.Record.Notes != constants.NoteWeightMismatch {
		t.Errorf("status/notes = %q/%q", res.Record.Status, res.Record.Notes)
	}
}

func TestProcessReceiptOtherCategoryNeedsReview(t *testing.T) {
	fields := validFields()
	fields.MaterialName = "material misterius"
	proc, _ := newTestProcessor(t, &stubExtractor{fields: fields, conf: 0.95})

	res, err := proc.ProcessReceipt(context.Background(), photoFixture(t, 640, 480))
	if err != nil {
		t.Fatal(err)
	}
	if res.Record.Category != constants.Lainnya {
		t.Fatalf("category = %q, want Lainnya", res.Record.Category)
	}
	if res.Record.Status != constants.StatusNeedsReview || res.Record.Notes != constants.NoteOtherCategory {
		t.Errorf("status/notes = %q/%q", res.Record.Status, res.Record.Notes)
	}
}

func TestProcessReceiptImageStoreFailureDoesNotBlock(t *testing.T) {
	cat, err := category.New(nil, 0, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	store := memory.NewStore()
	proc := NewProcessor(imgprep.NewNormalizer(800, nil), &stubExtractor{fields: validFields(), conf: 0.95},
		cat, store, failingImageStore{}, 0.5, nil)

	res, err := proc.ProcessReceipt(context.Background(), photoFixture(t, 640, 480))
	if err != nil {
		t.Fatal(err)
	}
	if res.Rejected {
		t.Fatal("receipt rejected because of image store failure")
	}
	if res.Record.ImageLocator != "" {
		t.Errorf("locator = %q, want empty after upload failure", res.Record.ImageLocator)
	}
}

func TestApplyCorrectionRederivesAndRecategorizes(t *testing.T) {
	proc, store := newTestProcessor(t, &stubExtractor{fields: validFields(), conf: 0.95})

	res, err := proc.ProcessReceipt(context.Background(), photoFixture(t, 640, 480))
	if err != nil {
		t.Fatal(err)
	}

	gross := 30.0
	out, err := proc.ApplyCorrection(context.Background(), res.Record, Correction{
		GrossWeight:  &gross,
		MaterialName: "Pasir",
	})
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(out.NetWeight-(30.0-9.12)) > 1e-9 {
		t.Errorf("net weight = %v, want re-derived %v", out.NetWeight, 30.0-9.12)
	}
	if out.Category != constants.Pasir {
		t.Errorf("category = %q, want re-categorized Pasir", out.Category)
	}
	if out.Notes != constants.NoteCorrected || out.Status != constants.StatusSaved {
		t.Errorf("status/notes = %q/%q", out.Status, out.Notes)
	}
	if out.SequenceNumber != 2 {
		t.Errorf("corrected row sequence = %d, want fresh append as 2", out.SequenceNumber)
	}
	// the original row is untouched
	rows, err := store.ByDate(context.Background(), "2024-05-11")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].MaterialName != "Batu Pecah 1/2" {
		t.Errorf("ledger rows = %v", rows)
	}
}

func TestApplyCorrectionNegativeNet(t *testing.T) {
	proc, _ := newTestProcessor(t, &stubExtractor{fields: validFields(), conf: 0.95})
	res, err := proc.ProcessReceipt(context.Background(), photoFixture(t, 640, 480))
	if err != nil {
		t.Fatal(err)
	}

	empty := 99.0
	if _, err := proc.ApplyCorrection(context.Background(), res.Record, Correction{EmptyWeight: &empty}); err == nil {
		t.Error("negative corrected net weight should fail")
	}
}
