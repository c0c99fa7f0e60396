// Package pipeline composes normalization, extraction, scoring,
// categorization and the ledger append into the receipt intake flow.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/claud0698/boulder-delivery-receipts/constants"
	"github.com/claud0698/boulder-delivery-receipts/internal/category"
	"github.com/claud0698/boulder-delivery-receipts/internal/confidence"
	"github.com/claud0698/boulder-delivery-receipts/internal/imgprep"
	"github.com/claud0698/boulder-delivery-receipts/internal/ledger"
	"github.com/claud0698/boulder-delivery-receipts/internal/llm"
	"github.com/claud0698/boulder-delivery-receipts/internal/storage"
)

// Result is the outcome of one receipt photo. Exactly one of Record or
// Rejected is meaningful: a rejected photo never reaches the ledger.
type Result struct {
	Record     *ledger.Record
	Rejected   bool
	Confidence float64 // adjusted, after penalties
}

type Processor struct {
	normalizer  *imgprep.Normalizer
	extractor   llm.Extractor
	categorizer *category.Categorizer
	store       ledger.Store
	images      storage.ImageStore
	minConf     float64
	logger      *slog.Logger
	now         func() time.Time
}

func NewProcessor(
	normalizer *imgprep.Normalizer,
	extractor llm.Extractor,
	categorizer *category.Categorizer,
	store ledger.Store,
	images storage.ImageStore,
	minConfidence float64,
	logger *slog.Logger,
) *Processor {
	if images == nil {
		images = storage.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		normalizer:  normalizer,
		extractor:   extractor,
		categorizer: categorizer,
		store:       store,
		images:      images,
		minConf:     minConfidence,
		logger:      logger,
		now:         time.Now,
	}
}

// ProcessReceipt runs one photo through the full pipeline and appends the
// resulting row. A below-threshold confidence is not an error: the photo
// is discarded and reported through Result.Rejected so the caller can ask
// the user for a better shot.
func (p *Processor) ProcessReceipt(ctx context.Context, imageData []byte) (*Result, error) {
	res, err := p.prepare(ctx, imageData)
	if err != nil || res.Rejected {
		return res, err
	}

	seq, err := p.store.Append(ctx, res.Record)
	if err != nil {
		return nil, err
	}
	res.Record.SequenceNumber = seq
	p.logger.Info("pipeline.saved",
		"sequence", seq,
		"receipt_number", res.Record.ReceiptNumber,
		"category", res.Record.Category,
		"confidence", res.Confidence,
	)
	return res, nil
}

// prepare runs everything up to, but not including, the append. The batch
// coordinator uses it directly so a whole batch lands in one append call.
func (p *Processor) prepare(ctx context.Context, imageData []byte) (*Result, error) {
	normalized, err := p.normalizer.Normalize(imageData)
	if err != nil {
		return nil, err
	}

	fields, rawConf, err := p.extractor.Extract(ctx, llm.ImageRef{Data: normalized, MIMEType: "image/jpeg"})
	if err != nil {
		return nil, err
	}
	if fields == nil {
		// model answered but not in the agreed shape
		p.logger.Warn("pipeline.rejected", "reason", "unparseable extraction")
		return &Result{Rejected: true}, nil
	}

	adjusted := confidence.Score(fields, rawConf)
	if adjusted < p.minConf {
		p.logger.Warn("pipeline.rejected",
			"reason", "low confidence",
			"raw", rawConf, "adjusted", adjusted, "threshold", p.minConf,
		)
		return &Result{Rejected: true, Confidence: adjusted}, nil
	}

	cat := p.categorizer.Categorize(ctx, fields.MaterialName)

	locator, err := p.images.Put(ctx, normalized, fields.ReceiptNumber, fields.WeighingDatetime)
	if err != nil {
		// the row is still worth saving without its proof link
		p.logger.Warn("pipeline.image_store_failed", "error", err)
		locator = ""
	}

	status, notes := classify(fields, cat)
	rec := ledger.FromReceipt(fields, cat, status, notes, locator, adjusted, p.now())
	return &Result{Record: rec, Confidence: adjusted}, nil
}

func classify(fields *llm.ReceiptFields, cat constants.Category) (constants.DeliveryStatus, string) {
	switch {
	case cat == constants.Lainnya:
		return constants.StatusNeedsReview, constants.NoteOtherCategory
	case !confidence.WeightsConsistent(fields):
		return constants.StatusNeedsReview, constants.NoteWeightMismatch
	default:
		return constants.StatusSaved, constants.NoteAutoSaved
	}
}

// Correction carries user-edited fields. Zero values mean "unchanged";
// weights use pointers because 0 is a legal corrected weight.
type Correction struct {
	ReceiptNumber string
	ScaleNumber   string
	VehicleNumber string
	MaterialName  string
	GrossWeight   *float64
	EmptyWeight   *float64
}

// ApplyCorrection produces a fresh record with the user's edits applied
// and appends it. Net weight is re-derived whenever either weight
// changes, and a changed material name goes back through categorization.
// The original row, if one was appended, is left untouched.
func (p *Processor) ApplyCorrection(ctx context.Context, rec *ledger.Record, corr Correction) (*ledger.Record, error) {
	out := *rec
	out.SequenceNumber = 0
	out.CreatedAt = p.now().UTC()

	if corr.ReceiptNumber != "" {
		out.ReceiptNumber = corr.ReceiptNumber
	}
	if corr.ScaleNumber != "" {
		out.ScaleNumber = corr.ScaleNumber
	}
	if corr.VehicleNumber != "" {
		out.VehicleNumber = corr.VehicleNumber
	}

	if corr.GrossWeight != nil {
		out.GrossWeight = *corr.GrossWeight
	}
	if corr.EmptyWeight != nil {
		out.EmptyWeight = *corr.EmptyWeight
	}
	if corr.GrossWeight != nil || corr.EmptyWeight != nil {
		out.NetWeight = out.GrossWeight - out.EmptyWeight
		if out.NetWeight < 0 {
			return nil, fmt.Errorf("corrected net weight is negative: %.3f", out.NetWeight)
		}
	}

	if corr.MaterialName != "" && corr.MaterialName != rec.MaterialName {
		out.MaterialName = corr.MaterialName
		out.Category = p.categorizer.Categorize(ctx, corr.MaterialName)
	}

	out.Status = constants.StatusSaved
	out.Notes = constants.NoteCorrected
	if out.Category == constants.Lainnya {
		out.Status = constants.StatusNeedsReview
	}

	seq, err := p.store.Append(ctx, &out)
	if err != nil {
		return nil, err
	}
	out.SequenceNumber = seq
	p.logger.Info("pipeline.corrected", "sequence", seq, "receipt_number", out.ReceiptNumber)
	return &out, nil
}
