package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/claud0698/boulder-delivery-receipts/internal/ledger"
)

const DefaultBatchWorkers = 5

// BatchInput is one photo in a batch. Name is only used in logs.
type BatchInput struct {
	Name string
	Data []byte
}

// BatchSummary reports a completed batch. Records holds the appended rows
// in input order; photos that failed or were rejected are simply absent.
type BatchSummary struct {
	Records        []*ledger.Record
	Submitted      int
	Saved          int
	Rejected       int
	Failed         int
	TotalNetWeight float64
}

type BatchCoordinator struct {
	proc    *Processor
	workers int
	logger  *slog.Logger
}

func NewBatchCoordinator(proc *Processor, workers int, logger *slog.Logger) *BatchCoordinator {
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchCoordinator{proc: proc, workers: workers, logger: logger}
}

// Process fans the per-photo work out over the worker pool, then appends
// every surviving record in one batch call so their sequence numbers come
// out contiguous. A photo that fails never takes its siblings down with
// it; it is logged and dropped from the batch.
func (c *BatchCoordinator) Process(ctx context.Context, inputs []BatchInput) (*BatchSummary, error) {
	summary := &BatchSummary{Submitted: len(inputs)}
	if len(inputs) == 0 {
		return summary, nil
	}

	results := make([]*Result, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, in := range inputs {
		g.Go(func() error {
			res, err := c.proc.prepare(gctx, in.Data)
			if err != nil {
				c.logger.Warn("batch.item_failed", "name", in.Name, "error", err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	// workers only report, never abort the group
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var survivors []*ledger.Record
	for _, res := range results {
		switch {
		case res == nil:
			summary.Failed++
		case res.Rejected:
			summary.Rejected++
		default:
			survivors = append(survivors, res.Record)
		}
	}
	if len(survivors) == 0 {
		c.logger.Warn("batch.empty", "submitted", summary.Submitted, "failed", summary.Failed)
		return summary, nil
	}

	seqs, err := c.proc.store.AppendBatch(ctx, survivors)
	if err != nil {
		return nil, err
	}
	for i, rec := range survivors {
		rec.SequenceNumber = seqs[i]
	}

	summary.Records = survivors
	summary.Saved = len(survivors)
	summary.TotalNetWeight = ledger.TotalNetWeight(survivors)
	c.logger.Info("batch.done",
		"submitted", summary.Submitted,
		"saved", summary.Saved,
		"rejected", summary.Rejected,
		"failed", summary.Failed,
		"total_net_weight", summary.TotalNetWeight,
	)
	return summary, nil
}
