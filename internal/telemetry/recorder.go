// Package telemetry records per-call token usage. Everything here is
// best-effort: a failed recorder must never block the extraction pipeline,
// so callers log at warn and drop the error.
package telemetry

import (
	"context"
)

// Record is one model call's token accounting. ReceiptNumber is a soft
// key back to the delivery; it may be empty for failed extractions.
type Record struct {
	SequenceNumber int
	ReceiptNumber  string
	Operation      string // "extract" or "categorize"
	Model          string
	PromptTokens   int32
	OutputTokens   int32
	TotalTokens    int32
}

type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Nop is the recorder used when no telemetry store is configured.
type Nop struct{}

func (Nop) Record(context.Context, Record) error { return nil }
