// Package storage archives receipt photos so every ledger row can link
// back to its proof image.
package storage

import "context"

// ImageStore saves a normalized receipt photo and returns a locator the
// ledger row records, typically a public URL.
type ImageStore interface {
	Put(ctx context.Context, data []byte, receiptNumber, weighingDatetime string) (string, error)
}

// Nop discards images. Used when no bucket is configured; ledger rows
// then carry an empty proof link.
type Nop struct{}

func (Nop) Put(ctx context.Context, data []byte, receiptNumber, weighingDatetime string) (string, error) {
	return "", nil
}
