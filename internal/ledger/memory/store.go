// Package memory is the in-memory ledger used by tests and local dry runs.
package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/claud0698/boulder-delivery-receipts/internal/ledger"
)

// Store keeps records in an append-only slice guarded by a mutex.
// Allocation here runs under the same lock as the append, so sequence
// numbers are strictly unique; this is the behavior the spreadsheet
// backend cannot promise.
type Store struct {
	mu      sync.Mutex
	records []*ledger.Record
}

func NewStore() *Store {
	return &Store{records: make([]*ledger.Record, 0)}
}

func (s *Store) Append(ctx context.Context, rec *ledger.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.nextSequenceLocked()
	stored := *rec
	stored.SequenceNumber = seq
	s.records = append(s.records, &stored)
	return seq, nil
}

func (s *Store) AppendBatch(ctx context.Context, recs []*ledger.Record) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.nextSequenceLocked()
	seqs := make([]int, len(recs))
	for i, rec := range recs {
		stored := *rec
		stored.SequenceNumber = start + i
		s.records = append(s.records, &stored)
		seqs[i] = stored.SequenceNumber
	}
	return seqs, nil
}

func (s *Store) Latest(ctx context.Context, n int) ([]*ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || len(s.records) == 0 {
		return nil, nil
	}
	if n > len(s.records) {
		n = len(s.records)
	}
	out := make([]*ledger.Record, 0, n)
	for i := len(s.records) - 1; i >= len(s.records)-n; i-- {
		cp := *s.records[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) ByDate(ctx context.Context, date string) ([]*ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*ledger.Record
	for _, r := range s.records {
		if r.Date == date {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) nextSequenceLocked() int {
	tail := make([]string, 0, len(s.records))
	for _, r := range s.records {
		tail = append(tail, strconv.Itoa(r.SequenceNumber))
	}
	return ledger.NextFromTail(tail)
}

var _ ledger.Store = (*Store)(nil)
