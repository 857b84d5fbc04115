// Package planner partitions the instance ledger into randomly ordered
// batches and renders one CI job per batch.
package planner

import (
	"fmt"
	"math/rand"

	"github.com/kingrea/mipsuite/internal/ledger"
)

// Batch is one group of instances rendered as a single CI job.
type Batch struct {
	Index   int
	Records []ledger.Record
}

// Names returns the instance names in the batch, in step order.
func (b Batch) Names() []string {
	names := make([]string, len(b.Records))
	for i, rec := range b.Records {
		names[i] = rec.Name
	}
	return names
}

// Shuffle permutes names uniformly. A nil rng uses the auto-seeded global
// source, so repeated runs produce different batch assignments.
func Shuffle(names []string, rng *rand.Rand) {
	swap := func(i, j int) { names[i], names[j] = names[j], names[i] }
	if rng == nil {
		rand.Shuffle(len(names), swap)
		return
	}
	rng.Shuffle(len(names), swap)
}

// BatchCount returns ceil(n / size).
func BatchCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// NextBatch pops up to size names off the end of remaining. The pop order
// is the order of the returned batch.
func NextBatch(remaining *[]string, size int) []string {
	names := *remaining
	batch := make([]string, 0, size)
	for len(batch) < size && len(names) > 0 {
		last := len(names) - 1
		batch = append(batch, names[last])
		names = names[:last]
	}
	*remaining = names
	return batch
}

// Partition shuffles the ledger's instances and splits them into batches
// of at most size records. Every instance lands in exactly one batch.
func Partition(l *ledger.Ledger, size int, rng *rand.Rand) ([]Batch, error) {
	if size < 1 {
		return nil, fmt.Errorf("planner: batch size must be >= 1, got %d", size)
	}
	remaining := l.Names()
	Shuffle(remaining, rng)

	count := BatchCount(len(remaining), size)
	batches := make([]Batch, 0, count)
	for i := 0; i < count; i++ {
		names := NextBatch(&remaining, size)
		batch := Batch{Index: i, Records: make([]ledger.Record, 0, len(names))}
		for _, name := range names {
			rec, ok := l.Lookup(name)
			if !ok {
				return nil, fmt.Errorf("planner: instance %s vanished from ledger", name)
			}
			batch.Records = append(batch.Records, rec)
		}
		batches = append(batches, batch)
	}
	if len(remaining) != 0 {
		return nil, fmt.Errorf("planner: %d instances left unassigned", len(remaining))
	}
	return batches, nil
}
