package migration

import (
	"context"
	"fmt"
	"time"
)

// Defaults for the whole-environment migrations. A pause between batches
// keeps the target's import pipeline from being flooded.
const (
	DefaultBatchSize  = 10
	DefaultBatchPause = 60 * time.Second
)

type sleepFunc func(ctx context.Context, d time.Duration)

func defaultSleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// BatchOptions tune the whole-environment migrations.
type BatchOptions struct {
	// BatchSize is the number of entities migrated per batch.
	BatchSize int
	// Pause is slept between consecutive batches, but not after the last
	// one.
	Pause time.Duration
}

func (o BatchOptions) withDefaults() BatchOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Pause == 0 {
		o.Pause = DefaultBatchPause
	}
	return o
}

// chunk partitions items into consecutive slices of at most size elements.
// Every item lands in exactly one chunk, in order.
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var chunks [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// runBatches partitions items into batches and runs fn on each batch
// sequentially, pausing between batches. A batch whose fn returns an error
// is recorded as a failure for each of its items; later batches still run.
func runBatches[T any](
	ctx context.Context,
	m *Migrator,
	items []T,
	opts BatchOptions,
	refOf func(T) string,
	fn func(ctx context.Context, batch []T) (*Summary, error),
) *Summary {
	opts = opts.withDefaults()
	summary := m.newSummary()
	chunks := chunk(items, opts.BatchSize)

	for i, batch := range chunks {
		m.logger.Info("migrating batch",
			"run_id", summary.RunID,
			"batch", i+1,
			"batches", len(chunks),
			"size", len(batch))

		batchSummary, err := fn(ctx, batch)
		if err != nil {
			for _, item := range batch {
				summary.add(failedOutcome(refOf(item), "", "", fmt.Sprintf("batch failed: %v", err)))
			}
		} else {
			summary.merge(batchSummary)
		}

		if i < len(chunks)-1 && opts.Pause > 0 {
			m.logger.Debug("pausing between batches", "pause", opts.Pause)
			m.sleep(ctx, opts.Pause)
			if ctx.Err() != nil {
				for _, batch := range chunks[i+1:] {
					for _, item := range batch {
						summary.add(failedOutcome(refOf(item), "", "", fmt.Sprintf("canceled: %v", ctx.Err())))
					}
				}
				return summary
			}
		}
	}
	return summary
}
