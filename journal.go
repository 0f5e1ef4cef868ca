package label

import (
	"context"
	"time"

	"github.com/xraph/label/sale"
)

// salesFlush describes a batch of sales written to the store. It is emitted
// to plugins once no lock is held.
type salesFlush struct {
	size    int
	elapsed time.Duration
}

// journal hands a sale to the background worker, or writes it straight to
// the store when the worker is not running or its buffer is full. A
// synchronous write returns the flushed batch for the caller to emit after
// releasing l.mu. Callers hold l.mu.
func (l *Label) journal(ctx context.Context, s *sale.Sale) *salesFlush {
	if l.running {
		select {
		case l.saleBuffer <- s:
			return nil
		default:
			l.logger.Warn("sale journal buffer full, writing synchronously",
				"sale_id", s.ID.String(),
				"buffer", cap(l.saleBuffer),
			)
		}
	}
	return l.flushSales(ctx, []*sale.Sale{s})
}

// Flush writes every buffered sale to the store and returns once they are
// visible to ListSales.
func (l *Label) Flush(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flushJournalLocked(ctx)
}

// flushJournalLocked asks the worker to flush and waits for it. Callers
// hold l.mu, which keeps the worker alive for the duration.
func (l *Label) flushJournalLocked(ctx context.Context) error {
	if !l.running {
		return nil
	}

	done := make(chan struct{})
	select {
	case l.flushReq <- done:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// journalWorker batches buffered sales to the store.
func (l *Label) journalWorker(ctx context.Context, stop <-chan struct{}) {
	defer l.wg.Done()

	batch := make([]*sale.Sale, 0, l.journalBatchSize)
	ticker := time.NewTicker(l.journalFlushInterval)
	defer ticker.Stop()

	flush := func() *salesFlush {
		if len(batch) == 0 {
			return nil
		}
		f := l.flushSales(ctx, batch)
		batch = make([]*sale.Sale, 0, l.journalBatchSize)
		return f
	}
	drain := func() {
		for {
			select {
			case s := <-l.saleBuffer:
				batch = append(batch, s)
			default:
				return
			}
		}
	}

	for {
		select {
		case <-stop:
			// Final flush
			drain()
			l.emitSalesFlushed(ctx, flush())
			return

		case s := <-l.saleBuffer:
			batch = append(batch, s)
			if len(batch) >= l.journalBatchSize {
				l.emitSalesFlushed(ctx, flush())
			}

		case done := <-l.flushReq:
			// The requester holds l.mu until done is closed.
			drain()
			f := flush()
			close(done)
			l.emitSalesFlushed(ctx, f)

		case <-ticker.C:
			l.emitSalesFlushed(ctx, flush())
		}
	}
}

// flushSales writes batch to the store. It returns nil when the write fails.
func (l *Label) flushSales(ctx context.Context, batch []*sale.Sale) *salesFlush {
	start := time.Now()

	if err := l.store.AppendSales(ctx, batch); err != nil {
		l.logger.Error("failed to flush sale batch",
			"error", err,
			"batch_size", len(batch),
		)
		return nil
	}

	elapsed := time.Since(start)
	l.logger.Debug("flushed sale batch",
		"batch_size", len(batch),
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return &salesFlush{size: len(batch), elapsed: elapsed}
}

func (l *Label) emitSalesFlushed(ctx context.Context, f *salesFlush) {
	if f == nil {
		return
	}
	l.plugins.EmitSalesFlushed(ctx, f.size, f.elapsed)
}
