package journal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/walletlink/internal/wallet"
)

// flushTimeout bounds a single batch insert.
const flushTimeout = 10 * time.Second

// BatchSender sends a batch of queries. *pgxpool.Pool satisfies it.
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Config holds writer settings.
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
	BufferSize    int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     100,
		FlushInterval: 2 * time.Second,
		BufferSize:    1024,
	}
}

// Stats tracks writer performance.
type Stats struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
	Dropped   int64
}

// eventRow is one session_events row.
type eventRow struct {
	EventID    string
	EventType  string
	OccurredAt time.Time
	Status     string
	Identifier string
	Provider   string
	Asset      string
	Error      *string
	DurationUs int64
}

// Writer batches session events into the session_events table.
type Writer struct {
	cfg    Config
	logger *slog.Logger
	db     BatchSender

	// Input from the session manager
	input   chan eventRow
	dropped atomic.Int64

	// Batching
	batch   []eventRow
	batchMu sync.Mutex

	// Lifecycle
	ctx      context.Context
	cancel   context.CancelFunc
	flushCtx context.Context
	wg       sync.WaitGroup

	stats Stats
}

// NewWriter creates a Writer. It buffers events until Start is called.
func NewWriter(cfg Config, db BatchSender, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig().FlushInterval
	}
	return &Writer{
		cfg:    cfg,
		logger: logger,
		db:     db,
		input:  make(chan eventRow, cfg.BufferSize),
		batch:  make([]eventRow, 0, cfg.BatchSize),
	}
}

// Record enqueues ev. It never blocks; a full buffer drops the event.
func (w *Writer) Record(ev wallet.Event) {
	select {
	case w.input <- transform(ev):
	default:
		if n := w.dropped.Add(1); n == 1 || n%100 == 0 {
			w.logger.Warn("journal buffer full, dropping events",
				"dropped", n,
				"type", ev.Type,
			)
		}
	}
}

// Start begins consuming events and writing to the database.
func (w *Writer) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushCtx = context.WithoutCancel(ctx)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("journal writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
		"buffer_size", w.cfg.BufferSize,
	)
	return nil
}

// Stop drains buffered events, flushes them, and shuts the writer down.
func (w *Writer) Stop(ctx context.Context) error {
	w.logger.Info("stopping journal writer")

	if w.cancel != nil {
		w.cancel()
	}

	// Wait for goroutines
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("journal writer stop timed out")
		return ctx.Err()
	}

	// Drain what is still buffered
drain:
	for {
		select {
		case row := <-w.input:
			w.add(row)
		default:
			break drain
		}
	}

	// Final flush
	w.flush(ctx)

	w.logger.Info("journal writer stopped")
	return nil
}

// Stats returns current metrics.
func (w *Writer) Stats() Stats {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	s := w.stats
	s.Dropped = w.dropped.Load()
	return s
}

// consumeLoop reads from the input channel and accumulates batches.
func (w *Writer) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case row := <-w.input:
			if w.add(row) {
				w.timedFlush()
			}
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *Writer) flushLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.timedFlush()
		}
	}
}

// add appends a row and reports whether the batch is full.
func (w *Writer) add(row eventRow) bool {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	w.batch = append(w.batch, row)
	return len(w.batch) >= w.cfg.BatchSize
}

func (w *Writer) timedFlush() {
	ctx, cancel := context.WithTimeout(w.flushCtx, flushTimeout)
	defer cancel()
	w.flush(ctx)
}

// transform converts an Event to an eventRow.
func transform(ev wallet.Event) eventRow {
	row := eventRow{
		EventID:    ev.ID.String(),
		EventType:  string(ev.Type),
		OccurredAt: ev.At,
		Status:     string(ev.Status),
		Identifier: ev.Identifier,
		Provider:   ev.Provider,
		Asset:      ev.Asset,
		DurationUs: ev.Duration.Microseconds(),
	}
	if ev.Err != nil {
		msg := ev.Err.Error()
		row.Error = &msg
	}
	return row
}

// flush writes the current batch to the database.
func (w *Writer) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]eventRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.stats.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.stats.Inserts += int64(len(batch) - conflicts)
	w.stats.Conflicts += int64(conflicts)
	w.stats.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed session events",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *Writer) batchInsert(ctx context.Context, rows []eventRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO session_events (event_id, event_type, occurred_at, status, identifier, provider, asset, error, duration_us)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (event_id) DO NOTHING
		`, r.EventID, r.EventType, r.OccurredAt, r.Status, r.Identifier, r.Provider, r.Asset, r.Error, r.DurationUs)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
