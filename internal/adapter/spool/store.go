// Package spool journals classified events in a local SQLite database so
// a sink outage does not stall ingestion or drop readings. Events are
// written to the journal before the sink sees them, marked synced once it
// accepts them, and replayed by a background drain until it does.
package spool

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/openplume/air-quality-etl/internal/config"
	"github.com/openplume/air-quality-etl/internal/domain"
	"github.com/openplume/air-quality-etl/internal/observability"
)

//go:embed schema.sql
var schemaSQL string

const drainBatchSize = 256

const (
	insertEventSQL = `
INSERT INTO spooled_events (id, station, severity, breach, event_time, stored_at, payload)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING`

	selectPendingSQL = `
SELECT payload FROM spooled_events
WHERE synced = 0
ORDER BY stored_at, id
LIMIT ?`

	markSyncedSQL = `UPDATE spooled_events SET synced = 1 WHERE id = ?`

	purgeSyncedSQL = `DELETE FROM spooled_events WHERE synced = 1 AND stored_at < ?`

	countPendingSQL = `SELECT COUNT(*) FROM spooled_events WHERE synced = 0`
)

// Loader is the downstream sink the spool forwards to.
type Loader interface {
	LoadBatch(ctx context.Context, events []domain.ClassifiedEvent) error
}

// Store wraps a sink loader with a SQLite journal.
// It implements pipeline.BatchLoader.
type Store struct {
	db        *sql.DB
	inner     Loader
	logger    *slog.Logger
	metrics   *observability.Metrics
	syncEvery time.Duration
	retention time.Duration
}

func New(cfg *config.Config, inner Loader, metrics *observability.Metrics, logger *slog.Logger) (*Store, error) {
	db, err := open(cfg.SpoolPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply spool schema: %w", err)
	}

	s := &Store{
		db:        db,
		inner:     inner,
		logger:    logger,
		metrics:   metrics,
		syncEvery: cfg.SpoolSyncInterval,
		retention: cfg.SpoolRetention,
	}

	// Events left over from a previous run show up in the gauge right away.
	pending, err := s.Pending(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("count pending spool events: %w", err)
	}
	metrics.SpoolPending.Set(float64(pending))
	if pending > 0 {
		logger.Info("spool has pending events from a previous run", "pending", pending)
	}

	return s, nil
}

// LoadBatch journals the batch, then forwards it. A sink failure is
// absorbed: the events stay pending in the journal and the drain loop
// replays them, so the pipeline can commit offsets and keep consuming.
// Only a journal write failure propagates, since then the batch is not
// durable anywhere.
func (s *Store) LoadBatch(ctx context.Context, events []domain.ClassifiedEvent) error {
	if len(events) == 0 {
		return nil
	}

	if err := s.journal(ctx, events); err != nil {
		return fmt.Errorf("journal batch: %w", err)
	}

	if err := s.inner.LoadBatch(ctx, events); err != nil {
		s.logger.Warn("sink rejected batch, holding in spool", "error", err, "batch_size", len(events))
		s.updatePendingGauge(ctx)
		return nil
	}

	if err := s.markSynced(ctx, events); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	s.updatePendingGauge(ctx)
	return nil
}

// Start runs the drain-and-purge loop until the context is cancelled.
func (s *Store) Start(ctx context.Context) {
	ticker := time.NewTicker(s.syncEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if drained, err := s.Drain(ctx); err != nil {
				s.logger.Warn("spool drain failed", "error", err, "drained", drained)
			} else if drained > 0 {
				s.logger.Info("spool drained", "events", drained)
			}

			if purged, err := s.purge(ctx); err != nil {
				s.logger.Warn("spool purge failed", "error", err)
			} else if purged > 0 {
				s.logger.Debug("spool purged", "events", purged)
			}
		}
	}
}

// Drain replays pending events to the sink in stored order. It stops at
// the first sink error and reports how many events it delivered; the next
// tick picks up where it left off. A drain may overlap a live LoadBatch,
// but duplicate publishes collapse downstream on the deterministic ID.
func (s *Store) Drain(ctx context.Context) (int, error) {
	drained := 0
	for {
		batch, err := s.pendingBatch(ctx, drainBatchSize)
		if err != nil {
			return drained, err
		}
		if len(batch) == 0 {
			break
		}

		if err := s.inner.LoadBatch(ctx, batch); err != nil {
			return drained, fmt.Errorf("replay batch: %w", err)
		}
		if err := s.markSynced(ctx, batch); err != nil {
			return drained, err
		}

		drained += len(batch)
		s.metrics.SpoolDrained.Add(float64(len(batch)))
	}

	s.updatePendingGauge(ctx)
	return drained, nil
}

// Pending reports how many journaled events still await the sink.
func (s *Store) Pending(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, countPendingSQL).Scan(&n)
	return n, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) journal(ctx context.Context, events []domain.ClassifiedEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, insertEventSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	storedAt := time.Now().UTC().Format(time.RFC3339Nano)
	for i := range events {
		payload, err := json.Marshal(events[i])
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", events[i].ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			events[i].ID,
			events[i].Station,
			events[i].Overall.String(),
			events[i].Breach,
			events[i].Timestamp.UTC().Format(time.RFC3339Nano),
			storedAt,
			payload,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) pendingBatch(ctx context.Context, limit int) ([]domain.ClassifiedEvent, error) {
	rows, err := s.db.QueryContext(ctx, selectPendingSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ClassifiedEvent
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var event domain.ClassifiedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("decode spooled event: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

func (s *Store) markSynced(ctx context.Context, events []domain.ClassifiedEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, markSyncedSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range events {
		if _, err := stmt.ExecContext(ctx, events[i].ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// purge deletes synced events older than the retention window.
func (s *Store) purge(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.retention).Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, purgeSyncedSQL, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.metrics.SpoolPurged.Add(float64(n))
	}
	return n, nil
}

func (s *Store) updatePendingGauge(ctx context.Context) {
	pending, err := s.Pending(ctx)
	if err != nil {
		s.logger.Warn("count pending spool events failed", "error", err)
		return
	}
	s.metrics.SpoolPending.Set(float64(pending))
}

// open applies the SQLite settings the service needs to share the file
// between the pipeline and the drain loop: WAL for concurrent access and
// a busy timeout to ride out lock contention.
func open(path string) (*sql.DB, error) {
	dsn := path
	if !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
		dsn = "file:" + path
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open spool db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping spool db: %w", err)
	}
	return db, nil
}
