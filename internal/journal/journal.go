// Package journal keeps an append-only SQLite log of generation events.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/tn/internal/generator"
	"git.home.luguber.info/inful/tn/internal/logfields"
)

// Event types recorded in addition to the generator's page events.
const (
	TypeBatchStarted   = "batch_started"
	TypeBatchCompleted = "batch_completed"
)

var (
	ErrOpen   = errors.New("could not open journal database")
	ErrSchema = errors.New("failed to initialize journal schema")
	ErrAppend = errors.New("failed to append journal entry")
	ErrQuery  = errors.New("failed to query journal")
)

// Entry is one journal row.
type Entry struct {
	ID          int64
	BatchID     string
	Type        string
	Source      string
	Output      string
	Hash        string
	Fingerprint string
	Error       string
	Detail      map[string]string
	Time        time.Time
}

// Journal implements an event log on SQLite.
type Journal struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the journal at path. Use ":memory:" for an
// in-memory database.
func Open(path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOpen, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	// An in-memory database lives per connection.
	db.SetMaxOpenConns(1)

	j := &Journal{db: db}
	if err := j.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}
	return j, nil
}

func (j *Journal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		output TEXT NOT NULL DEFAULT '',
		hash TEXT NOT NULL DEFAULT '',
		fingerprint TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		detail TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_entries_batch ON entries(batch_id);
	CREATE INDEX IF NOT EXISTS idx_entries_timestamp ON entries(timestamp);
	CREATE INDEX IF NOT EXISTS idx_entries_source ON entries(source);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Append stores e. A zero Time is replaced with the current time.
func (j *Journal) Append(ctx context.Context, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var detail []byte
	if len(e.Detail) > 0 {
		var err error
		if detail, err = json.Marshal(e.Detail); err != nil {
			return fmt.Errorf("%w: marshal detail: %w", ErrAppend, err)
		}
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO entries (batch_id, event_type, timestamp, source, output, hash, fingerprint, error, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.BatchID, e.Type, e.Time.UnixMilli(), e.Source, e.Output, e.Hash, e.Fingerprint, e.Error, detail,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAppend, err)
	}
	return nil
}

const selectEntries = `SELECT id, batch_id, event_type, timestamp, source, output, hash, fingerprint, error, detail FROM entries`

// ByBatch returns every entry of one batch in insertion order.
func (j *Journal) ByBatch(ctx context.Context, batchID string) ([]Entry, error) {
	return j.query(ctx, selectEntries+" WHERE batch_id = ? ORDER BY id", batchID)
}

// BySource returns the history of one source document, oldest first.
func (j *Journal) BySource(ctx context.Context, source string) ([]Entry, error) {
	return j.query(ctx, selectEntries+" WHERE source = ? ORDER BY id", source)
}

// Range returns entries recorded between start and end inclusive.
func (j *Journal) Range(ctx context.Context, start, end time.Time) ([]Entry, error) {
	return j.query(ctx, selectEntries+" WHERE timestamp >= ? AND timestamp <= ? ORDER BY id", start.UnixMilli(), end.UnixMilli())
}

func (j *Journal) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		var detail []byte
		if err := rows.Scan(&e.ID, &e.BatchID, &e.Type, &ts, &e.Source, &e.Output, &e.Hash, &e.Fingerprint, &e.Error, &detail); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", ErrQuery, err)
		}
		e.Time = time.UnixMilli(ts)
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &e.Detail); err != nil {
				return nil, fmt.Errorf("%w: unmarshal detail: %w", ErrQuery, err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return entries, nil
}

// BatchStarted records the start of a batch.
func (j *Journal) BatchStarted(ctx context.Context, batchID, reason string, paths int) error {
	return j.Append(ctx, Entry{
		BatchID: batchID,
		Type:    TypeBatchStarted,
		Detail:  map[string]string{"reason": reason, "paths": fmt.Sprint(paths)},
	})
}

// BatchCompleted records the outcome of a batch.
func (j *Journal) BatchCompleted(ctx context.Context, batchID string, res generator.Result, batchErr error) error {
	e := Entry{
		BatchID: batchID,
		Type:    TypeBatchCompleted,
		Detail: map[string]string{
			"rendered":     fmt.Sprint(res.Rendered),
			"skipped":      fmt.Sprint(res.Skipped),
			"failed":       fmt.Sprint(res.Failed),
			"full_rebuild": fmt.Sprint(res.FullRebuild),
			"duration_ms":  fmt.Sprint(res.Duration.Milliseconds()),
		},
	}
	if batchErr != nil {
		e.Error = batchErr.Error()
	}
	return j.Append(ctx, e)
}

// Observe implements generator.Observer. Failures are logged, never propagated.
func (j *Journal) Observe(ev generator.Event) {
	err := j.Append(context.Background(), Entry{
		BatchID:     ev.BatchID,
		Type:        string(ev.Type),
		Source:      ev.Source,
		Output:      ev.Output,
		Hash:        ev.Hash,
		Fingerprint: ev.Fingerprint,
		Error:       ev.Error,
		Time:        ev.Time,
	})
	if err != nil {
		slog.Warn("Journal append failed", logfields.BatchID(ev.BatchID), logfields.Path(ev.Source), logfields.Error(err))
	}
}

// Close closes the database connection.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}
