// Package sqlitestore persists capture records in SQLite.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-locals/pkg/state"
	_ "modernc.org/sqlite"
)

// Store is a state.Store backed by a SQLite database.
type Store struct {
	sqlDB *sql.DB
}

var _ state.Store = (*Store)(nil)

// Open opens and migrates a record store at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := runMigrations(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Append inserts record. Appending an id twice replaces the stored payload
// but keeps its original position in the session.
func (s *Store) Append(ctx context.Context, record state.Record) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	record.ID = strings.TrimSpace(record.ID)
	record.Session = strings.TrimSpace(record.Session)
	record.Frame = strings.TrimSpace(record.Frame)
	if record.ID == "" {
		return state.ErrRecordIDRequired
	}
	if record.Session == "" {
		return state.ErrSessionRequired
	}
	if record.CapturedAt.IsZero() {
		record.CapturedAt = time.Now().UTC()
	}

	names, err := encodeNames(record.Names)
	if err != nil {
		return fmt.Errorf("encode names: %w", err)
	}
	dropped, err := encodeNames(record.Dropped)
	if err != nil {
		return fmt.Errorf("encode dropped: %w", err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO locals_records (
		    id, session, frame, names_json, dropped_json, locals, globals, captured_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		    session = excluded.session,
		    frame = excluded.frame,
		    names_json = excluded.names_json,
		    dropped_json = excluded.dropped_json,
		    locals = excluded.locals,
		    globals = excluded.globals,
		    captured_at = excluded.captured_at`,
		record.ID,
		record.Session,
		record.Frame,
		names,
		dropped,
		record.Locals,
		record.Globals,
		timeToUnixMillis(record.CapturedAt),
	)
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// Latest loads the newest record of ref's frame.
func (s *Store) Latest(ctx context.Context, ref state.Ref) (state.Record, bool, error) {
	if s == nil || s.sqlDB == nil {
		return state.Record{}, false, fmt.Errorf("storage is not configured")
	}
	if _, err := ref.Identifier(); err != nil {
		return state.Record{}, false, err
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, session, frame, names_json, dropped_json, locals, globals, captured_at
		 FROM locals_records
		 WHERE session = ? AND frame = ?
		 ORDER BY seq DESC
		 LIMIT 1`,
		strings.TrimSpace(ref.Session),
		strings.TrimSpace(ref.Frame),
	)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return state.Record{}, false, nil
		}
		return state.Record{}, false, fmt.Errorf("get latest record: %w", err)
	}
	return record, true, nil
}

// List returns the records of session in append order.
func (s *Store) List(ctx context.Context, session string) ([]state.Record, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	session = strings.TrimSpace(session)
	if session == "" {
		return nil, state.ErrSessionRequired
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, session, frame, names_json, dropped_json, locals, globals, captured_at
		 FROM locals_records
		 WHERE session = ?
		 ORDER BY seq ASC`,
		session,
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := make([]state.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (state.Record, error) {
	var (
		record     state.Record
		names      string
		dropped    string
		capturedAt int64
	)
	if err := row.Scan(
		&record.ID,
		&record.Session,
		&record.Frame,
		&names,
		&dropped,
		&record.Locals,
		&record.Globals,
		&capturedAt,
	); err != nil {
		return state.Record{}, err
	}
	var err error
	if record.Names, err = decodeNames(names); err != nil {
		return state.Record{}, fmt.Errorf("decode names: %w", err)
	}
	if record.Dropped, err = decodeNames(dropped); err != nil {
		return state.Record{}, fmt.Errorf("decode dropped: %w", err)
	}
	record.CapturedAt = unixMillisToTime(capturedAt)
	return record, nil
}

func encodeNames(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	raw, err := json.Marshal(names)
	return string(raw), err
}

func decodeNames(raw string) ([]string, error) {
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}
	return names, nil
}

func timeToUnixMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func unixMillisToTime(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}
