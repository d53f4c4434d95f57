package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Flyrell/logbook/internal/attendance"

	_ "modernc.org/sqlite"
)

// SQLite keeps settings and attendance in a SQLite database.
// Notifications only reach subscribers in the same process.
type SQLite struct {
	db  *sql.DB
	hub hub
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// A single connection keeps in-memory databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	s, err := NewSQLite(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLite wraps an open database and creates the schema if needed.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrating sqlite: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS settings (
		uid TEXT PRIMARY KEY,
		start_date TEXT NOT NULL,
		total_weeks INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS attendance (
		uid TEXT NOT NULL,
		date_key TEXT NOT NULL,
		time_in TEXT NOT NULL DEFAULT '',
		time_out TEXT NOT NULL DEFAULT '',
		activity TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (uid, date_key)
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *SQLite) GetSettings(ctx context.Context, uid string) (*Settings, error) {
	var doc settingsDoc
	err := s.db.QueryRowContext(ctx,
		`SELECT start_date, total_weeks FROM settings WHERE uid = ?`, uid,
	).Scan(&doc.StartDate, &doc.TotalWeeks)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromDoc(doc)
}

func (s *SQLite) SetSettings(ctx context.Context, uid string, st Settings) error {
	doc := toDoc(st)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (uid, start_date, total_weeks) VALUES (?, ?, ?)
		ON CONFLICT (uid) DO UPDATE SET start_date = excluded.start_date, total_weeks = excluded.total_weeks`,
		uid, doc.StartDate, doc.TotalWeeks,
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *SQLite) ReadAttendance(ctx context.Context, uid string, keys []string) (attendance.Snapshot, error) {
	snap := attendance.Snapshot{}
	if len(keys) == 0 {
		return snap, nil
	}

	args := make([]any, 0, len(keys)+1)
	args = append(args, uid)
	for _, k := range keys {
		args = append(args, k)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")

	rows, err := s.db.QueryContext(ctx, `
		SELECT date_key, time_in, time_out, activity, updated_at
		FROM attendance
		WHERE uid = ? AND date_key IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			key     string
			e       attendance.Entry
			updated int64
		)
		if err := rows.Scan(&key, &e.TimeIn, &e.TimeOut, &e.Activity, &updated); err != nil {
			return nil, err
		}
		e.UpdatedAt = time.Unix(0, updated)
		snap[key] = e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *SQLite) WriteAttendance(ctx context.Context, uid string, entries map[string]attendance.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	applied := attendance.Snapshot{}
	for key, e := range entries {
		if e.UpdatedAt.IsZero() {
			continue
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO attendance (uid, date_key, time_in, time_out, activity, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (uid, date_key) DO UPDATE SET
				time_in = excluded.time_in,
				time_out = excluded.time_out,
				activity = excluded.activity,
				updated_at = excluded.updated_at
			WHERE excluded.updated_at >= attendance.updated_at`,
			uid, key, e.TimeIn, e.TimeOut, e.Activity, e.UpdatedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("failed to write attendance for %s: %w", key, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			applied[key] = e
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.hub.publish(uid, applied)
	return nil
}

func (s *SQLite) Subscribe(_ context.Context, uid string, keys []string, fn SnapshotFunc) (func(), error) {
	return s.hub.add(uid, keys, fn), nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
