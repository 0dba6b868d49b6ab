package progress

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/torahtrack/internal/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS progress (
	reading_title  TEXT    NOT NULL,
	aliyah_number  INTEGER NOT NULL,
	is_complete    INTEGER NOT NULL,
	date_completed TEXT,
	PRIMARY KEY (reading_title, aliyah_number)
)`

// SQLiteBackend stores progress in a single SQLite table.
type SQLiteBackend struct {
	db *sql.DB
}

func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create progress dir: %w", err)
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open progress db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create progress table: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) ReadAll() (map[Key]Record, error) {
	rows, err := b.db.Query(`SELECT reading_title, aliyah_number, is_complete, date_completed FROM progress`)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	out := make(map[Key]Record)
	for rows.Next() {
		var (
			k        Key
			complete bool
			date     sql.NullString
		)
		if err := rows.Scan(&k.Title, &k.Number, &complete, &date); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		rec := Record{IsComplete: complete}
		if date.Valid && date.String != "" {
			ts, err := parseTime(date.String)
			if err != nil {
				return nil, fmt.Errorf("progress %s/%d: %w", k.Title, k.Number, err)
			}
			rec.DateCompleted = &ts
		}
		out[k] = rec
	}
	return out, rows.Err()
}

// WriteAll replaces the table contents in one transaction.
func (b *SQLiteBackend) WriteAll(m map[Key]Record) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM progress`); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO progress (reading_title, aliyah_number, is_complete, date_completed) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, k := range sortedKeys(m) {
		rec := m[k]
		var date sql.NullString
		if rec.DateCompleted != nil {
			date = sql.NullString{String: rec.DateCompleted.UTC().Format(time.RFC3339), Valid: true}
		}
		if _, err := stmt.Exec(k.Title, k.Number, rec.IsComplete, date); err != nil {
			return fmt.Errorf("insert %s/%d: %w", k.Title, k.Number, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
