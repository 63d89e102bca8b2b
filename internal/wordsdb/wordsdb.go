// internal/wordsdb/wordsdb.go
//
// SQLite-backed storage for the guess and solution word lists.
// Responsibilities:
//   - Opening SQLite with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - Importing both lists in one transaction and reading them back in order.
//
// The database is a dictionary source only; solver sessions are never stored here.

package wordsdb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	listGuesses   = "guesses"
	listSolutions = "solutions"
)

// ErrEmpty is returned by Load when the database holds no solutions.
var ErrEmpty = errors.New("wordsdb: no solutions stored")

// Open opens (and creates if missing) a SQLite database file.
//
//   - Ensures the parent directory exists for relative DSNs (e.g. ./data/words.db).
//   - Configures busy timeout and WAL journaling mode.
//   - Enforces foreign keys.
func Open(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded migrations in lexical order.
// Each file runs in its own transaction and is recorded in _migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := migrationsFS.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// Import replaces both stored lists with the given ones, preserving order.
// source is a free-form description kept in the meta table.
func Import(ctx context.Context, db *sql.DB, guesses, solutions []string, source string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM words`); err != nil {
		return fmt.Errorf("clear words: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO words (list, position, word) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range []struct {
		name  string
		words []string
	}{{listGuesses, guesses}, {listSolutions, solutions}} {
		for i, w := range l.words {
			if _, err := stmt.ExecContext(ctx, l.name, i, w); err != nil {
				return fmt.Errorf("insert %s[%d]: %w", l.name, i, err)
			}
		}
	}

	meta := map[string]string{
		"source":      source,
		"imported_at": time.Now().UTC().Format(time.RFC3339),
		"guesses":     strconv.Itoa(len(guesses)),
		"solutions":   strconv.Itoa(len(solutions)),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO meta (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value=excluded.value`, k, v); err != nil {
			return fmt.Errorf("write meta %s: %w", k, err)
		}
	}
	return tx.Commit()
}

// Load reads both lists back in their stored order.
func Load(ctx context.Context, db *sql.DB) (guesses, solutions []string, err error) {
	if guesses, err = loadList(ctx, db, listGuesses); err != nil {
		return nil, nil, err
	}
	if solutions, err = loadList(ctx, db, listSolutions); err != nil {
		return nil, nil, err
	}
	if len(solutions) == 0 {
		return nil, nil, ErrEmpty
	}
	return guesses, solutions, nil
}

func loadList(ctx context.Context, db *sql.DB, list string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT word FROM words WHERE list=? ORDER BY position ASC`, list)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", list, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Meta returns the bookkeeping values written by the last Import.
func Meta(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}
