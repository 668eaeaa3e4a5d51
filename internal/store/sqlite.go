package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dshills/vulnscout/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id            TEXT PRIMARY KEY,
	repo          TEXT NOT NULL DEFAULT '',
	pr_number     INTEGER,
	filename      TEXT NOT NULL DEFAULT '',
	language      TEXT NOT NULL DEFAULT '',
	code_hash     TEXT NOT NULL,
	findings      TEXT NOT NULL,
	risk_score    REAL NOT NULL,
	provider      TEXT NOT NULL,
	created_at    INTEGER NOT NULL,
	scan_duration INTEGER NOT NULL,
	status        TEXT NOT NULL,
	error         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_scans_repo ON scans(repo);
`

const scanColumns = `id, repo, pr_number, filename, language, code_hash, findings,
	risk_score, provider, created_at, scan_duration, status, error`

// SQLite is a durable Store.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and migrates) the database at path. ":memory:" is
// accepted for tests.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "vulnscout.db"
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Insert(ctx context.Context, scan *model.Scan) error {
	findings := scan.Findings
	if findings == nil {
		findings = []model.Finding{}
	}
	blob, err := json.Marshal(findings)
	if err != nil {
		return fmt.Errorf("encoding findings: %w", err)
	}

	var pr sql.NullInt64
	if scan.PRNumber != nil {
		pr = sql.NullInt64{Int64: int64(*scan.PRNumber), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO scans (`+scanColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scan.ID, scan.Repo, pr, scan.Filename, scan.Language, scan.CodeHash, string(blob),
		scan.RiskScore, scan.Provider, scan.Timestamp.UnixNano(), scan.ScanDuration,
		string(scan.Status), scan.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting scan %s: %w", scan.ID, err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context, limit int) ([]model.Scan, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+scanColumns+` FROM scans ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	defer rows.Close()

	scans := []model.Scan{}
	for rows.Next() {
		sc, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, *sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	return scans, nil
}

func (s *SQLite) Get(ctx context.Context, id string) (*model.Scan, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scanColumns+` FROM scans WHERE id = ?`, id)
	sc, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sc, err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(r rowScanner) (*model.Scan, error) {
	var (
		sc      model.Scan
		pr      sql.NullInt64
		blob    string
		created int64
		status  string
	)
	err := r.Scan(&sc.ID, &sc.Repo, &pr, &sc.Filename, &sc.Language, &sc.CodeHash, &blob,
		&sc.RiskScore, &sc.Provider, &created, &sc.ScanDuration, &status, &sc.Error)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("reading scan row: %w", err)
	}
	if pr.Valid {
		n := int(pr.Int64)
		sc.PRNumber = &n
	}
	if err := json.Unmarshal([]byte(blob), &sc.Findings); err != nil {
		return nil, fmt.Errorf("decoding findings of %s: %w", sc.ID, err)
	}
	sc.Timestamp = time.Unix(0, created).UTC()
	sc.Status = model.Status(status)
	return &sc, nil
}
