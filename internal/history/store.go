// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a local SQLite ledger of export runs so a user can
// see what was exported, with which options, and whether it succeeded.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/model-export/pkg/types"
)

const dbFile = "exports.db"

// timeLayout is fixed width so started_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("no export record found")

// Store manages the export ledger database.
type Store struct {
	db  *sql.DB
	dir string
}

// Open opens or creates the ledger at dir/exports.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the directory holding the ledger.
func (s *Store) Dir() string { return s.dir }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS exports (
			id TEXT PRIMARY KEY,
			checkpoint TEXT NOT NULL,
			checkpoint_sha256 TEXT,
			artifact TEXT,
			artifact_size INTEGER,
			format TEXT NOT NULL,
			opset INTEGER,
			dynamic INTEGER,
			imgsz INTEGER,
			backend TEXT,
			status TEXT NOT NULL,
			error TEXT,
			hostname TEXT,
			platform TEXT,
			arch TEXT,
			started_at TEXT NOT NULL,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exports_checkpoint ON exports(checkpoint)`,
		`CREATE INDEX IF NOT EXISTS idx_exports_started_at ON exports(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts rec, replacing any record with the same ID.
func (s *Store) Record(ctx context.Context, rec types.ExportRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO exports (
			id, checkpoint, checkpoint_sha256, artifact, artifact_size,
			format, opset, dynamic, imgsz, backend, status, error,
			hostname, platform, arch, started_at, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Checkpoint, rec.CheckpointSHA256, rec.Artifact, rec.ArtifactSize,
		string(rec.Options.Format), rec.Options.Opset, rec.Options.Dynamic, rec.Options.ImgSize,
		string(rec.Backend), string(rec.Status), rec.Error,
		rec.Host.Hostname, rec.Host.Platform, rec.Host.Arch,
		rec.StartedAt.UTC().Format(timeLayout), rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("recording export %s: %w", rec.ID, err)
	}
	return nil
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Checkpoint string
	Status     types.ExportStatus
	Limit      int
}

const selectColumns = `SELECT id, checkpoint, checkpoint_sha256, artifact, artifact_size,
	format, opset, dynamic, imgsz, backend, status, error,
	hostname, platform, arch, started_at, duration_ms FROM exports`

// List returns matching records, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]types.ExportRecord, error) {
	query := selectColumns + ` WHERE (? = '' OR checkpoint = ?) AND (? = '' OR status = ?)
		ORDER BY started_at DESC`
	args := []any{f.Checkpoint, f.Checkpoint, string(f.Status), string(f.Status)}
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying exports: %w", err)
	}
	defer rows.Close()

	var recs []types.ExportRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating exports: %w", err)
	}
	return recs, nil
}

// Latest returns the most recent record for checkpoint.
func (s *Store) Latest(ctx context.Context, checkpoint string) (types.ExportRecord, error) {
	recs, err := s.List(ctx, Filter{Checkpoint: checkpoint, Limit: 1})
	if err != nil {
		return types.ExportRecord{}, err
	}
	if len(recs) == 0 {
		return types.ExportRecord{}, fmt.Errorf("%w for %s", ErrNotFound, checkpoint)
	}
	return recs[0], nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (types.ExportRecord, error) {
	var (
		rec                           types.ExportRecord
		sha, artifact, errMsg         sql.NullString
		backend, host, platform, arch sql.NullString
		format, status, startedAt     string
		size, durationMS              sql.NullInt64
		opset, imgsz                  sql.NullInt64
		dynamic                       sql.NullBool
	)
	err := row.Scan(
		&rec.ID, &rec.Checkpoint, &sha, &artifact, &size,
		&format, &opset, &dynamic, &imgsz, &backend, &status, &errMsg,
		&host, &platform, &arch, &startedAt, &durationMS,
	)
	if err != nil {
		return rec, fmt.Errorf("scanning export row: %w", err)
	}

	rec.CheckpointSHA256 = sha.String
	rec.Artifact = artifact.String
	rec.ArtifactSize = size.Int64
	rec.Options = types.ExportOptions{
		Format:  types.ExportFormat(format),
		Opset:   int(opset.Int64),
		Dynamic: dynamic.Bool,
		ImgSize: int(imgsz.Int64),
	}
	rec.Backend = types.ExportBackend(backend.String)
	rec.Status = types.ExportStatus(status)
	rec.Error = errMsg.String
	rec.Host = types.HostInfo{Hostname: host.String, Platform: platform.String, Arch: arch.String}
	rec.Duration = time.Duration(durationMS.Int64) * time.Millisecond

	t, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return rec, fmt.Errorf("parsing started_at %q: %w", startedAt, err)
	}
	rec.StartedAt = t
	return rec, nil
}
