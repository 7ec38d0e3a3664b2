package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/dmaynor/bandicoot/internal/domain"
)

// RecordRepository implements domain.RecordRepository on a single-file
// SQLite database.
type RecordRepository struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating lazily on first write) the store file at path.
func Open(path string, logger *slog.Logger) (*RecordRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	// One writer, one process: a single connection avoids SQLITE_BUSY
	// between the schema check and the batch transaction.
	db.SetMaxOpenConns(1)

	return &RecordRepository{db: db, path: path, logger: logger}, nil
}

// Close releases the store file.
func (r *RecordRepository) Close() error {
	return r.db.Close()
}

const insertRecordSQL = `
INSERT INTO crash_logs (crash_time, process_name, exception_type, termination_reason, file_path, notation, log_content)
VALUES (?, ?, ?, ?, ?, ?, ?);
`

// Persist inserts every record whose FilePath is not already stored, in one
// transaction. Already-known paths are skipped silently; re-running over an
// unchanged directory is a no-op. An insert failure on one record (e.g. a
// concurrent run racing the same path) is isolated to that record.
func (r *RecordRepository) Persist(ctx context.Context, records []domain.CrashRecord) (int64, []domain.CrashRecord, error) {
	known, err := r.knownPaths(ctx)
	if err != nil {
		return 0, nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback is a no-op if Commit() is called

	stmt, err := tx.PrepareContext(ctx, insertRecordSQL)
	if err != nil {
		return 0, nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var added []domain.CrashRecord
	for _, rec := range records {
		if _, ok := known[rec.FilePath]; ok {
			continue
		}
		res, err := stmt.ExecContext(ctx,
			rec.CrashTime, rec.ProcessName, rec.ExceptionType,
			rec.TerminationReason, rec.FilePath, rec.Notation, rec.LogContent)
		if err != nil {
			r.logger.Warn("skipping record, insert failed", "path", rec.FilePath, "error", err)
			continue
		}
		if id, err := res.LastInsertId(); err == nil {
			rec.ID = id
		}
		known[rec.FilePath] = struct{}{}
		added = append(added, rec)
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("commit batch: %w", err)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM crash_logs;`).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("count records: %w", err)
	}
	return total, added, nil
}

func (r *RecordRepository) knownPaths(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT file_path FROM crash_logs;`)
	if err != nil {
		return nil, fmt.Errorf("read known paths: %w", err)
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan known path: %w", err)
		}
		known[path] = struct{}{}
	}
	return known, rows.Err()
}

// ListRecords returns every stored record, oldest first. This is the read
// half of the surface consumed by the external viewer.
func (r *RecordRepository) ListRecords(ctx context.Context) ([]domain.CrashRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, crash_time, process_name, exception_type, termination_reason, file_path, notation, log_content
FROM crash_logs ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []domain.CrashRecord
	for rows.Next() {
		var (
			rec     domain.CrashRecord
			content sql.NullString
		)
		// Rows migrated from a store predating log_content hold NULL there:
		// the additive ALTER carries no default for that column.
		if err := rows.Scan(&rec.ID, &rec.CrashTime, &rec.ProcessName, &rec.ExceptionType,
			&rec.TerminationReason, &rec.FilePath, &rec.Notation, &content); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.LogContent = content.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateNotation sets the notation of the record identified by id. It is the
// only mutation exposed to the external viewer.
func (r *RecordRepository) UpdateNotation(ctx context.Context, id int64, notation string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE crash_logs SET notation = ? WHERE id = ?;`, notation, id)
	if err != nil {
		return fmt.Errorf("update notation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update notation: %w", err)
	}
	if n == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}
