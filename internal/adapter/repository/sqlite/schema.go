package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS crash_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    crash_time TEXT,
    process_name TEXT,
    exception_type TEXT,
    termination_reason TEXT,
    file_path TEXT UNIQUE,
    notation TEXT DEFAULT '',
    log_content TEXT
);
`

// migrations are the additive column migrations applied to stores created
// by older schema versions. Columns are only ever added, never dropped or
// renamed, so existing rows survive every upgrade.
var migrations = []struct {
	column string
	ddl    string
}{
	{"notation", `ALTER TABLE crash_logs ADD COLUMN notation TEXT DEFAULT '';`},
	{"log_content", `ALTER TABLE crash_logs ADD COLUMN log_content TEXT;`},
}

// EnsureSchema creates the crash_logs table if absent and adds any columns
// missing from an older store. Idempotent: each additive migration is gated
// on a column-presence check, so repeated startups never attempt a
// duplicate ALTER. Any failure here is fatal to the caller; continuing on
// an inconsistent schema risks silent data loss.
func (r *RecordRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create crash_logs table: %w", err)
	}

	for _, m := range migrations {
		present, err := r.hasColumn(ctx, m.column)
		if err != nil {
			return err
		}
		if present {
			continue
		}
		r.logger.Info("migrating store schema", "adding_column", m.column)
		if _, err := r.db.ExecContext(ctx, m.ddl); err != nil {
			return fmt.Errorf("add column %s: %w", m.column, err)
		}
	}

	// The store file exists after the CREATE above; lock it down to the
	// owner before any records land in it.
	if err := os.Chmod(r.path, 0o600); err != nil {
		return fmt.Errorf("restrict store permissions: %w", err)
	}
	return nil
}

func (r *RecordRepository) hasColumn(ctx context.Context, column string) (bool, error) {
	rows, err := r.db.QueryContext(ctx, `PRAGMA table_info(crash_logs);`)
	if err != nil {
		return false, fmt.Errorf("inspect crash_logs schema: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return false, fmt.Errorf("scan crash_logs schema: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
