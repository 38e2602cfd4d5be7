package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/digital-native-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS company_analyses (
	id             TEXT PRIMARY KEY,
	batch_id       TEXT NOT NULL,
	name           TEXT NOT NULL,
	domain         TEXT NOT NULL,
	industry       TEXT,
	founded_year   INTEGER,
	employee_count TEXT,
	location       TEXT,
	description    TEXT,
	status         TEXT NOT NULL DEFAULT 'pending',
	result         TEXT,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	analyzed_at    DATETIME
);

CREATE INDEX IF NOT EXISTS idx_company_analyses_batch_id ON company_analyses(batch_id);
CREATE INDEX IF NOT EXISTS idx_company_analyses_status ON company_analyses(batch_id, status);
CREATE INDEX IF NOT EXISTS idx_company_analyses_created_at ON company_analyses(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertItems(ctx context.Context, items []model.AnalysisItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin insert items")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO company_analyses
		 (id, batch_id, name, domain, industry, founded_year, employee_count, location, description, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert item")
	}
	defer stmt.Close()

	for _, it := range items {
		var founded any
		if it.FoundedYear != nil {
			founded = *it.FoundedYear
		}
		if _, err := stmt.ExecContext(ctx,
			it.ID, it.BatchID, it.Name, it.Domain,
			nullIfEmpty(it.Industry), founded, nullIfEmpty(it.EmployeeCount),
			nullIfEmpty(it.Location), nullIfEmpty(it.Description),
			string(it.Status), it.CreatedAt,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert item %s", it.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit insert items")
}

func (s *SQLiteStore) UpdateItemStatus(ctx context.Context, itemID string, status model.ItemStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE company_analyses SET status = ? WHERE id = ?`,
		string(status), itemID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update item status %s", itemID)
	}
	return checkRowsAffected(res, itemID)
}

func (s *SQLiteStore) CompleteItem(ctx context.Context, itemID string, result *model.ScoreResult, analyzedAt time.Time) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE company_analyses SET status = ?, result = ?, analyzed_at = ? WHERE id = ?`,
		string(model.StatusCompleted), string(resultJSON), analyzedAt, itemID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete item %s", itemID)
	}
	return checkRowsAffected(res, itemID)
}

func (s *SQLiteStore) FailItem(ctx context.Context, itemID string, analyzedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE company_analyses SET status = ?, analyzed_at = ? WHERE id = ?`,
		string(model.StatusError), analyzedAt, itemID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail item %s", itemID)
	}
	return checkRowsAffected(res, itemID)
}

func (s *SQLiteStore) GetItem(ctx context.Context, itemID string) (*model.AnalysisItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM company_analyses WHERE id = ?`,
		itemID,
	)
	return scanItem(row)
}

func (s *SQLiteStore) ListByBatch(ctx context.Context, batchID string) ([]model.AnalysisItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM company_analyses WHERE batch_id = ? ORDER BY created_at, id`,
		batchID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list by batch")
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]model.AnalysisItem, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM company_analyses ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list recent")
	}
	defer rows.Close()
	return scanItems(rows)
}

func (s *SQLiteStore) CountByBatch(ctx context.Context, batchID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM company_analyses WHERE batch_id = ?`,
		batchID,
	).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count by batch")
}

func (s *SQLiteStore) CountByBatchStatus(ctx context.Context, batchID string, statuses ...model.ItemStatus) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	args := make([]any, 0, len(statuses)+1)
	args = append(args, batchID)
	for _, st := range statuses {
		args = append(args, string(st))
	}

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM company_analyses WHERE batch_id = ? AND status IN (`+placeholders+`)`,
		args...,
	).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count by batch status")
}

func (s *SQLiteStore) DeleteBatch(ctx context.Context, batchID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM company_analyses WHERE batch_id = ?`,
		batchID,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete batch")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func checkRowsAffected(res sql.Result, itemID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "item %s", itemID)
	}
	return nil
}

func scanItems(rows *sql.Rows) ([]model.AnalysisItem, error) {
	var items []model.AnalysisItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, eris.Wrap(rows.Err(), "iterate items")
}
