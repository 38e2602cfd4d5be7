package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/digital-native-cli/internal/db"
	"github.com/sells-group/digital-native-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the per-item status writes on the hot path.
var preparedStatements = map[string]string{
	"update_item_status": `UPDATE company_analyses SET status = $1 WHERE id = $2`,
	"complete_item":      `UPDATE company_analyses SET status = $1, result = $2, analyzed_at = $3 WHERE id = $4`,
	"fail_item":          `UPDATE company_analyses SET status = $1, analyzed_at = $2 WHERE id = $3`,
	"get_item":           `SELECT ` + itemColumns + ` FROM company_analyses WHERE id = $1`,
	"count_by_batch":     `SELECT COUNT(*) FROM company_analyses WHERE batch_id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
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
	result         JSONB,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	analyzed_at    TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_company_analyses_batch_id ON company_analyses(batch_id);
CREATE INDEX IF NOT EXISTS idx_company_analyses_status ON company_analyses(batch_id, status);
CREATE INDEX IF NOT EXISTS idx_company_analyses_created_at ON company_analyses(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// insertColumns is the column order used by the COPY bulk insert.
var insertColumns = []string{
	"id", "batch_id", "name", "domain", "industry", "founded_year",
	"employee_count", "location", "description", "status", "created_at",
}

func (s *PostgresStore) InsertItems(ctx context.Context, items []model.AnalysisItem) error {
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		var founded any
		if it.FoundedYear != nil {
			founded = *it.FoundedYear
		}
		rows = append(rows, []any{
			it.ID, it.BatchID, it.Name, it.Domain,
			nullIfEmpty(it.Industry), founded, nullIfEmpty(it.EmployeeCount),
			nullIfEmpty(it.Location), nullIfEmpty(it.Description),
			string(it.Status), it.CreatedAt,
		})
	}

	_, err := db.CopyFrom(ctx, s.pool, "company_analyses", insertColumns, rows)
	return eris.Wrap(err, "postgres: insert items")
}

func (s *PostgresStore) UpdateItemStatus(ctx context.Context, itemID string, status model.ItemStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE company_analyses SET status = $1 WHERE id = $2`,
		string(status), itemID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update item status %s", itemID)
	}
	return checkTag(tag, itemID)
}

func (s *PostgresStore) CompleteItem(ctx context.Context, itemID string, result *model.ScoreResult, analyzedAt time.Time) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE company_analyses SET status = $1, result = $2, analyzed_at = $3 WHERE id = $4`,
		string(model.StatusCompleted), string(resultJSON), analyzedAt, itemID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete item %s", itemID)
	}
	return checkTag(tag, itemID)
}

func (s *PostgresStore) FailItem(ctx context.Context, itemID string, analyzedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE company_analyses SET status = $1, analyzed_at = $2 WHERE id = $3`,
		string(model.StatusError), analyzedAt, itemID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail item %s", itemID)
	}
	return checkTag(tag, itemID)
}

func (s *PostgresStore) GetItem(ctx context.Context, itemID string) (*model.AnalysisItem, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM company_analyses WHERE id = $1`,
		itemID,
	)
	return scanItem(row)
}

func (s *PostgresStore) ListByBatch(ctx context.Context, batchID string) ([]model.AnalysisItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM company_analyses WHERE batch_id = $1 ORDER BY created_at, id`,
		batchID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list by batch")
	}
	defer rows.Close()
	return collectItems(rows)
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]model.AnalysisItem, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM company_analyses ORDER BY created_at DESC, id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list recent")
	}
	defer rows.Close()
	return collectItems(rows)
}

func (s *PostgresStore) CountByBatch(ctx context.Context, batchID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM company_analyses WHERE batch_id = $1`,
		batchID,
	).Scan(&n)
	return n, eris.Wrap(err, "postgres: count by batch")
}

func (s *PostgresStore) CountByBatchStatus(ctx context.Context, batchID string, statuses ...model.ItemStatus) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}

	strs := make([]string, len(statuses))
	for i, st := range statuses {
		strs[i] = string(st)
	}

	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM company_analyses WHERE batch_id = $1 AND status = ANY($2)`,
		batchID, strs,
	).Scan(&n)
	return n, eris.Wrap(err, "postgres: count by batch status")
}

func (s *PostgresStore) DeleteBatch(ctx context.Context, batchID string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM company_analyses WHERE batch_id = $1`,
		batchID,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete batch")
	}
	return int(tag.RowsAffected()), nil
}

// helpers

func checkTag(tag pgconn.CommandTag, itemID string) error {
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "item %s", itemID)
	}
	return nil
}

func collectItems(rows pgx.Rows) ([]model.AnalysisItem, error) {
	var items []model.AnalysisItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, eris.Wrap(rows.Err(), "postgres: iterate items")
}
