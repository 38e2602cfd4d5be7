package store

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/digital-native-cli/internal/model"
)

// itemColumns is the select list shared by both backends; the scan order in
// scanItem must match it.
const itemColumns = `id, batch_id, name, domain, industry, founded_year, employee_count, location, description, status, result, created_at, analyzed_at`

type scannable interface {
	Scan(dest ...any) error
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanItem(row scannable) (*model.AnalysisItem, error) {
	var it model.AnalysisItem
	var industry, employeeCount, location, description, resultJSON sql.NullString
	var foundedYear sql.NullInt64
	var status string
	var analyzedAt sql.NullTime

	err := row.Scan(
		&it.ID, &it.BatchID, &it.Name, &it.Domain,
		&industry, &foundedYear, &employeeCount, &location, &description,
		&status, &resultJSON, &it.CreatedAt, &analyzedAt,
	)
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan item")
	}

	it.Industry = industry.String
	it.EmployeeCount = employeeCount.String
	it.Location = location.String
	it.Description = description.String
	if foundedYear.Valid {
		year := int(foundedYear.Int64)
		it.FoundedYear = &year
	}
	it.Status = model.ItemStatus(status)
	if analyzedAt.Valid {
		at := analyzedAt.Time
		it.AnalyzedAt = &at
	}
	if resultJSON.Valid && resultJSON.String != "" {
		it.Result = &model.ScoreResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), it.Result); err != nil {
			return nil, eris.Wrap(err, "unmarshal score result")
		}
	}
	return &it, nil
}
