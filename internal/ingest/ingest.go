// Package ingest parses uploaded tabular data into company records.
package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sells-group/digital-native-cli/internal/model"
)

// Required header columns, matched exactly (case-sensitive).
var requiredColumns = []string{"name", "domain"}

// ValidationError describes a malformed upload. It is surfaced synchronously
// to the caller; no batch is created when ingestion fails.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "ingest: " + e.Reason
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// parseTable converts a header row plus data rows into company records.
// Optional columns map blank cells to absent values; rows missing a name or
// domain are skipped.
func parseTable(rows [][]string) ([]model.CompanyRecord, error) {
	if len(rows) == 0 {
		return nil, validationErrorf("file is empty")
	}

	header := rows[0]
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.TrimSpace(col)] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, validationErrorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	if len(rows) < 2 {
		return nil, validationErrorf("file has no data rows")
	}

	var records []model.CompanyRecord
	for _, row := range rows[1:] {
		name := getCol(row, colIdx, "name")
		domain := getCol(row, colIdx, "domain")
		if name == "" || domain == "" {
			continue
		}

		rec := model.CompanyRecord{
			Name:          name,
			Domain:        domain,
			Industry:      getCol(row, colIdx, "industry"),
			EmployeeCount: getCol(row, colIdx, "employee_count"),
			Location:      getCol(row, colIdx, "location"),
			Description:   getCol(row, colIdx, "description"),
		}

		// Non-numeric founded_year cells map to absent, not an error.
		if raw := getCol(row, colIdx, "founded_year"); raw != "" {
			if year, err := strconv.Atoi(raw); err == nil {
				rec.FoundedYear = &year
			}
		}

		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, validationErrorf("no valid companies found")
	}

	return records, nil
}

// getCol safely retrieves a column value from a row.
func getCol(row []string, colIdx map[string]int, col string) string {
	idx, ok := colIdx[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
