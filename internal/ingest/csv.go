package ingest

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/digital-native-cli/internal/model"
)

// ParseCompaniesCSV reads a CSV upload into company records.
func ParseCompaniesCSV(data []byte) ([]model.CompanyRecord, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ValidationError{Reason: eris.Wrap(err, "malformed CSV").Error()}
		}
		rows = append(rows, row)
	}

	return parseTable(rows)
}
