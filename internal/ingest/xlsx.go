package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/digital-native-cli/internal/model"
)

// ParseCompaniesXLSX reads the first sheet of an XLSX upload into company
// records.
func ParseCompaniesXLSX(data []byte) ([]model.CompanyRecord, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, &ValidationError{Reason: eris.Wrap(err, "malformed XLSX").Error()}
	}
	if len(f.Sheets) == 0 {
		return nil, &ValidationError{Reason: "workbook has no sheets"}
	}

	sheet := f.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		rows = append(rows, rowToStrings(row))
	}

	return parseTable(rows)
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}
