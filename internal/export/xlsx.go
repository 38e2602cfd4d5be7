// Package export renders completed analyses as XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/digital-native-cli/internal/model"
)

const sheetName = "Digital Native Analysis"

var headerColumns = []string{
	"Company Name",
	"Domain",
	"Industry",
	"Founded Year",
	"Employee Count",
	"Location",
	"Digital Native Score (%)",
	"Is Digital Native",
	"Digital Native Reasoning",
	"Incident Fit Score (%)",
	"Incident Fit Reasoning",
	"Analysis Status",
	"Analyzed At",
}

// Workbook builds an XLSX workbook with one row per analyzed item, in the
// order given.
func Workbook(items []model.AnalysisItem) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return nil, eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range headerColumns {
		cell := header.AddCell()
		cell.SetString(col)
		style := cell.GetStyle()
		style.Font.Bold = true
	}

	for _, item := range items {
		writeItemRow(sheet.AddRow(), item)
	}

	return f, nil
}

// Write renders the workbook for items to w.
func Write(w io.Writer, items []model.AnalysisItem) error {
	f, err := Workbook(items)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

func writeItemRow(row *xlsx.Row, item model.AnalysisItem) {
	row.AddCell().SetString(item.Name)
	row.AddCell().SetString(item.Domain)
	row.AddCell().SetString(item.Industry)

	if item.FoundedYear != nil {
		row.AddCell().SetString(fmt.Sprintf("%d", *item.FoundedYear))
	} else {
		row.AddCell().SetString("")
	}

	row.AddCell().SetString(item.EmployeeCount)
	row.AddCell().SetString(item.Location)

	if item.Result != nil {
		row.AddCell().SetString(formatScore(item.Result.DigitalNativeScore))
		row.AddCell().SetString(formatBool(item.Result.IsDigitalNative))
		row.AddCell().SetString(item.Result.DigitalNativeReasoning)
		row.AddCell().SetString(formatScore(item.Result.IncidentFitScore))
		row.AddCell().SetString(item.Result.IncidentFitReasoning)
	} else {
		for i := 0; i < 5; i++ {
			row.AddCell().SetString("")
		}
	}

	row.AddCell().SetString(string(item.Status))

	if item.AnalyzedAt != nil {
		row.AddCell().SetString(item.AnalyzedAt.UTC().Format(time.RFC3339))
	} else {
		row.AddCell().SetString("")
	}
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.1f", score)
}

func formatBool(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
