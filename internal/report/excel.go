// Package report renders a document's detection results as an Excel
// workbook for hand-off to reviewers.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Lllllllleong/brandscan/internal/models"
)

const (
	sheetResults = "Results"
	sheetSummary = "Summary"
)

// WriteExcel renders the document's results into an xlsx workbook on w.
// The Results sheet lists one row per page; the Summary sheet carries the
// document info and aggregate statistics.
func WriteExcel(w io.Writer, doc *models.Document) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetResults)
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}

	if err := writeResultsSheet(f, doc); err != nil {
		return err
	}
	if err := writeSummarySheet(f, doc); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeResultsSheet(f *excelize.File, doc *models.Document) error {
	headers := []string{"Page", "Status", "Brands Detected", "Processing Time (s)", "Error"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetResults, cell, h); err != nil {
			return fmt.Errorf("writing results header: %w", err)
		}
	}

	pages := sortedResults(doc)
	for row, result := range pages {
		values := []interface{}{
			result.PageNumber,
			result.Status,
			strings.Join(result.BrandsDetected, ", "),
			result.ProcessingTime,
			result.ErrorMessage,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheetResults, cell, v); err != nil {
				return fmt.Errorf("writing result row for page %d: %w", result.PageNumber, err)
			}
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, doc *models.Document) error {
	rows := [][2]interface{}{
		{"Document ID", doc.ID},
		{"Filename", doc.Filename},
		{"Uploaded", doc.UploadDate.Format("2006-01-02 15:04:05")},
		{"Status", doc.Status},
		{"Total Pages", doc.TotalPages},
	}
	if s := doc.Summary; s != nil {
		rows = append(rows,
			[2]interface{}{"Successful Pages", s.SuccessfulPages},
			[2]interface{}{"Failed Pages", s.FailedPages},
			[2]interface{}{"Unique Brands", strings.Join(s.UniqueBrands, ", ")},
			[2]interface{}{"Total Processing Time (s)", s.TotalProcessingTime},
		)
	}

	for i, row := range rows {
		keyCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valCell, _ := excelize.CoordinatesToCellName(2, i+1)
		if err := f.SetCellValue(sheetSummary, keyCell, row[0]); err != nil {
			return fmt.Errorf("writing summary sheet: %w", err)
		}
		if err := f.SetCellValue(sheetSummary, valCell, row[1]); err != nil {
			return fmt.Errorf("writing summary sheet: %w", err)
		}
	}
	return nil
}

func sortedResults(doc *models.Document) []*models.PageResult {
	pages := make([]*models.PageResult, 0, len(doc.Results))
	for _, result := range doc.Results {
		pages = append(pages, result)
	}
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].PageNumber < pages[j].PageNumber
	})
	return pages
}
