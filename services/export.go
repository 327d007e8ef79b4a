package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"document-search-platform/internal/logger"
	"document-search-platform/models"
)

// ExportService renders a user's search history as a downloadable workbook.
type ExportService struct {
	history *HistoryService
}

// NewExportService creates a new export service
func NewExportService(history *HistoryService) *ExportService {
	return &ExportService{history: history}
}

// ExportHistory builds an xlsx workbook containing up to limit of the
// owner's most recent searches plus a summary sheet, and returns the encoded
// file bytes.
func (es *ExportService) ExportHistory(ownerID string, limit int) ([]byte, int, error) {
	records := es.history.Recent(ownerID, limit)

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close workbook", "error", err)
		}
	}()

	sheetName := "Search History"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Query", "Matched Documents", "Result Count", "Timestamp"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIdx, rec := range records {
		row := rowIdx + 2 // row 1 holds headers

		ids := make([]string, len(rec.DocumentIDs))
		for i, id := range rec.DocumentIDs {
			ids[i] = fmt.Sprintf("%d", id)
		}

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), rec.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), rec.Query)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), strings.Join(ids, ", "))
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), len(rec.DocumentIDs))
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), rec.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	for i := range headers {
		col := fmt.Sprintf("%c:%c", 'A'+i, 'A'+i)
		f.SetColWidth(sheetName, col, col, 20)
	}

	summarySheetName := "Summary"
	if _, err := f.NewSheet(summarySheetName); err != nil {
		return nil, 0, fmt.Errorf("failed to create summary sheet: %w", err)
	}

	summaryData := [][]interface{}{
		{"Export Date", time.Now().UTC().Format("2006-01-02 15:04:05")},
		{"Owner", ownerID},
		{"Total Searches", len(records)},
		{"Searches Without Results", countEmptySearches(records)},
	}
	for i, row := range summaryData {
		for j, cell := range row {
			cellRef := fmt.Sprintf("%c%d", 'A'+j, i+1)
			f.SetCellValue(summarySheetName, cellRef, cell)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, 0, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), len(records), nil
}

func countEmptySearches(records []models.SearchRecord) int {
	count := 0
	for _, r := range records {
		if len(r.DocumentIDs) == 0 {
			count++
		}
	}
	return count
}
