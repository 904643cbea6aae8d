package services

import (
	"context"
	"strings"

	"github.com/xuri/excelize/v2"

	"postpilot/internal/store"
)

// ExportService renders the publish history as a spreadsheet.
type ExportService struct {
	history *store.HistoryStore
}

func NewExportService(history *store.HistoryStore) *ExportService {
	return &ExportService{history: history}
}

const historySheet = "Published Posts"

// HistoryWorkbook builds an xlsx workbook with one row per published post.
func (s *ExportService) HistoryWorkbook(ctx context.Context) (*excelize.File, error) {
	records, err := s.history.List(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return nil, err
	}

	headers := []string{"Remote ID", "Caption", "Hashtags", "Image URL", "Published At", "Status"}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(historySheet, cell, header); err != nil {
			return nil, err
		}
	}

	for row, record := range records {
		values := []interface{}{
			record.RemoteID,
			record.Candidate.Caption,
			strings.Join(record.Candidate.Hashtags, " "),
			record.Candidate.ImageURL,
			record.PublishedAt.Format("2006-01-02 15:04:05"),
			string(record.Status),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(historySheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}
