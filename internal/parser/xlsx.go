package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"document-retrieval/internal/models"
)

type xlsxExtractor struct {
	data       []byte
	documentID string
}

// Extract returns one unit per sheet, in workbook order.
func (e *xlsxExtractor) Extract() ([]models.RawTextUnit, error) {
	f, err := excelize.OpenReader(bytes.NewReader(e.data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var units []models.RawTextUnit
	for i, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheetName, err)
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n\n", sheetName))
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t"))
			text.WriteString("\n")
		}
		units = append(units, models.RawTextUnit{
			Content:    text.String(),
			UnitIndex:  i + 1,
			DocumentID: e.documentID,
		})
	}
	return units, nil
}
