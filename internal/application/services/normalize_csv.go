package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/sheetlens/sheetlens/internal/domain/models"
	apperrors "github.com/sheetlens/sheetlens/pkg/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NormalizeCSV converts a CSV export payload into the uniform table model.
// The first record is the header row; every column is typed as plain string,
// every value is trimmed, and short records pad out with empty strings.
func NormalizeCSV(data []byte) (*models.Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // sheets pad rows unevenly
	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewMalformedResponseError("csv", fmt.Sprintf("could not parse CSV: %v", err))
	}
	if len(records) == 0 {
		return nil, apperrors.NewEmptyTableError("csv")
	}

	header := records[0]
	taken := make(map[string]bool)
	columns := make([]models.Column, len(header))
	for i, label := range header {
		label = strings.TrimSpace(label)
		columns[i] = models.Column{
			Key:   uniqueKey(columnKey(label, i), i, taken),
			Label: label,
			Type:  models.ColumnTypeString,
		}
	}

	rows := make([]models.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(models.Row, len(columns))
		for i, col := range columns {
			value := ""
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			row[col.Key] = value
		}
		rows = append(rows, row)
	}

	return &models.Table{Columns: columns, Rows: rows}, nil
}
