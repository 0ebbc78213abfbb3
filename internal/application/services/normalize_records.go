package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sheetlens/sheetlens/internal/domain/models"
	apperrors "github.com/sheetlens/sheetlens/pkg/errors"
)

// NormalizeRecords converts a JSON array of uniform key/value records (the
// mirror endpoint's shape) into the uniform table model. Columns come from
// the first record's key order; every column is typed as plain string;
// values are stringified and trimmed, missing keys map to empty string.
func NormalizeRecords(data []byte) (*models.Table, error) {
	var records []map[string]interface{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, apperrors.NewMalformedResponseError("mirror", fmt.Sprintf("payload is not a JSON array of records: %v", err))
	}
	if len(records) == 0 {
		return nil, apperrors.NewEmptyTableError("mirror")
	}

	labels, err := firstRecordKeys(data)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, apperrors.NewEmptyTableError("mirror")
	}

	taken := make(map[string]bool)
	columns := make([]models.Column, len(labels))
	for i, label := range labels {
		columns[i] = models.Column{
			Key:   uniqueKey(columnKey(label, i), i, taken),
			Label: label,
			Type:  models.ColumnTypeString,
		}
	}

	rows := make([]models.Row, 0, len(records))
	for _, record := range records {
		row := make(models.Row, len(columns))
		for i, col := range columns {
			value := ""
			if v, ok := record[labels[i]]; ok {
				value = strings.TrimSpace(stringifyValue(v))
			}
			row[col.Key] = value
		}
		rows = append(rows, row)
	}

	return &models.Table{Columns: columns, Rows: rows}, nil
}

// firstRecordKeys walks the JSON token stream to recover the first object's
// key order, which json.Unmarshal into a map would lose
func firstRecordKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	// opening '['
	if tok, err := dec.Token(); err != nil || tok != json.Delim('[') {
		return nil, apperrors.NewMalformedResponseError("mirror", "payload is not a JSON array")
	}
	// opening '{' of the first record
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, apperrors.NewMalformedResponseError("mirror", "first array element is not an object")
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, apperrors.NewMalformedResponseError("mirror", "truncated record object")
		}
		key, ok := tok.(string)
		if !ok {
			return nil, apperrors.NewMalformedResponseError("mirror", "non-string record key")
		}
		keys = append(keys, key)

		// discard the value
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, apperrors.NewMalformedResponseError("mirror", "unreadable record value")
		}
	}
	return keys, nil
}
