package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sheetlens/sheetlens/internal/domain/models"
	apperrors "github.com/sheetlens/sheetlens/pkg/errors"
)

// Wire shapes of the visualization query endpoint. A cell may carry a raw
// value `v` and/or a precomputed display value `f`; `f` preserves the
// sheet's own formatting and formula results and wins when present.
type gvizResponse struct {
	Status string     `json:"status"`
	Table  *gvizTable `json:"table"`
}

type gvizTable struct {
	Cols []gvizCol `json:"cols"`
	Rows []gvizRow `json:"rows"`
}

type gvizCol struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type gvizRow struct {
	C []*gvizCell `json:"c"`
}

type gvizCell struct {
	V interface{} `json:"v"`
	F string      `json:"f"`
}

// The endpoint serializes date cells as a constructor call with a
// zero-based month, e.g. Date(2024,0,15) for January 15, 2024
var gvizDatePattern = regexp.MustCompile(`^Date\((\d+),(\d+),(\d+)`)

// ExtractWrappedJSON locates the JSON payload inside the endpoint's non-JSON
// wrapper: everything between the first '{' and the last '}' inclusive.
// Any violation of that bracket containment is a malformed response.
func ExtractWrappedJSON(body string) (string, error) {
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end < 0 || end < start {
		return "", apperrors.NewMalformedResponseError("gviz", "no JSON object found in response wrapper")
	}
	return body[start : end+1], nil
}

// NormalizeGviz converts the typed-cell payload into the uniform table model
func NormalizeGviz(payload string) (*models.Table, error) {
	var resp gvizResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, apperrors.NewMalformedResponseError("gviz", fmt.Sprintf("payload is not valid JSON: %v", err))
	}
	if resp.Table == nil {
		return nil, apperrors.NewMalformedResponseError("gviz", "payload carries no table structure")
	}
	if len(resp.Table.Cols) == 0 {
		return nil, apperrors.NewEmptyTableError("gviz")
	}

	taken := make(map[string]bool)
	columns := make([]models.Column, len(resp.Table.Cols))
	for i, col := range resp.Table.Cols {
		columns[i] = models.Column{
			Key:   uniqueKey(columnKey(col.Label, i), i, taken),
			Label: col.Label,
			Type:  gvizColumnType(col.Type),
		}
	}

	rows := make([]models.Row, 0, len(resp.Table.Rows))
	for _, raw := range resp.Table.Rows {
		row := make(models.Row, len(columns))
		for i, col := range columns {
			var cell *gvizCell
			if i < len(raw.C) {
				cell = raw.C[i]
			}
			row[col.Key] = formatGvizCell(cell, resp.Table.Cols[i].Type)
		}
		rows = append(rows, row)
	}

	return &models.Table{Columns: columns, Rows: rows}, nil
}

func gvizColumnType(t string) models.ColumnType {
	switch t {
	case "string":
		return models.ColumnTypeString
	case "date", "datetime":
		return models.ColumnTypeDate
	case "number":
		return models.ColumnTypeNumber
	case "boolean":
		return models.ColumnTypeBoolean
	default:
		return models.ColumnTypeOther
	}
}

// formatGvizCell renders one cell: display value verbatim when present,
// empty for absent raw values, calendar dates for date-typed constructor
// strings, plain stringification otherwise
func formatGvizCell(cell *gvizCell, colType string) string {
	if cell == nil {
		return ""
	}
	if cell.F != "" {
		return cell.F
	}
	if cell.V == nil {
		return ""
	}
	if colType == "date" || colType == "datetime" {
		if s, ok := cell.V.(string); ok {
			if formatted, ok := formatGvizDate(s); ok {
				return formatted
			}
		}
	}
	return stringifyValue(cell.V)
}

func formatGvizDate(s string) (string, bool) {
	m := gvizDatePattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2]) // zero-based
	day, _ := strconv.Atoi(m[3])
	t := time.Date(year, time.Month(month+1), day, 0, 0, 0, 0, time.UTC)
	return t.Format("Jan 2, 2006"), true
}
