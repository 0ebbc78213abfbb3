package models

// SheetReference is the canonical identity of the tabular data to fetch:
// a Google Sheets document ID plus an optional tab selector. When both a
// numeric gid and a tab name are known, gid takes priority.
type SheetReference struct {
	SheetID   string `json:"sheet_id"`
	GID       string `json:"gid,omitempty"`
	SheetName string `json:"sheet_name,omitempty"`

	// DisplayURL is the canonicalized absolute URL the reference was resolved
	// from, retained for persistence and re-display in the input box.
	DisplayURL string `json:"display_url,omitempty"`
}

// ColumnType classifies a column's cell values
type ColumnType string

const (
	ColumnTypeString  ColumnType = "string"
	ColumnTypeDate    ColumnType = "date"
	ColumnTypeNumber  ColumnType = "number"
	ColumnTypeBoolean ColumnType = "boolean"
	ColumnTypeOther   ColumnType = "other"
)

// Column describes one table column. Key is a stable identifier derived from
// the header text; Label is the original header text for display.
type Column struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Type  ColumnType `json:"type"`
}

// Row maps Column.Key to a formatted string value. Every row carries an entry
// (possibly empty) for every column in its table.
type Row map[string]string

// Table is the uniform column/row model every transport payload normalizes
// into. Produced atomically per load and replaced wholesale, never mutated.
type Table struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Empty reports whether the table holds no columns
func (t *Table) Empty() bool {
	return t == nil || len(t.Columns) == 0
}

// FilterColumnMap names the column key serving each semantic role; an empty
// string means the role was not detected in the current table.
type FilterColumnMap struct {
	System    string `json:"system"`
	Milestone string `json:"milestone"`
	Developer string `json:"developer"`
	Manager   string `json:"manager"`
}

// RoleKeys returns the mapped column keys that were resolved, in role order
func (m FilterColumnMap) RoleKeys() []string {
	keys := make([]string, 0, 4)
	for _, k := range []string{m.System, m.Milestone, m.Developer, m.Manager} {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// FilterState is the view-side selection applied to the current table.
// It resets whenever a new table loads or the view is cleared.
type FilterState struct {
	System     string `json:"system"`
	Milestone  string `json:"milestone"`
	SearchText string `json:"search_text"`
}
