package constants

// Persisted-state keys and response envelope field names
const (
	// The single well-known key under which the last loaded sheet URL is kept
	StateKeyLastURL = "sheetlens.last_url"

	ResponseError = "error"
	FieldMessage  = "message"
)

// Filter value meaning "no filter" for a facet dropdown
const FilterAll = "all"
