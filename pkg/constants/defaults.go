package constants

import "time"

// Default values for server and transport operations
const (
	DefaultPort = "3001"

	// HTTP timeout for direct endpoint reads
	FetchTimeout = 30 * time.Second

	// Timeout for the callback-style gviz retrieval; the original frontend
	// enforced the same bound on its injected script tag
	CallbackTimeout = 15 * time.Second

	// Minimum length at which a bare token is accepted as a document ID
	MinBareSheetIDLength = 30
)
