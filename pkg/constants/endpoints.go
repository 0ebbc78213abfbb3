package constants

// Base URLs for the public read-only endpoints. Overridable via environment
// so tests can point the transport layer at local fakes.
const (
	DefaultSheetsBaseURL = "https://docs.google.com"
	DefaultMirrorBaseURL = "https://opensheet.elk.sh"

	EnvPort          = "PORT"
	EnvSheetsBaseURL = "SHEETS_BASE_URL"
	EnvMirrorBaseURL = "MIRROR_BASE_URL"
	EnvStateDBPath   = "STATE_DB_PATH"
)

// Recognized Google hosts for link resolution
const (
	HostDocs  = "docs.google.com"
	HostDrive = "drive.google.com"
)
