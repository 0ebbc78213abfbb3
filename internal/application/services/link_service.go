package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/sheetlens/sheetlens/internal/domain/models"
	"github.com/sheetlens/sheetlens/pkg/constants"
	apperrors "github.com/sheetlens/sheetlens/pkg/errors"
)

// LinkService resolves free-form user input (a Sheets URL, a Drive sharing
// URL, or a bare document ID) into a canonical SheetReference.
type LinkService struct{}

// NewLinkService creates a new LinkService
func NewLinkService() *LinkService {
	return &LinkService{}
}

var (
	bareIDPattern = regexp.MustCompile(fmt.Sprintf(`^[A-Za-z0-9_-]{%d,}$`, constants.MinBareSheetIDLength))

	// Known path/query shapes carrying a document identifier, tried in order
	idPatterns = []*regexp.Regexp{
		regexp.MustCompile(`/spreadsheets(?:/u/\d+)?/d/([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`/file/d/([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`[?&]id=([A-Za-z0-9_-]+)`),
		regexp.MustCompile(`[?&]key=([A-Za-z0-9_-]+)`),
	}

	schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)
)

// Resolve parses input into a SheetReference.
// Empty input fails with InvalidLinkError; a URL that is neither a Google
// host nor carries an extractable identifier fails with UnsupportedLinkError.
func (s *LinkService) Resolve(input string) (*models.SheetReference, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, apperrors.NewInvalidLinkError(input, "no link or sheet ID provided")
	}

	// A long bare token is taken directly as the document ID
	if bareIDPattern.MatchString(trimmed) {
		return &models.SheetReference{
			SheetID:    trimmed,
			DisplayURL: fmt.Sprintf("https://%s/spreadsheets/d/%s", constants.HostDocs, trimmed),
		}, nil
	}

	candidate := trimmed
	if !schemePattern.MatchString(candidate) {
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		// Not a parseable URL: last chance is raw pattern extraction
		if id := extractSheetID(trimmed); id != "" {
			return &models.SheetReference{SheetID: id, DisplayURL: candidate}, nil
		}
		return nil, apperrors.NewInvalidLinkError(input, "could not parse the link")
	}

	id := extractSheetID(candidate)
	if id == "" && !isGoogleHost(u.Hostname()) {
		return nil, apperrors.NewUnsupportedLinkError(trimmed)
	}
	if id == "" {
		// Recognized host, but nothing identifying a document
		return nil, apperrors.NewUnsupportedLinkError(trimmed)
	}

	ref := &models.SheetReference{SheetID: id, DisplayURL: u.String()}
	resolveTabSelector(u, ref)
	return ref, nil
}

// extractSheetID runs the known identifier patterns over raw text
func extractSheetID(raw string) string {
	for _, p := range idPatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			return m[1]
		}
	}
	return ""
}

func isGoogleHost(host string) bool {
	host = strings.ToLower(host)
	for _, known := range []string{constants.HostDocs, constants.HostDrive} {
		if host == known || strings.HasSuffix(host, "."+known) {
			return true
		}
	}
	return false
}

// resolveTabSelector pulls gid/sheet name from query parameters first, then
// from fragment parameters (#gid=...). Query wins when both are present,
// and a gid always outranks a tab name downstream.
func resolveTabSelector(u *url.URL, ref *models.SheetReference) {
	query := u.Query()
	fragment, _ := url.ParseQuery(u.Fragment)

	ref.GID = firstNonEmpty(query.Get("gid"), fragment.Get("gid"))
	ref.SheetName = firstNonEmpty(query.Get("sheet"), fragment.Get("sheet"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
