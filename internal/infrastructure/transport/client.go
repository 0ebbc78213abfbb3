package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/sheetlens/sheetlens/internal/domain/models"
	"github.com/sheetlens/sheetlens/pkg/constants"
	apperrors "github.com/sheetlens/sheetlens/pkg/errors"
)

// Client issues the read-only, unauthenticated requests behind every fetch
// strategy. One instance is shared by the whole cascade; http.Client manages
// its own connection pool so no extra synchronization is needed.
type Client struct {
	http          *http.Client
	sheetsBaseURL string
	mirrorBaseURL string
	callbacks     *CallbackRegistry
}

// NewClient creates a transport client. Base URLs default to the public
// Google and mirror hosts and can be overridden via environment for tests.
func NewClient() *Client {
	sheetsBase := os.Getenv(constants.EnvSheetsBaseURL)
	if sheetsBase == "" {
		sheetsBase = constants.DefaultSheetsBaseURL
	}
	mirrorBase := os.Getenv(constants.EnvMirrorBaseURL)
	if mirrorBase == "" {
		mirrorBase = constants.DefaultMirrorBaseURL
	}
	return &Client{
		http:          &http.Client{Timeout: constants.FetchTimeout},
		sheetsBaseURL: strings.TrimRight(sheetsBase, "/"),
		mirrorBaseURL: strings.TrimRight(mirrorBase, "/"),
		callbacks:     NewCallbackRegistry(),
	}
}

// NewClientWithBaseURLs creates a client pointed at explicit hosts
func NewClientWithBaseURLs(sheetsBase, mirrorBase string) *Client {
	return &Client{
		http:          &http.Client{Timeout: constants.FetchTimeout},
		sheetsBaseURL: strings.TrimRight(sheetsBase, "/"),
		mirrorBaseURL: strings.TrimRight(mirrorBase, "/"),
		callbacks:     NewCallbackRegistry(),
	}
}

// Callbacks exposes the registry for leak assertions in tests
func (c *Client) Callbacks() *CallbackRegistry {
	return c.callbacks
}

// gvizURL builds the visualization query endpoint for a reference.
// gid takes priority over a tab name when both are present.
func (c *Client) gvizURL(ref *models.SheetReference, responseHandler string) string {
	tqx := "out:json"
	if responseHandler != "" {
		tqx = "out:json;responseHandler:" + responseHandler
	}
	q := url.Values{}
	q.Set("tqx", tqx)
	q.Set("headers", "1")
	addTabSelector(q, ref)
	return fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?%s", c.sheetsBaseURL, url.PathEscape(ref.SheetID), q.Encode())
}

// csvURL builds the CSV export endpoint for a reference
func (c *Client) csvURL(ref *models.SheetReference) string {
	q := url.Values{}
	q.Set("format", "csv")
	addTabSelector(q, ref)
	return fmt.Sprintf("%s/spreadsheets/d/%s/export?%s", c.sheetsBaseURL, url.PathEscape(ref.SheetID), q.Encode())
}

// mirrorURL builds the third-party JSON mirror endpoint; callers must ensure
// a tab name is known
func (c *Client) mirrorURL(ref *models.SheetReference) string {
	return fmt.Sprintf("%s/%s/%s", c.mirrorBaseURL, url.PathEscape(ref.SheetID), url.PathEscape(ref.SheetName))
}

func addTabSelector(q url.Values, ref *models.SheetReference) {
	switch {
	case ref.GID != "":
		q.Set("gid", ref.GID)
	case ref.SheetName != "":
		q.Set("sheet", ref.SheetName)
	}
}

// FetchGviz retrieves the visualization endpoint's wrapped JSON payload as text
func (c *Client) FetchGviz(ctx context.Context, ref *models.SheetReference) (string, error) {
	body, err := c.get(ctx, c.gvizURL(ref, ""))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchCSV retrieves the CSV export of the referenced sheet/tab
func (c *Client) FetchCSV(ctx context.Context, ref *models.SheetReference) ([]byte, error) {
	body, err := c.get(ctx, c.csvURL(ref))
	if err != nil {
		return nil, err
	}
	// A sheet that is not shared publicly comes back as an HTML sign-in page,
	// sometimes with a 200 status
	if looksLikeHTML(body) {
		return nil, apperrors.NewMalformedResponseError("csv", "endpoint returned an HTML page instead of CSV")
	}
	return body, nil
}

// FetchMirror retrieves the JSON array-of-records mirror for a named tab
func (c *Client) FetchMirror(ctx context.Context, ref *models.SheetReference) ([]byte, error) {
	if ref.SheetName == "" {
		return nil, apperrors.NewMalformedResponseError("mirror", "no tab name known for this reference")
	}
	return c.get(ctx, c.mirrorURL(ref))
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	return io.ReadAll(resp.Body)
}

func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(body[:min(len(body), 256)])))
	return strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html")
}
