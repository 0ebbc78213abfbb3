package services_test

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetlens/sheetlens/internal/application/services"
	"github.com/sheetlens/sheetlens/internal/domain/models"
	"github.com/sheetlens/sheetlens/internal/infrastructure/persistence"
	"github.com/sheetlens/sheetlens/internal/infrastructure/transport"
	apperrors "github.com/sheetlens/sheetlens/pkg/errors"
)

func testTable() ([]models.Row, models.FilterColumnMap) {
	facets := models.FilterColumnMap{
		System:    "system",
		Milestone: "milestone",
		Developer: "developer",
		Manager:   "manager",
	}
	rows := []models.Row{
		{"system": "Billing", "milestone": "Q3", "developer": "Ada", "manager": "Grace", "notes": "urgent"},
		{"system": "Billing", "milestone": "Q4", "developer": "Linus", "manager": "Grace", "notes": ""},
		{"system": "CRM", "milestone": "Q3", "developer": "Ada", "manager": "Margaret", "notes": "ada only"},
	}
	return rows, facets
}

func TestFilterRows_FacetSelections(t *testing.T) {
	rows, facets := testTable()

	testCases := []struct {
		name   string
		state  models.FilterState
		expect int
	}{
		{"No selection is identity", models.FilterState{}, 3},
		{"All selection is identity", models.FilterState{System: "all", Milestone: "all"}, 3},
		{"System only", models.FilterState{System: "Billing"}, 2},
		{"Milestone only", models.FilterState{Milestone: "Q3"}, 2},
		{"System and milestone intersect", models.FilterState{System: "Billing", Milestone: "Q3"}, 1},
		{"No matching value", models.FilterState{System: "Payroll"}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := services.FilterRows(rows, facets, tc.state)
			assert.Len(t, got, tc.expect)
			for _, row := range got {
				if tc.state.System != "" && tc.state.System != "all" {
					assert.Equal(t, tc.state.System, row["system"])
				}
				if tc.state.Milestone != "" && tc.state.Milestone != "all" {
					assert.Equal(t, tc.state.Milestone, row["milestone"])
				}
			}
		})
	}
}

func TestFilterRows_SearchOverRoleColumnsOnly(t *testing.T) {
	rows, facets := testTable()

	// Case-insensitive substring over the four role-mapped columns
	got := services.FilterRows(rows, facets, models.FilterState{SearchText: "ada"})
	assert.Len(t, got, 2)

	got = services.FilterRows(rows, facets, models.FilterState{SearchText: "GRACE"})
	assert.Len(t, got, 2)

	// Values outside the role-mapped columns are not searched
	got = services.FilterRows(rows, facets, models.FilterState{SearchText: "urgent"})
	assert.Len(t, got, 0)

	// Search intersects with facet selections
	got = services.FilterRows(rows, facets, models.FilterState{System: "CRM", SearchText: "ada"})
	assert.Len(t, got, 1)
}

func newSessionService(t *testing.T, fake *fakeSheets) *services.SessionService {
	t.Helper()
	srv := fake.server()
	t.Cleanup(srv.Close)

	store, err := persistence.NewStateRepository(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	client := transport.NewClientWithBaseURLs(srv.URL, srv.URL)
	return services.NewServiceManager(client, store).Session
}

func TestSessionService_LoadReplacesStateAndPersistsURL(t *testing.T) {
	fake := &fakeSheets{gviz: gvizEcho, csv: notFound}
	session := newSessionService(t, fake)
	ctx := context.Background()

	result, err := session.Load(ctx, "https://docs.google.com/spreadsheets/d/ABC123XYZ/edit#gid=42")
	require.NoError(t, err)
	require.NotNil(t, result.Table)
	assert.Equal(t, "system", result.Facets.System)
	assert.Equal(t, "milestone", result.Facets.Milestone)

	url, err := session.LastURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/ABC123XYZ/edit#gid=42", url)

	view, err := session.View(models.FilterState{}, "")
	require.NoError(t, err)
	assert.Len(t, view.Rows, 1)
	assert.Equal(t, []string{"Billing"}, view.FacetValues["system"])
}

func TestSessionService_FailedLoadClearsView(t *testing.T) {
	fake := &fakeSheets{gviz: gvizEcho, csv: notFound}
	session := newSessionService(t, fake)
	ctx := context.Background()

	_, err := session.Load(ctx, "https://docs.google.com/spreadsheets/d/ABC123XYZ/edit")
	require.NoError(t, err)

	// Second load fails at link resolution; no stale rows may survive
	_, err = session.Load(ctx, "   ")
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidLink(err))

	view, err := session.View(models.FilterState{}, "")
	require.NoError(t, err)
	assert.Empty(t, view.Rows)
	assert.Empty(t, view.Columns)

	// Persisted URL is only cleared by explicit reset
	url, err := session.LastURL(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, url)
}

func TestSessionService_ResetClearsEverything(t *testing.T) {
	fake := &fakeSheets{gviz: gvizEcho, csv: notFound}
	session := newSessionService(t, fake)
	ctx := context.Background()

	_, err := session.Load(ctx, "https://docs.google.com/spreadsheets/d/ABC123XYZ/edit")
	require.NoError(t, err)

	require.NoError(t, session.Reset(ctx))

	view, err := session.View(models.FilterState{}, "")
	require.NoError(t, err)
	assert.Empty(t, view.Columns)

	url, err := session.LastURL(ctx)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestSessionService_StaleLoadDoesNotCommit(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var startedOnce sync.Once
	fake := &fakeSheets{
		gviz: func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.URL.Path, "SLOW") {
				startedOnce.Do(func() { close(started) })
				<-release
			}
			gvizEcho(w, r)
		},
		csv: notFound,
	}
	session := newSessionService(t, fake)
	ctx := context.Background()

	slowDone := make(chan error, 1)
	go func() {
		_, err := session.Load(ctx, "https://docs.google.com/spreadsheets/d/SLOWSHEET000/edit")
		slowDone <- err
	}()

	// The newer load wins while the first is still in flight
	<-started
	_, err := session.Load(ctx, "https://docs.google.com/spreadsheets/d/FASTSHEET000/edit")
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-slowDone)

	view, err := session.View(models.FilterState{}, "")
	require.NoError(t, err)
	assert.Contains(t, view.URL, "FASTSHEET000", "stale load must not overwrite the newer result")

	url, err := session.LastURL(ctx)
	require.NoError(t, err)
	assert.Contains(t, url, "FASTSHEET000")
}

// A persistence failure after a successful fetch must not fail the load; it
// is logged and the in-memory state still commits.
func TestSessionService_PersistFailureIsLoggedNotFatal(t *testing.T) {
	fake := &fakeSheets{gviz: gvizEcho, csv: notFound}
	srv := fake.server()
	t.Cleanup(srv.Close)

	store, err := persistence.NewStateRepository(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	client := transport.NewClientWithBaseURLs(srv.URL, srv.URL)
	session := services.NewServiceManager(client, store).Session

	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	result, err := session.Load(context.Background(), "https://docs.google.com/spreadsheets/d/ABC123XYZ/edit")
	require.NoError(t, err)
	require.NotNil(t, result.Table)
	assert.Contains(t, logs.String(), "persist last URL")

	view, err := session.View(models.FilterState{}, "")
	require.NoError(t, err)
	assert.Len(t, view.Rows, 1)
}

func TestSessionService_ExpressionFilter(t *testing.T) {
	fake := &fakeSheets{
		gviz: func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `google.visualization.Query.setResponse({"status":"ok","table":{
				"cols":[{"id":"A","label":"System","type":"string"},{"id":"B","label":"Milestone","type":"string"}],
				"rows":[{"c":[{"v":"Billing"},{"v":"Q3"}]},{"c":[{"v":"CRM"},{"v":"Q4"}]}]}});`)
		},
		csv: notFound,
	}
	session := newSessionService(t, fake)
	ctx := context.Background()

	_, err := session.Load(ctx, "https://docs.google.com/spreadsheets/d/ABC123XYZ/edit")
	require.NoError(t, err)

	view, err := session.View(models.FilterState{}, `row["milestone"] == "Q4"`)
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "CRM", view.Rows[0]["system"])

	_, err = session.View(models.FilterState{}, `this is not an expression`)
	require.Error(t, err)
}
