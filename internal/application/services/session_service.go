package services

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/sheetlens/sheetlens/internal/domain/models"
	"github.com/sheetlens/sheetlens/internal/infrastructure/persistence"
	"github.com/sheetlens/sheetlens/pkg/constants"
	"github.com/sheetlens/sheetlens/pkg/expression"
)

// SessionService owns the view state: the current table, its facet map and
// the canonical URL it was loaded from. State moves only through whole-table
// replace (load success), clear (load failure or reset), never by partial
// mutation. A load commits its result only if no newer load has started
// since, so a stale in-flight load can never overwrite a fresher one.
type SessionService struct {
	link     *LinkService
	fetch    *FetchService
	facetSvc *FacetService
	store    *persistence.StateRepository
	engine   *expression.Engine

	mu         sync.Mutex
	loadSeq    uint64
	table      *models.Table
	facets     models.FilterColumnMap
	currentURL string
}

// NewSessionService creates a new SessionService
func NewSessionService(link *LinkService, fetch *FetchService, facetSvc *FacetService, store *persistence.StateRepository) *SessionService {
	return &SessionService{
		link:     link,
		fetch:    fetch,
		facetSvc: facetSvc,
		store:    store,
		engine:   expression.NewEngine(),
	}
}

// LoadResult is what a successful load hands to the view layer
type LoadResult struct {
	Table  *models.Table          `json:"table"`
	Facets models.FilterColumnMap `json:"facets"`
	URL    string                 `json:"url"`
}

// Load resolves input, fetches the sheet, derives facets and replaces the
// session state atomically. On any failure the state clears to empty so no
// stale rows survive, and the error propagates to the caller.
func (s *SessionService) Load(ctx context.Context, input string) (*LoadResult, error) {
	s.mu.Lock()
	s.loadSeq++
	gen := s.loadSeq
	s.mu.Unlock()

	ref, err := s.link.Resolve(input)
	if err != nil {
		s.clearIfCurrent(gen)
		return nil, err
	}

	table, err := s.fetch.FetchTable(ctx, ref)
	if err != nil {
		s.clearIfCurrent(gen)
		return nil, err
	}

	facets := s.facetSvc.ResolveFacets(table.Columns)
	result := &LoadResult{Table: table, Facets: facets, URL: ref.DisplayURL}

	s.mu.Lock()
	stale := gen != s.loadSeq
	if !stale {
		s.table = table
		s.facets = facets
		s.currentURL = ref.DisplayURL
	}
	s.mu.Unlock()

	if !stale && s.store != nil {
		if err := s.store.Set(ctx, constants.StateKeyLastURL, ref.DisplayURL); err != nil {
			// Persistence is best-effort; the load itself succeeded
			log.Printf("❌ Failed to persist last URL: %v", err)
		}
	}
	return result, nil
}

// clearIfCurrent wipes the state unless a newer load has already started
func (s *SessionService) clearIfCurrent(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.loadSeq {
		s.table = nil
		s.facets = models.FilterColumnMap{}
		s.currentURL = ""
	}
}

// Reset clears the session state and the persisted URL
func (s *SessionService) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.loadSeq++
	s.table = nil
	s.facets = models.FilterColumnMap{}
	s.currentURL = ""
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	return s.store.Delete(ctx, constants.StateKeyLastURL)
}

// LastURL returns the persisted last loaded URL, if any
func (s *SessionService) LastURL(ctx context.Context) (string, error) {
	if s.store == nil {
		return "", nil
	}
	value, _, err := s.store.Get(ctx, constants.StateKeyLastURL)
	return value, err
}

// ViewResult is the filtered snapshot served to the table page
type ViewResult struct {
	Columns     []models.Column        `json:"columns"`
	Rows        []models.Row           `json:"rows"`
	Facets      models.FilterColumnMap `json:"facets"`
	FacetValues map[string][]string    `json:"facet_values"`
	URL         string                 `json:"url"`
	TotalRows   int                    `json:"total_rows"`
}

// View applies the filter state (and an optional filter expression) to the
// current table. An empty session yields an empty view, not an error.
func (s *SessionService) View(state models.FilterState, filterExpr string) (*ViewResult, error) {
	s.mu.Lock()
	table := s.table
	facets := s.facets
	url := s.currentURL
	s.mu.Unlock()

	if table.Empty() {
		return &ViewResult{Columns: []models.Column{}, Rows: []models.Row{}, FacetValues: map[string][]string{}}, nil
	}

	rows := FilterRows(table.Rows, facets, state)
	if filterExpr != "" {
		filtered := make([]models.Row, 0, len(rows))
		for _, row := range rows {
			ok, err := s.engine.EvaluateCondition(filterExpr, row)
			if err != nil {
				return nil, err
			}
			if ok {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	return &ViewResult{
		Columns:     table.Columns,
		Rows:        rows,
		Facets:      facets,
		FacetValues: facetValues(table.Rows, facets),
		URL:         url,
		TotalRows:   len(table.Rows),
	}, nil
}

// FilterRows returns exactly the rows whose mapped system/milestone values
// equal the respective selections, intersected with the search predicate.
// An empty or "all" selection is the identity filter.
func FilterRows(rows []models.Row, facets models.FilterColumnMap, state models.FilterState) []models.Row {
	out := make([]models.Row, 0, len(rows))
	for _, row := range rows {
		if !facetEquals(row, facets.System, state.System) {
			continue
		}
		if !facetEquals(row, facets.Milestone, state.Milestone) {
			continue
		}
		if !searchMatches(row, facets, state.SearchText) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func facetEquals(row models.Row, columnKey, selected string) bool {
	if selected == "" || selected == constants.FilterAll || columnKey == "" {
		return true
	}
	return row[columnKey] == selected
}

// searchMatches reports whether any of the role-mapped columns' values
// contains the search text, case-insensitively
func searchMatches(row models.Row, facets models.FilterColumnMap, search string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	for _, key := range facets.RoleKeys() {
		if strings.Contains(strings.ToLower(row[key]), search) {
			return true
		}
	}
	return false
}

// facetValues collects the distinct values of the system and milestone
// columns over the unfiltered rows, sorted, for the dropdowns
func facetValues(rows []models.Row, facets models.FilterColumnMap) map[string][]string {
	out := make(map[string][]string, 2)
	for role, key := range map[string]string{
		string(constants.RoleSystem):    facets.System,
		string(constants.RoleMilestone): facets.Milestone,
	} {
		if key == "" {
			out[role] = []string{}
			continue
		}
		seen := make(map[string]bool)
		values := []string{}
		for _, row := range rows {
			v := row[key]
			if v != "" && !seen[v] {
				seen[v] = true
				values = append(values, v)
			}
		}
		sort.Strings(values)
		out[role] = values
	}
	return out
}
