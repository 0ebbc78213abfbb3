package services

import (
	"strings"

	"github.com/sheetlens/sheetlens/internal/domain/models"
	"github.com/sheetlens/sheetlens/pkg/constants"
)

// FacetService maps normalized columns to the semantic roles that drive the
// filter UI. Alias matching is deliberately loose: false resolution beats
// forcing the user to configure column mappings by hand.
type FacetService struct{}

// NewFacetService creates a new FacetService
func NewFacetService() *FacetService {
	return &FacetService{}
}

// ResolveFacets resolves each role against its alias list. Exact key matches
// are tried for every alias first, then substring matches in either
// direction; the first alias (in declared order) that matches any column
// wins. Unresolved roles stay empty, except that "system" falls back to the
// first column and "milestone" to the second (or first) column.
func (s *FacetService) ResolveFacets(columns []models.Column) models.FilterColumnMap {
	resolved := map[constants.FacetRole]string{}
	for _, role := range constants.FacetRoles {
		resolved[role] = matchRole(constants.RoleAliases[role], columns)
	}

	if resolved[constants.RoleSystem] == "" && len(columns) > 0 {
		resolved[constants.RoleSystem] = columns[0].Key
	}
	if resolved[constants.RoleMilestone] == "" && len(columns) > 0 {
		idx := 0
		if len(columns) > 1 {
			idx = 1
		}
		resolved[constants.RoleMilestone] = columns[idx].Key
	}

	return models.FilterColumnMap{
		System:    resolved[constants.RoleSystem],
		Milestone: resolved[constants.RoleMilestone],
		Developer: resolved[constants.RoleDeveloper],
		Manager:   resolved[constants.RoleManager],
	}
}

func matchRole(aliases []string, columns []models.Column) string {
	// Exact matches take priority over any substring match
	for _, alias := range aliases {
		normalized := slugKey(alias)
		for _, col := range columns {
			if col.Key == normalized {
				return col.Key
			}
		}
	}
	for _, alias := range aliases {
		normalized := slugKey(alias)
		for _, col := range columns {
			if strings.Contains(col.Key, normalized) || strings.Contains(normalized, col.Key) {
				return col.Key
			}
		}
	}
	return ""
}
