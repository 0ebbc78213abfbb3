package constants

// FacetRole identifies a semantic column category used to drive the filter UI
type FacetRole string

const (
	RoleSystem    FacetRole = "system"
	RoleMilestone FacetRole = "milestone"
	RoleDeveloper FacetRole = "developer"
	RoleManager   FacetRole = "manager"
)

// FacetRoles lists every role in resolution order
var FacetRoles = []FacetRole{RoleSystem, RoleMilestone, RoleDeveloper, RoleManager}

// RoleAliases maps each role to its accepted header texts, in priority order.
// The first alias that matches any column wins.
var RoleAliases = map[FacetRole][]string{
	RoleSystem:    {"system", "project name", "system project name", "system (project name)"},
	RoleMilestone: {"milestone", "next milestone"},
	RoleDeveloper: {"assigned developer", "developer"},
	RoleManager:   {"assigned project manager", "project manager"},
}
