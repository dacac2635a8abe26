package models

import (
	"fmt"
	"strings"
)

// Role is the access level of a user.
type Role string

const (
	RoleDirector  Role = "Director"
	RoleManager   Role = "Manager"
	RoleDeveloper Role = "Developer"
)

// Roles lists every known role.
var Roles = []Role{RoleDirector, RoleManager, RoleDeveloper}

// ParseRole maps a role name (any case) to a known role.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, nil
		}
	}
	return "", Invalid("role", "unknown role %q", s)
}

// Permission is a capability checked by the HTTP layer before a handler runs.
type Permission int

const (
	PermListProjects Permission = iota + 1
	PermCreateProject
	PermUpdateProject
	PermDeleteProject
	PermAssignManager
	PermManageTeam
	PermManageTechnologies
	PermListTasks
	PermManageTasks
	PermUpdateTaskStatus
	PermReportProgress
	PermListUsers
	PermManageUsers
)

var permissionNames = map[Permission]string{
	PermListProjects:       "projects:list",
	PermCreateProject:      "projects:create",
	PermUpdateProject:      "projects:update",
	PermDeleteProject:      "projects:delete",
	PermAssignManager:      "projects:assign-manager",
	PermManageTeam:         "projects:manage-team",
	PermManageTechnologies: "technologies:manage",
	PermListTasks:          "tasks:list",
	PermManageTasks:        "tasks:manage",
	PermUpdateTaskStatus:   "tasks:update-status",
	PermReportProgress:     "tasks:report-progress",
	PermListUsers:          "users:list",
	PermManageUsers:        "users:manage",
}

func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("permission(%d)", int(p))
}

var rolePermissions = map[Role]map[Permission]struct{}{
	RoleDirector: set(
		PermListProjects,
		PermCreateProject,
		PermUpdateProject,
		PermDeleteProject,
		PermAssignManager,
		PermManageTechnologies,
		PermListTasks,
		PermListUsers,
		PermManageUsers,
	),
	RoleManager: set(
		PermListProjects,
		PermUpdateProject,
		PermManageTeam,
		PermManageTechnologies,
		PermListTasks,
		PermManageTasks,
		PermUpdateTaskStatus,
		PermListUsers,
	),
	RoleDeveloper: set(
		PermUpdateTaskStatus,
		PermReportProgress,
	),
}

func set(perms ...Permission) map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		m[p] = struct{}{}
	}
	return m
}

// Can reports whether the role grants the permission. Unknown roles grant nothing.
func (r Role) Can(p Permission) bool {
	_, ok := rolePermissions[r][p]
	return ok
}
