package domain

import (
	"fmt"
	"strings"
	"time"
)

// Reserved profile names. Membership in these profiles drives the coarse role.
const (
	AdminProfileName = "Administrador"
	AgentProfileName = "Agente"
)

// Resource is a protected area of the helpdesk.
type Resource string

const (
	ResourceTickets    Resource = "tickets"
	ResourceForms      Resource = "forms"
	ResourcePages      Resource = "pages"
	ResourceUsers      Resource = "users"
	ResourceCategories Resource = "categories"
	ResourceReports    Resource = "reports"
	ResourceHistory    Resource = "history"
	ResourceApprove    Resource = "approve"
	ResourceTrack      Resource = "track"
	ResourceConfig     Resource = "config"
	ResourceAgenda     Resource = "agenda"
	ResourceWebhooks   Resource = "webhooks"
	ResourceProjects   Resource = "projects"
	ResourceGroups     Resource = "groups"
	ResourceProfiles   Resource = "profiles"
	ResourceBackups    Resource = "backups"
)

// Action is an operation on a Resource.
type Action string

const (
	ActionCreate  Action = "create"
	ActionView    Action = "view"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Resources lists every known resource. Admins hold every Resource x Action pair.
var Resources = []Resource{
	ResourceTickets, ResourceForms, ResourcePages, ResourceUsers, ResourceCategories,
	ResourceReports, ResourceHistory, ResourceApprove, ResourceTrack, ResourceConfig,
	ResourceAgenda, ResourceWebhooks, ResourceProjects, ResourceGroups, ResourceProfiles,
	ResourceBackups,
}

// Actions lists every known action.
var Actions = []Action{
	ActionCreate, ActionView, ActionEdit, ActionDelete, ActionApprove, ActionReject,
}

// ValidResource reports whether r belongs to the closed resource enumeration.
func ValidResource(r Resource) bool {
	for _, known := range Resources {
		if known == r {
			return true
		}
	}
	return false
}

// ValidAction reports whether a belongs to the closed action enumeration.
func ValidAction(a Action) bool {
	for _, known := range Actions {
		if known == a {
			return true
		}
	}
	return false
}

// Permission is the "resource:action" form of a grant.
type Permission string

// NewPermission joins a resource and action.
func NewPermission(resource Resource, action Action) Permission {
	return Permission(string(resource) + ":" + string(action))
}

// Parse splits a permission into resource and action.
func (p Permission) Parse() (Resource, Action) {
	parts := strings.SplitN(string(p), ":", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return Resource(parts[0]), Action(parts[1])
}

// ParsePermission validates a "resource:action" string against the known
// resources and actions.
func ParsePermission(raw string) (Permission, error) {
	p := Permission(strings.TrimSpace(raw))
	resource, action := p.Parse()
	if !ValidResource(resource) {
		return "", fmt.Errorf("unknown resource in permission %q", raw)
	}
	if !ValidAction(action) {
		return "", fmt.Errorf("unknown action in permission %q", raw)
	}
	return p, nil
}

// AccessProfile is a named bundle of grants.
type AccessProfile struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAdmin reports whether membership in this profile implies admin capability.
func (p AccessProfile) IsAdmin() bool {
	return p.Name == AdminProfileName
}

// Grant attaches one (resource, action) capability to a profile.
type Grant struct {
	ProfileID int64
	Resource  Resource
	Action    Action
}

// Permission returns the grant as a Permission.
func (g Grant) Permission() Permission {
	return NewPermission(g.Resource, g.Action)
}

// RoleForProfiles derives the coarse role implied by a set of profiles.
func RoleForProfiles(profiles []AccessProfile) Role {
	role := RoleUser
	for _, p := range profiles {
		switch p.Name {
		case AdminProfileName:
			return RoleAdmin
		case AgentProfileName:
			role = RoleAgent
		}
	}
	return role
}
