package access

import "docforge/internal/model"

// Package access implements stateless role-based access control for
// documents. The role and level tables are immutable, process-wide
// configuration; nothing here holds mutable state.

// Role is a caller's resolved role. Identity resolution happens upstream;
// this package only interprets the result.
type Role string

const (
	RoleGuest   Role = "guest"
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Normalize maps an arbitrary role string onto a known role. Unknown
// roles degrade to guest, the most restrictive set.
func Normalize(role string) Role {
	switch Role(role) {
	case RoleGuest, RoleUser, RoleManager, RoleAdmin:
		return Role(role)
	default:
		return RoleGuest
	}
}

var rolePermissions = map[Role]map[model.AccessAction]bool{
	RoleAdmin: {
		model.ActionView:     true,
		model.ActionDownload: true,
		model.ActionEdit:     true,
		model.ActionDelete:   true,
		model.ActionExport:   true,
	},
	RoleManager: {
		model.ActionView:     true,
		model.ActionDownload: true,
		model.ActionEdit:     true,
		model.ActionExport:   true,
	},
	RoleUser: {
		model.ActionView:     true,
		model.ActionDownload: true,
	},
	RoleGuest: {
		model.ActionView: true,
	},
}

// levelRoles encodes the access hierarchy
// public ⊂ internal ⊂ confidential ⊂ secret over the fixed role ordering
// guest < user < manager < admin.
var levelRoles = map[model.AccessLevel]map[Role]bool{
	model.AccessPublic:       {RoleGuest: true, RoleUser: true, RoleManager: true, RoleAdmin: true},
	model.AccessInternal:     {RoleUser: true, RoleManager: true, RoleAdmin: true},
	model.AccessConfidential: {RoleManager: true, RoleAdmin: true},
	model.AccessSecret:       {RoleAdmin: true},
}

// Engine evaluates the two independent document access checks. Both must
// pass before any content is returned to a caller.
type Engine struct{}

// NewEngine returns the stateless access control engine.
func NewEngine() *Engine {
	return &Engine{}
}

// CheckPermission reports whether the role may perform the action.
func (e *Engine) CheckPermission(role Role, action model.AccessAction) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		perms = rolePermissions[RoleGuest]
	}
	return perms[action]
}

// CanAccessDocument reports whether the role may access documents at the
// given sensitivity level. Unknown levels grant nothing.
func (e *Engine) CanAccessDocument(role Role, level model.AccessLevel) bool {
	roles, ok := levelRoles[level]
	if !ok {
		return false
	}
	if _, known := rolePermissions[role]; !known {
		role = RoleGuest
	}
	return roles[role]
}

// Permissions returns the set of actions granted to the role.
func (e *Engine) Permissions(role Role) []model.AccessAction {
	perms, ok := rolePermissions[role]
	if !ok {
		perms = rolePermissions[RoleGuest]
	}
	actions := make([]model.AccessAction, 0, len(perms))
	for a := range perms {
		actions = append(actions, a)
	}
	return actions
}
