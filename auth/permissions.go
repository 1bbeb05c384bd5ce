// Package auth resolves principals and answers authorization questions.
// The checks here are pure predicates; callers decide the response.
package auth

import (
	"stanza/models"
)

// Action is a fine-grained capability checked against session roles.
type Action string

const (
	ActionContentView    Action = "content.view"
	ActionContentCreate  Action = "content.create"
	ActionContentEdit    Action = "content.edit"
	ActionContentPublish Action = "content.publish"
	ActionContentDelete  Action = "content.delete"
	ActionUsersManage    Action = "users.manage"
	ActionKeysManage     Action = "apikeys.manage"
	ActionSettingsEdit   Action = "settings.edit"
)

var roleRank = map[string]int{
	models.RoleAuthor: 1,
	models.RoleEditor: 2,
	models.RoleAdmin:  3,
	models.RoleOwner:  4,
}

// minRole maps each action to the lowest role allowed to perform it.
// A role satisfies an action iff its rank >= the minimum's rank, so the
// table is monotonic by construction.
var minRole = map[Action]string{
	ActionContentView:    models.RoleAuthor,
	ActionContentCreate:  models.RoleAuthor,
	ActionContentEdit:    models.RoleAuthor,
	ActionContentPublish: models.RoleEditor,
	ActionContentDelete:  models.RoleAdmin,
	ActionUsersManage:    models.RoleAdmin,
	ActionKeysManage:     models.RoleAdmin,
	ActionSettingsEdit:   models.RoleOwner,
}

// RoleRank returns the total-order rank of a role, 0 for unknown.
func RoleRank(role string) int {
	return roleRank[role]
}

func ValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// HasPermission reports whether role satisfies the requirement by rank.
func HasPermission(role, required string) bool {
	r, ok := roleRank[role]
	if !ok {
		return false
	}
	req, ok := roleRank[required]
	if !ok {
		return false
	}
	return r >= req
}

// Can checks a session role against the capability table.
func Can(role string, action Action) bool {
	required, ok := minRole[action]
	if !ok {
		return false
	}
	return HasPermission(role, required)
}

var levelRank = map[string]int{
	models.LevelRead:  1,
	models.LevelWrite: 2,
	models.LevelAdmin: 3,
}

func ValidLevel(level string) bool {
	_, ok := levelRank[level]
	return ok
}

// LevelAllows checks an API key level against a required level. The
// read ⊂ write ⊂ admin scale never crosses into the role scale.
func LevelAllows(level, required string) bool {
	l, ok := levelRank[level]
	if !ok {
		return false
	}
	req, ok := levelRank[required]
	if !ok {
		return false
	}
	return l >= req
}

// levelFor coarsens an action onto the API key scale: reads need read,
// content mutations need write, everything administrative needs admin.
func levelFor(action Action) string {
	switch action {
	case ActionContentView:
		return models.LevelRead
	case ActionContentCreate, ActionContentEdit, ActionContentPublish:
		return models.LevelWrite
	default:
		return models.LevelAdmin
	}
}
