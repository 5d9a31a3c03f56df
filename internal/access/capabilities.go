// Package access decides what a viewer may see or do: role capabilities for
// settings panels and actions, and the visibility of a Space.
package access

import (
	"slices"
	"strings"

	"inkyspace/internal/models"
)

type Capability string

const (
	CreateSpace         Capability = "create-space"
	ManageSpaces        Capability = "manage-spaces"
	InviteEditors       Capability = "invite-editors"
	ApproveThreads      Capability = "approve-threads"
	WriteThreads        Capability = "write-threads"
	Subscribe           Capability = "subscribe"
	ManageSubscriptions Capability = "manage-subscriptions"
	ViewOwnerInfo       Capability = "view-owner-info"
	Comment             Capability = "comment"
)

// Settings sub-paths under /settings.
const (
	SettingsProfile          = "profile"
	SettingsSecurity         = "security"
	SettingsSubscribedSpaces = "subscribed-spaces"
	SettingsEditorManagement = "editor-management"
	SettingsSpaceManagement  = "space-management"
	SettingsThreadApprovals  = "thread-approvals"
	SettingsOwnerInfo        = "owner-info"
	SettingsThreads          = "threads"
)

type Capabilities struct {
	Role     models.Role
	Settings []string
	Actions  []Capability
}

var common = []string{SettingsProfile, SettingsSecurity}

var table = map[models.Role]Capabilities{
	models.RoleReader: {
		Settings: []string{SettingsSubscribedSpaces},
		Actions:  []Capability{Subscribe, ManageSubscriptions, Comment},
	},
	models.RoleOwner: {
		Settings: []string{SettingsEditorManagement, SettingsSpaceManagement, SettingsThreadApprovals},
		Actions:  []Capability{CreateSpace, ManageSpaces, InviteEditors, ApproveThreads, Subscribe, Comment},
	},
	models.RoleEditor: {
		Settings: []string{SettingsOwnerInfo, SettingsThreads, SettingsThreadApprovals},
		Actions:  []Capability{WriteThreads, ViewOwnerInfo, Subscribe, Comment},
	},
	models.RoleAdmin: {
		Settings: []string{
			SettingsSubscribedSpaces, SettingsEditorManagement, SettingsSpaceManagement,
			SettingsThreadApprovals, SettingsOwnerInfo, SettingsThreads,
		},
		Actions: []Capability{Comment},
	},
}

// For returns the capabilities of role. The anonymous role has none.
func For(role models.Role) Capabilities {
	c, ok := table[role]
	if !ok {
		return Capabilities{Role: role}
	}
	c.Role = role
	c.Settings = append(slices.Clone(common), c.Settings...)
	c.Actions = slices.Clone(c.Actions)
	return c
}

func (c Capabilities) Can(a Capability) bool {
	return slices.Contains(c.Actions, a)
}

// AllowsSettings reports whether sub (with or without the /settings prefix)
// is one of the role's settings panels.
func (c Capabilities) AllowsSettings(sub string) bool {
	sub = strings.TrimPrefix(sub, "/settings")
	sub = strings.Trim(sub, "/")
	if i := strings.IndexByte(sub, '/'); i >= 0 {
		sub = sub[:i]
	}
	return slices.Contains(c.Settings, sub)
}
