// Package guard classifies page requests before they render: it verifies the
// session cookie with the API and redirects visitors who may not see a page.
package guard

import (
	"regexp"
	"strings"

	"inkyspace/internal/access"
	"inkyspace/internal/models"
)

type RouteTable struct {
	// PublicOnly pages are for logged-out visitors; a logged-in user is
	// sent to Feed instead.
	PublicOnly []string
	// TokenPages behave like PublicOnly pages.
	TokenPages []*regexp.Regexp
	// Exempt paths pass for everybody. An entry ending in "/" matches the
	// whole subtree.
	Exempt []string
	// Aliases always redirect.
	Aliases map[string]string

	Feed           string
	Login          string
	SettingsPrefix string
	SettingsHome   string

	Capabilities func(models.Role) access.Capabilities
}

var tokenSegment = `[a-zA-Z0-9._-]+`

func DefaultTable() RouteTable {
	return RouteTable{
		PublicOnly: []string{"/", "/auth/login", "/auth/register"},
		TokenPages: []*regexp.Regexp{
			regexp.MustCompile(`^/auth/verify/` + tokenSegment + `/?$`),
			regexp.MustCompile(`^/auth/team-invite/` + tokenSegment + `/?$`),
		},
		Exempt: []string{"/explore", "/space/view/", "/thread/view/", "/profile/"},
		Aliases: map[string]string{
			"/auth":        "/auth/login",
			"/auth/verify": "/auth/login",
		},
		Feed:           access.ExplorePath,
		Login:          access.LoginPath,
		SettingsPrefix: "/settings",
		SettingsHome:   "/settings/profile",
		Capabilities:   access.For,
	}
}

func (t RouteTable) publicOnly(path string) bool {
	for _, p := range t.PublicOnly {
		if path == p {
			return true
		}
	}
	for _, re := range t.TokenPages {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func (t RouteTable) exempt(path string) bool {
	for _, e := range t.Exempt {
		if path == e || (strings.HasSuffix(e, "/") && strings.HasPrefix(path, e)) {
			return true
		}
	}
	return false
}

func (t RouteTable) settingsPage(path string) (string, bool) {
	if path == t.SettingsPrefix {
		return "", true
	}
	rest, ok := strings.CutPrefix(path, t.SettingsPrefix+"/")
	return rest, ok
}
