package access

import "inkyspace/internal/models"

type Outcome int

const (
	Allow Outcome = iota
	Deny
	RedirectExplore
	RedirectLogin
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case RedirectExplore:
		return "redirect-explore"
	case RedirectLogin:
		return "redirect-login"
	default:
		return "unknown"
	}
}

const (
	ExplorePath = "/explore"
	LoginPath   = "/auth/login"
)

const PrivateSpaceMessage = "This space is private. Subscribe to get access to its threads."

// SpaceFacts are the Space properties gating depends on.
type SpaceFacts struct {
	OwnerID             string
	IsPrivate           bool
	HasPublishedThreads bool
	IsSubscribed        bool
}

func FactsOf(s models.Space, hasPublished bool) SpaceFacts {
	return SpaceFacts{
		OwnerID:             s.OwnerID,
		IsPrivate:           s.IsPrivate,
		HasPublishedThreads: hasPublished || s.PublishedThreads > 0,
		IsSubscribed:        s.IsSubscribed,
	}
}

// Decision is the result of gating. Deny is soft: the page renders
// Message with subscribe controls. Redirects carry their target in Location.
type Decision struct {
	Outcome  Outcome
	Location string
	Message  string
}

// DecideSpace applies, in order: anonymous viewers, the Space's own Owner,
// an Editor inside the inviting Owner's Space, then everybody else.
func DecideSpace(v models.Viewer, f SpaceFacts) Decision {
	switch {
	case v.Anonymous():
		if !f.HasPublishedThreads {
			return Decision{Outcome: RedirectExplore, Location: ExplorePath}
		}
		if f.IsPrivate {
			return Decision{Outcome: RedirectLogin, Location: LoginPath}
		}
		return Decision{Outcome: Allow}
	case v.Role == models.RoleOwner && v.UserID == f.OwnerID:
		return Decision{Outcome: Allow}
	case v.Role == models.RoleEditor && v.ParentOwnerID != "" && v.ParentOwnerID == f.OwnerID:
		if f.IsPrivate && !f.HasPublishedThreads {
			return Decision{Outcome: RedirectExplore, Location: ExplorePath}
		}
		return Decision{Outcome: Allow}
	default:
		if !f.HasPublishedThreads {
			return Decision{Outcome: RedirectExplore, Location: ExplorePath}
		}
		if f.IsPrivate && !f.IsSubscribed {
			return Decision{Outcome: Deny, Message: PrivateSpaceMessage}
		}
		return Decision{Outcome: Allow}
	}
}
