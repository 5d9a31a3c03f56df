// Package workflow is the thread approval state machine shared by the client
// surfaces and the development API.
//
//	D --submit--> A --approve--> P
//	R --submit--> A --reject---> R
package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"inkyspace/internal/models"
)

type Action string

const (
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

var (
	ErrInvalidTransition = errors.New("invalid thread transition")
	ErrReasonRequired    = errors.New("a rejection reason is required")
)

var transitions = map[models.ThreadStatus]map[Action]models.ThreadStatus{
	models.StatusDraft:    {ActionSubmit: models.StatusAwaiting},
	models.StatusRevision: {ActionSubmit: models.StatusAwaiting},
	models.StatusAwaiting: {
		ActionApprove: models.StatusPublished,
		ActionReject:  models.StatusRevision,
	},
}

// Transition returns the status reached from `from` by action. Reject
// requires a non-blank reason.
func Transition(from models.ThreadStatus, action Action, reason string) (models.ThreadStatus, error) {
	next, ok := transitions[from][action]
	if !ok {
		return from, fmt.Errorf("%w: %s from %q", ErrInvalidTransition, action, from)
	}
	if action == ActionReject && strings.TrimSpace(reason) == "" {
		return from, ErrReasonRequired
	}
	return next, nil
}

// Actions lists what viewer may do with t. The Editor who wrote the thread
// edits and submits it; the Owner of its Space approves or rejects it.
func Actions(t models.Thread, viewer models.Viewer) []Action {
	if viewer.Anonymous() {
		return nil
	}
	var out []Action
	switch {
	case viewer.Role == models.RoleEditor && viewer.UserID == t.EditorID:
		out = append(out, ActionEdit)
		if t.Status != models.StatusPublished {
			out = append(out, ActionDelete)
		}
		if t.Status == models.StatusDraft || t.Status == models.StatusRevision {
			out = append(out, ActionSubmit)
		}
	case viewer.Role == models.RoleOwner && viewer.UserID == t.OwnerID:
		if t.Status == models.StatusAwaiting {
			out = append(out, ActionApprove, ActionReject)
		}
		out = append(out, ActionDelete)
	}
	return out
}

func Allowed(t models.Thread, viewer models.Viewer, action Action) bool {
	for _, a := range Actions(t, viewer) {
		if a == action {
			return true
		}
	}
	return false
}

// Apply mirrors a server-confirmed transition onto a local copy of t.
func Apply(t models.Thread, action Action, reason string, now time.Time) (models.Thread, error) {
	next, err := Transition(t.Status, action, reason)
	if err != nil {
		return t, err
	}
	t.Status = next
	switch action {
	case ActionSubmit:
		t.RejectionReason = ""
	case ActionReject:
		t.RejectionReason = reason
	case ActionApprove:
		t.RejectionReason = ""
		t.PublishedOn = now.UTC().Format(time.RFC3339)
	}
	t.UpdatedOn = now.UTC().Format(time.RFC3339)
	return t, nil
}
