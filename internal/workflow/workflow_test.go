package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkyspace/internal/models"
)

var allStatuses = []models.ThreadStatus{models.StatusDraft, models.StatusAwaiting, models.StatusRevision, models.StatusPublished}
var allActions = []Action{ActionEdit, ActionDelete, ActionSubmit, ActionApprove, ActionReject}

func TestTransitionTable(t *testing.T) {
	valid := map[models.ThreadStatus]map[Action]models.ThreadStatus{
		models.StatusDraft:    {ActionSubmit: models.StatusAwaiting},
		models.StatusRevision: {ActionSubmit: models.StatusAwaiting},
		models.StatusAwaiting: {ActionApprove: models.StatusPublished, ActionReject: models.StatusRevision},
	}
	for _, from := range allStatuses {
		for _, action := range allActions {
			got, err := Transition(from, action, "reason")
			want, ok := valid[from][action]
			if ok {
				require.NoError(t, err, "%s from %s", action, from)
				assert.Equal(t, want, got)
				continue
			}
			assert.True(t, errors.Is(err, ErrInvalidTransition), "%s from %s should be rejected", action, from)
			assert.Equal(t, from, got)
		}
	}
}

func TestRejectRequiresReason(t *testing.T) {
	for _, reason := range []string{"", "   ", "\n\t"} {
		_, err := Transition(models.StatusAwaiting, ActionReject, reason)
		assert.ErrorIs(t, err, ErrReasonRequired)
	}
}

func TestEditorSubmitThenOwnerRejects(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	editor := models.Viewer{UserID: "ed-1", Role: models.RoleEditor, ParentOwnerID: "own-1"}
	owner := models.Viewer{UserID: "own-1", Role: models.RoleOwner}

	th := models.Thread{
		ThreadID: "t-1",
		SpaceID:  "sp-1",
		OwnerID:  "own-1",
		EditorID: "ed-1",
		Title:    "My First Post",
		Tags:     []models.Tag{{ID: "go", Name: "Go"}},
		Status:   models.StatusDraft,
	}
	assert.NotContains(t, Actions(th, owner), ActionReject)
	assert.Contains(t, Actions(th, editor), ActionSubmit)

	th, err := Apply(th, ActionSubmit, "", now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaiting, th.Status)
	assert.Contains(t, Actions(th, owner), ActionReject)
	assert.NotContains(t, Actions(th, editor), ActionReject)
	assert.NotContains(t, Actions(th, editor), ActionSubmit)

	th, err = Apply(th, ActionReject, "Needs more detail", now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRevision, th.Status)
	assert.Equal(t, "Needs more detail", th.RejectionReason)

	th, err = Apply(th, ActionSubmit, "", now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwaiting, th.Status)
	assert.Empty(t, th.RejectionReason)

	th, err = Apply(th, ActionApprove, "", now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, th.Status)
	assert.Equal(t, "2024-03-01T12:00:00Z", th.PublishedOn)
	assert.Equal(t, []Action{ActionEdit}, Actions(th, editor))
}

func TestActionsForStrangers(t *testing.T) {
	th := models.Thread{OwnerID: "own-1", EditorID: "ed-1", Status: models.StatusAwaiting}
	assert.Empty(t, Actions(th, models.Viewer{}))
	assert.Empty(t, Actions(th, models.Viewer{UserID: "r-1", Role: models.RoleReader}))
	assert.Empty(t, Actions(th, models.Viewer{UserID: "own-2", Role: models.RoleOwner}))
	assert.Empty(t, Actions(th, models.Viewer{UserID: "ed-2", Role: models.RoleEditor}))
	assert.False(t, Allowed(th, models.Viewer{UserID: "ed-1", Role: models.RoleEditor}, ActionApprove))
	assert.True(t, Allowed(th, models.Viewer{UserID: "own-1", Role: models.RoleOwner}, ActionApprove))
}

func TestApplyInvalidLeavesThreadUntouched(t *testing.T) {
	th := models.Thread{Status: models.StatusPublished, UpdatedOn: "x"}
	got, err := Apply(th, ActionSubmit, "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, th, got)
}
