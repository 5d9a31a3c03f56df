package devapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkyspace/internal/models"
)

func TestInviteBatchCounts(t *testing.T) {
	env := setupTestServer(t, Options{})
	ctx := context.Background()

	owner, _ := env.signUp(t, "Olive Owner", "olive@example.com", models.RoleOwner)
	env.signUp(t, "Rita Reader", "rita@example.com", models.RoleReader)

	_, err := owner.Invites.Create(ctx, []string{" ", ""})
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))

	res, err := owner.Invites.Create(ctx, []string{"a@example.com", "A@example.com ", "not-an-email", "rita@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.InviteResult{Success: true, Invited: 1, Failed: 2}, res)

	res, err = owner.Invites.Create(ctx, []string{"a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.InviteResult{Invited: 0, Failed: 1}, res)

	pending, err := owner.Invites.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a@example.com", pending[0].UserEmail)
}

func TestInviteLifecycle(t *testing.T) {
	env := setupTestServer(t, Options{})
	ctx := context.Background()

	owner, _ := env.signUp(t, "Olive Owner", "olive@example.com", models.RoleOwner)
	other, _ := env.signUp(t, "Otto Other", "otto@example.com", models.RoleOwner)
	reader, _ := env.signUp(t, "Rita Reader", "rita@example.com", models.RoleReader)

	_, err := reader.Invites.Create(ctx, []string{"x@example.com"})
	assert.Equal(t, http.StatusForbidden, apiStatus(t, err))

	_, err = owner.Invites.Create(ctx, []string{"eddie@example.com"})
	require.NoError(t, err)
	pending, err := owner.Invites.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	inviteID := pending[0].InviteID
	first, _ := env.outbox.Last(MailInvite, "eddie@example.com")
	assert.Equal(t, "Olive Owner", first.From)

	assert.Equal(t, http.StatusNotFound, apiStatus(t, other.Invites.Resend(ctx, inviteID)))
	require.NoError(t, owner.Invites.Resend(ctx, inviteID))
	second, _ := env.outbox.Last(MailInvite, "eddie@example.com")
	require.NotEqual(t, first.Token, second.Token)

	invitee := env.client(t)
	_, err = invitee.Invites.Verify(ctx, first.Token)
	assert.Equal(t, http.StatusNotFound, apiStatus(t, err))
	st, err := invitee.Invites.Verify(ctx, second.Token)
	require.NoError(t, err)
	assert.False(t, st.IsAccepted)

	err = invitee.Invites.Accept(ctx, second.Token, models.AcceptInviteData{Name: "Eddie", Password: "short"})
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
	require.NoError(t, invitee.Invites.Accept(ctx, second.Token, models.AcceptInviteData{Name: "Eddie", Password: "editor-pass"}))
	err = env.client(t).Invites.Accept(ctx, second.Token, models.AcceptInviteData{Name: "Eddie", Password: "editor-pass"})
	assert.Equal(t, http.StatusConflict, apiStatus(t, err))

	st, err = invitee.Invites.Verify(ctx, second.Token)
	require.NoError(t, err)
	assert.True(t, st.IsAccepted)

	pending, err = owner.Invites.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	editors, err := owner.Invites.Editors(ctx)
	require.NoError(t, err)
	require.Len(t, editors, 1)
	assert.Equal(t, "eddie@example.com", editors[0].Email)

	assert.Equal(t, http.StatusConflict, apiStatus(t, owner.Invites.Resend(ctx, inviteID)))
	assert.Equal(t, http.StatusConflict, apiStatus(t, owner.Invites.Delete(ctx, inviteID)))

	require.NoError(t, owner.Invites.RemoveEditor(ctx, inviteID))
	editors, err = owner.Invites.Editors(ctx)
	require.NoError(t, err)
	assert.Empty(t, editors)
	st2, err := invitee.Auth.Verify(ctx)
	require.NoError(t, err)
	assert.False(t, st2.IsLoggedIn, "the removed editor's session ends")
}

func TestDeletePendingInvite(t *testing.T) {
	env := setupTestServer(t, Options{})
	ctx := context.Background()

	owner, _ := env.signUp(t, "Olive Owner", "olive@example.com", models.RoleOwner)
	_, err := owner.Invites.Create(ctx, []string{"eddie@example.com"})
	require.NoError(t, err)
	pending, err := owner.Invites.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, owner.Invites.Delete(ctx, pending[0].InviteID))
	assert.Equal(t, http.StatusNotFound, apiStatus(t, owner.Invites.Delete(ctx, pending[0].InviteID)))
	// The address can be invited again.
	res, err := owner.Invites.Create(ctx, []string{"eddie@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Invited)
}

func TestOnboardingFlow(t *testing.T) {
	env := setupTestServer(t, Options{})
	ctx := context.Background()

	owner, _ := env.signUp(t, "Olive Owner", "olive@example.com", models.RoleOwner)
	spaceID, err := owner.Spaces.Create(ctx, models.CreateSpaceData{Title: "Field Notes"})
	require.NoError(t, err)
	_, err = owner.Spaces.Create(ctx, models.CreateSpaceData{Title: "Hidden", IsPrivate: true})
	require.NoError(t, err)

	reader, _ := env.signUp(t, "Rita Reader", "rita@example.com", models.RoleReader)
	tags, err := reader.Onboarding.Tags(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, tags)

	assert.Equal(t, http.StatusBadRequest, apiStatus(t, reader.Onboarding.SubmitTags(ctx, nil)))
	require.NoError(t, reader.Onboarding.SubmitTags(ctx, []string{tags[0].ID, tags[1].ID}))
	me, err := reader.Auth.CurrentUser(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{tags[0].ID, tags[1].ID}, me.SubscribedTags)

	suggested, err := reader.Onboarding.SuggestedSpaces(ctx, me.SubscribedTags)
	require.NoError(t, err)
	require.Len(t, suggested, 1)
	assert.Equal(t, spaceID, suggested[0].SpaceID)

	require.NoError(t, reader.Onboarding.Subscribe(ctx, []models.SpaceSelection{
		{SpaceID: spaceID, IsNewsletter: true},
		{SpaceID: "missing"},
	}))
	st, err := reader.Spaces.SubscriptionStatus(ctx, spaceID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatus{IsSubscribed: true, IsNewsletter: true}, st)

	suggested, err = reader.Onboarding.SuggestedSpaces(ctx, me.SubscribedTags)
	require.NoError(t, err)
	assert.Empty(t, suggested)

	require.NoError(t, reader.Onboarding.Complete(ctx))
	me, err = reader.Auth.CurrentUser(ctx)
	require.NoError(t, err)
	assert.True(t, me.OnboardComplete)
}
