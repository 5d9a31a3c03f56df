package onboarding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkyspace/internal/models"
	"inkyspace/internal/notify"
	"inkyspace/internal/state"
)

type fakeAPI struct {
	calls       []string
	tags        []string
	spaces      []models.SpaceSelection
	emails      []string
	completeErr error
}

func (f *fakeAPI) Tags(context.Context) ([]models.Tag, error) {
	f.calls = append(f.calls, "tags")
	return []models.Tag{{ID: "go", Name: "Go"}}, nil
}

func (f *fakeAPI) SubmitTags(_ context.Context, ids []string) error {
	f.calls = append(f.calls, "submit-tags")
	f.tags = ids
	return nil
}

func (f *fakeAPI) SuggestedSpaces(_ context.Context, ids []string) ([]models.Space, error) {
	f.calls = append(f.calls, "suggested")
	return []models.Space{{SpaceID: "sp-1", Title: "Gophers"}}, nil
}

func (f *fakeAPI) Subscribe(_ context.Context, spaces []models.SpaceSelection) error {
	f.calls = append(f.calls, "subscribe")
	f.spaces = spaces
	return nil
}

func (f *fakeAPI) InviteEditors(_ context.Context, emails []string) (models.InviteResult, error) {
	f.calls = append(f.calls, "invite")
	f.emails = emails
	return models.InviteResult{Success: true, Invited: len(emails)}, nil
}

func (f *fakeAPI) Complete(context.Context) error {
	f.calls = append(f.calls, "complete")
	return f.completeErr
}

func newWizard(role models.Role) (*Wizard, *fakeAPI, *state.Store, *notify.Queue) {
	api := &fakeAPI{}
	store := state.NewStore(state.AppState{})
	store.Dispatch(state.SetUser(&models.User{UserID: "u-1", Role: role}))
	notes := notify.NewQueue()
	return New(api, store, notes), api, store, notes
}

func TestReaderFlow(t *testing.T) {
	ctx := context.Background()
	w, api, store, notes := newWizard(models.RoleReader)
	require.True(t, w.Visible())
	assert.Equal(t, StepTags, w.Current())

	tags, err := w.Tags(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, w.SubmitTags(ctx, tags), ErrNoSelection)

	w.ToggleTag("go")
	w.ToggleTag("rust")
	w.ToggleTag("rust")
	require.NoError(t, w.SubmitTags(ctx, tags))
	assert.Equal(t, []string{"go"}, api.tags)
	assert.Equal(t, StepSubscribe, w.Current())

	suggested, err := w.Suggestions(ctx)
	require.NoError(t, err)
	require.Len(t, suggested, 1)
	w.ToggleSpace("sp-1")
	w.ToggleNewsletter("sp-1")
	require.NoError(t, w.Subscribe(ctx))

	assert.Equal(t, []models.SpaceSelection{{SpaceID: "sp-1", IsNewsletter: true}}, api.spaces)
	assert.Equal(t, []string{"tags", "submit-tags", "suggested", "subscribe", "complete"}, api.calls)
	assert.False(t, w.Visible())
	assert.Equal(t, StepDone, w.Current())
	assert.True(t, store.User().OnboardComplete)
	assert.False(t, store.Snapshot().Onboarding.IsLoading)
	require.Len(t, notes.Active(), 1)
}

func TestTagStepWithoutTagsAdvancesSilently(t *testing.T) {
	w, api, _, _ := newWizard(models.RoleReader)
	require.NoError(t, w.SubmitTags(context.Background(), nil))
	assert.Equal(t, StepSubscribe, w.Current())
	assert.Empty(t, api.calls)
}

func TestOwnerFlow(t *testing.T) {
	ctx := context.Background()
	w, api, _, _ := newWizard(models.RoleOwner)
	assert.Equal(t, StepInvite, w.Current())

	assert.ErrorIs(t, w.Invite(ctx, []string{" ", ""}), ErrNoEmails)
	require.NoError(t, w.Invite(ctx, []string{"a@x.io", " a@x.io ", "b@x.io"}))
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, api.emails)
	assert.Equal(t, StepCreateSpace, w.Current())

	next, err := w.CreateSpace(ctx)
	require.NoError(t, err)
	assert.Equal(t, CreateSpacePath, next)
	assert.False(t, w.Visible())
}

func TestOwnerSkipsInvitation(t *testing.T) {
	w, api, _, _ := newWizard(models.RoleOwner)
	require.NoError(t, w.SkipInvite())
	assert.Equal(t, StepCreateSpace, w.Current())
	assert.Empty(t, api.calls)
}

func TestSkipCompletesWithoutPayload(t *testing.T) {
	w, api, _, _ := newWizard(models.RoleReader)
	require.NoError(t, w.Skip(context.Background()))
	assert.Equal(t, []string{"complete"}, api.calls)
	assert.False(t, w.Visible())
}

func TestDismissIsOwnerOnly(t *testing.T) {
	reader, api, _, _ := newWizard(models.RoleReader)
	assert.ErrorIs(t, reader.Dismiss(context.Background()), ErrNotAllowed)
	assert.Empty(t, api.calls)
	assert.True(t, reader.Visible())

	owner, ownerAPI, _, _ := newWizard(models.RoleOwner)
	require.NoError(t, owner.Dismiss(context.Background()))
	assert.Equal(t, []string{"complete"}, ownerAPI.calls)
	assert.False(t, owner.Visible())
}

func TestWrongRoleAndStep(t *testing.T) {
	ctx := context.Background()
	reader, _, _, _ := newWizard(models.RoleReader)
	assert.ErrorIs(t, reader.Invite(ctx, []string{"a@x.io"}), ErrNotAllowed)
	assert.ErrorIs(t, reader.Subscribe(ctx), ErrWrongStep)

	editor, _, _, _ := newWizard(models.RoleEditor)
	assert.False(t, editor.Visible())
}

func TestFailedCompletionKeepsWizardOpen(t *testing.T) {
	w, api, _, _ := newWizard(models.RoleOwner)
	api.completeErr = errors.New("offline")
	assert.Error(t, w.Dismiss(context.Background()))
	assert.True(t, w.Visible())
}

func TestHiddenWithoutUser(t *testing.T) {
	w := New(&fakeAPI{}, state.NewStore(state.AppState{}), nil)
	assert.False(t, w.Visible())
	assert.Equal(t, StepDone, w.Current())
}
