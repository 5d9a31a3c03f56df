// Package onboarding drives the two-step welcome wizard. Readers pick topic
// tags and then subscribe to suggested spaces; Owners invite editors and
// then go on to create their first space.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"inkyspace/internal/models"
	"inkyspace/internal/notify"
	"inkyspace/internal/state"
)

type Step string

const (
	StepTags        Step = "tags"
	StepSubscribe   Step = "subscribe"
	StepInvite      Step = "invite"
	StepCreateSpace Step = "create-space"
	StepDone        Step = "done"
)

// CreateSpacePath is where an Owner goes after the last step.
const CreateSpacePath = "/space/new"

var (
	ErrNotAllowed  = errors.New("onboarding action not allowed for this user")
	ErrWrongStep   = errors.New("onboarding step is not active")
	ErrNoSelection = errors.New("select at least one tag to continue")
	ErrNoEmails    = errors.New("add at least one email to invite editors")
)

type API interface {
	Tags(ctx context.Context) ([]models.Tag, error)
	SubmitTags(ctx context.Context, tagIDs []string) error
	SuggestedSpaces(ctx context.Context, tagIDs []string) ([]models.Space, error)
	Subscribe(ctx context.Context, spaces []models.SpaceSelection) error
	InviteEditors(ctx context.Context, emails []string) (models.InviteResult, error)
	Complete(ctx context.Context) error
}

type Wizard struct {
	api   API
	store *state.Store
	notes *notify.Queue
}

// New builds a wizard over store. notes may be nil.
func New(api API, store *state.Store, notes *notify.Queue) *Wizard {
	return &Wizard{api: api, store: store, notes: notes}
}

func StepsFor(role models.Role) []Step {
	switch role {
	case models.RoleReader:
		return []Step{StepTags, StepSubscribe}
	case models.RoleOwner:
		return []Step{StepInvite, StepCreateSpace}
	default:
		return nil
	}
}

// Visible reports whether the wizard should block the page.
func (w *Wizard) Visible() bool {
	st := w.store.Snapshot()
	u := st.User.User
	if u == nil || u.OnboardComplete || st.Onboarding.IsCompleted {
		return false
	}
	return len(StepsFor(u.Role)) > 0
}

func (w *Wizard) Current() Step {
	if !w.Visible() {
		return StepDone
	}
	st := w.store.Snapshot()
	steps := StepsFor(st.User.User.Role)
	i := st.Onboarding.CurrentStep
	if i < 0 || i >= len(steps) {
		return StepDone
	}
	return steps[i]
}

func (w *Wizard) expect(step Step) error {
	u := w.store.User()
	if u == nil || !slices.Contains(StepsFor(u.Role), step) {
		return ErrNotAllowed
	}
	if cur := w.Current(); cur != step {
		return fmt.Errorf("%w: %s (current %s)", ErrWrongStep, step, cur)
	}
	return nil
}

func (w *Wizard) busy(fn func() error) error {
	w.store.Dispatch(state.SetOnboardingLoading(true))
	defer w.store.Dispatch(state.SetOnboardingLoading(false))
	return fn()
}

func (w *Wizard) note(kind notify.Kind, text string) {
	if w.notes != nil {
		w.notes.Push(kind, text)
	}
}

func (w *Wizard) Tags(ctx context.Context) ([]models.Tag, error) {
	if err := w.expect(StepTags); err != nil {
		return nil, err
	}
	return w.api.Tags(ctx)
}

func (w *Wizard) ToggleTag(tagID string) {
	sel := w.store.Snapshot().Onboarding.SelectedTags
	if i := slices.Index(sel, tagID); i >= 0 {
		sel = slices.Delete(slices.Clone(sel), i, i+1)
	} else {
		sel = append(slices.Clone(sel), tagID)
	}
	w.store.Dispatch(state.SetSelectedTags(sel))
}

// SubmitTags posts the selected tags and moves to the subscribe step. With
// no tags on offer the step is passed without a request.
func (w *Wizard) SubmitTags(ctx context.Context, available []models.Tag) error {
	if err := w.expect(StepTags); err != nil {
		return err
	}
	if len(available) == 0 {
		w.store.Dispatch(state.SetStep(1))
		return nil
	}
	selected := w.store.Snapshot().Onboarding.SelectedTags
	if len(selected) == 0 {
		return ErrNoSelection
	}
	return w.busy(func() error {
		if err := w.api.SubmitTags(ctx, selected); err != nil {
			return fmt.Errorf("submit tags: %w", err)
		}
		w.store.Dispatch(state.SetStep(1))
		return nil
	})
}

func (w *Wizard) Suggestions(ctx context.Context) ([]models.Space, error) {
	if err := w.expect(StepSubscribe); err != nil {
		return nil, err
	}
	tags := w.store.Snapshot().Onboarding.SelectedTags
	if len(tags) == 0 {
		return nil, nil
	}
	return w.api.SuggestedSpaces(ctx, tags)
}

func (w *Wizard) ToggleSpace(spaceID string) {
	w.store.Dispatch(state.ToggleSpaceSelection(spaceID))
}

func (w *Wizard) ToggleNewsletter(spaceID string) {
	w.store.Dispatch(state.ToggleSelectionNewsletter(spaceID))
}

// Subscribe saves the chosen spaces and completes onboarding.
func (w *Wizard) Subscribe(ctx context.Context) error {
	if err := w.expect(StepSubscribe); err != nil {
		return err
	}
	sel := w.store.Snapshot().Onboarding.SubscribedSpaces
	return w.busy(func() error {
		if len(sel) > 0 {
			if err := w.api.Subscribe(ctx, sel); err != nil {
				return fmt.Errorf("subscribe to spaces: %w", err)
			}
			w.note(notify.Success, "Your preferences have been saved successfully!")
		}
		return w.complete(ctx)
	})
}

// Invite sends editor invitations and moves to the create-space step.
func (w *Wizard) Invite(ctx context.Context, emails []string) error {
	if err := w.expect(StepInvite); err != nil {
		return err
	}
	clean := make([]string, 0, len(emails))
	for _, e := range emails {
		if e = strings.TrimSpace(e); e != "" && !slices.Contains(clean, e) {
			clean = append(clean, e)
		}
	}
	if len(clean) == 0 {
		return ErrNoEmails
	}
	return w.busy(func() error {
		if _, err := w.api.InviteEditors(ctx, clean); err != nil {
			return fmt.Errorf("invite editors: %w", err)
		}
		w.note(notify.Success, "Successfully sent invitations to editors.")
		w.store.Dispatch(state.SetStep(1))
		return nil
	})
}

// SkipInvite moves an Owner past the invitation step without inviting.
func (w *Wizard) SkipInvite() error {
	if err := w.expect(StepInvite); err != nil {
		return err
	}
	w.store.Dispatch(state.SetStep(1))
	return nil
}

// CreateSpace finishes the Owner flow and returns where the space form
// lives.
func (w *Wizard) CreateSpace(ctx context.Context) (string, error) {
	if err := w.expect(StepCreateSpace); err != nil {
		return "", err
	}
	if err := w.complete(ctx); err != nil {
		return "", err
	}
	return CreateSpacePath, nil
}

// Skip completes onboarding from any step without the step payload.
func (w *Wizard) Skip(ctx context.Context) error {
	if !w.Visible() {
		return ErrWrongStep
	}
	return w.complete(ctx)
}

// Dismiss closes the wizard for good. Only Owners may close it.
func (w *Wizard) Dismiss(ctx context.Context) error {
	u := w.store.User()
	if u == nil || u.Role != models.RoleOwner {
		return ErrNotAllowed
	}
	return w.complete(ctx)
}

func (w *Wizard) complete(ctx context.Context) error {
	if err := w.api.Complete(ctx); err != nil {
		return fmt.Errorf("complete onboarding: %w", err)
	}
	w.store.Dispatch(state.MarkOnboarded())
	return nil
}
