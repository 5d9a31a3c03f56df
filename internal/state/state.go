// Package state holds the client's in-memory application state: the session
// user and the onboarding wizard. Reducers are pure; Store serializes them.
package state

import (
	"context"
	"slices"
	"sync"

	"inkyspace/internal/models"
)

type UserState struct {
	User    *models.User `json:"user"`
	Loading bool         `json:"loading"`
}

type OnboardingState struct {
	CurrentStep      int                     `json:"currentStep"`
	SelectedTags     []string                `json:"selectedTags"`
	SubscribedSpaces []models.SpaceSelection `json:"subscribedSpaces"`
	IsCompleted      bool                    `json:"isCompleted"`
	IsLoading        bool                    `json:"isLoading"`
}

type AppState struct {
	User       UserState       `json:"user"`
	Onboarding OnboardingState `json:"onboarding"`
}

// Action is a pure state transition.
type Action func(AppState) AppState

func SetUser(u *models.User) Action {
	return func(s AppState) AppState {
		if u == nil {
			s.User.User = nil
			return s
		}
		cp := *u
		cp.SubscribedTags = slices.Clone(u.SubscribedTags)
		s.User.User = &cp
		return s
	}
}

func ClearUser() Action {
	return func(s AppState) AppState {
		s.User = UserState{}
		s.Onboarding = OnboardingState{}
		return s
	}
}

func SetLoading(v bool) Action {
	return func(s AppState) AppState {
		s.User.Loading = v
		return s
	}
}

func MarkOnboarded() Action {
	return func(s AppState) AppState {
		s.Onboarding.IsCompleted = true
		if s.User.User != nil {
			cp := *s.User.User
			cp.OnboardComplete = true
			s.User.User = &cp
		}
		return s
	}
}

func SetStep(step int) Action {
	return func(s AppState) AppState {
		s.Onboarding.CurrentStep = step
		return s
	}
}

func SetSelectedTags(tags []string) Action {
	return func(s AppState) AppState {
		s.Onboarding.SelectedTags = slices.Clone(tags)
		return s
	}
}

func SetOnboardingLoading(v bool) Action {
	return func(s AppState) AppState {
		s.Onboarding.IsLoading = v
		return s
	}
}

// ToggleSpaceSelection adds spaceID to the wizard selection (newsletter off)
// or removes it when already selected.
func ToggleSpaceSelection(spaceID string) Action {
	return func(s AppState) AppState {
		sel := s.Onboarding.SubscribedSpaces
		i := slices.IndexFunc(sel, func(x models.SpaceSelection) bool { return x.SpaceID == spaceID })
		if i >= 0 {
			s.Onboarding.SubscribedSpaces = slices.Delete(slices.Clone(sel), i, i+1)
		} else {
			s.Onboarding.SubscribedSpaces = append(slices.Clone(sel), models.SpaceSelection{SpaceID: spaceID})
		}
		return s
	}
}

// ToggleSelectionNewsletter flips the newsletter flag of a selected space.
// Unselected spaces are left alone.
func ToggleSelectionNewsletter(spaceID string) Action {
	return func(s AppState) AppState {
		sel := slices.Clone(s.Onboarding.SubscribedSpaces)
		for i := range sel {
			if sel[i].SpaceID == spaceID {
				sel[i].IsNewsletter = !sel[i].IsNewsletter
			}
		}
		s.Onboarding.SubscribedSpaces = sel
		return s
	}
}

type Store struct {
	mu    sync.RWMutex
	state AppState
}

func NewStore(initial AppState) *Store {
	return &Store{state: initial}
}

func (s *Store) Dispatch(actions ...Action) AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range actions {
		s.state = a(s.state)
	}
	return s.state
}

func (s *Store) Snapshot() AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User.User == nil {
		return nil
	}
	cp := *s.state.User.User
	return &cp
}

func (s *Store) Viewer() models.Viewer {
	return models.ViewerOf(s.User())
}

type storeKey struct{}

func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeKey{}, s)
}

// FromContext returns the Store carried by ctx, or nil.
func FromContext(ctx context.Context) *Store {
	s, _ := ctx.Value(storeKey{}).(*Store)
	return s
}
