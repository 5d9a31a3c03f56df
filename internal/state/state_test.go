package state

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkyspace/internal/models"
)

func TestStoreReducers(t *testing.T) {
	s := NewStore(AppState{})
	u := &models.User{UserID: "u-1", Name: "Ada", Role: models.RoleReader, SubscribedTags: []string{"go"}}

	s.Dispatch(SetUser(u))
	u.SubscribedTags[0] = "mutated"
	got := s.User()
	require.NotNil(t, got)
	assert.Equal(t, "go", got.SubscribedTags[0])
	assert.Equal(t, models.Viewer{UserID: "u-1", Role: models.RoleReader}, s.Viewer())

	st := s.Dispatch(SetStep(1), SetSelectedTags([]string{"go", "rust"}), MarkOnboarded())
	assert.Equal(t, 1, st.Onboarding.CurrentStep)
	assert.True(t, st.Onboarding.IsCompleted)
	assert.True(t, st.User.User.OnboardComplete)

	st = s.Dispatch(ClearUser())
	assert.Nil(t, st.User.User)
	assert.Equal(t, OnboardingState{}, st.Onboarding)
	assert.Equal(t, models.Viewer{}, s.Viewer())
}

func TestSpaceSelectionToggles(t *testing.T) {
	s := NewStore(AppState{})
	s.Dispatch(ToggleSpaceSelection("a"), ToggleSpaceSelection("b"), ToggleSelectionNewsletter("b"))
	assert.Equal(t, []models.SpaceSelection{{SpaceID: "a"}, {SpaceID: "b", IsNewsletter: true}}, s.Snapshot().Onboarding.SubscribedSpaces)

	s.Dispatch(ToggleSpaceSelection("a"), ToggleSelectionNewsletter("missing"))
	assert.Equal(t, []models.SpaceSelection{{SpaceID: "b", IsNewsletter: true}}, s.Snapshot().Onboarding.SubscribedSpaces)
}

func TestStoreFromContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	s := NewStore(AppState{})
	assert.Same(t, s, FromContext(WithStore(context.Background(), s)))
}

func TestStoreConcurrentDispatch(t *testing.T) {
	s := NewStore(AppState{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch(func(st AppState) AppState {
				st.Onboarding.CurrentStep++
				return st
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Snapshot().Onboarding.CurrentStep)
}
