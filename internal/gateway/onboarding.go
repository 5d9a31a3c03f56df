package gateway

import (
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"inkyspace/internal/access"
	"inkyspace/internal/models"
	"inkyspace/internal/notify"
	"inkyspace/internal/onboarding"
	"inkyspace/internal/state"
)

type wizardModel struct {
	Steps       []onboarding.Step     `json:"steps"`
	Current     onboarding.Step       `json:"current"`
	State       state.OnboardingState `json:"state"`
	Tags        []models.Tag          `json:"tags,omitempty"`
	Suggestions []models.Space        `json:"suggestions,omitempty"`
	CanDismiss  bool                  `json:"canDismiss"`
}

func (s *Server) onboardingRoutes(r chi.Router) {
	r.Get("/", s.wizardPage)
	r.Post("/tags", s.wizardTags)
	r.Post("/subscribe", s.wizardSubscribe)
	r.Post("/invite", s.wizardInvite)
	r.Post("/skip-invite", s.wizardStep(func(wz *onboarding.Wizard, _ *http.Request) error { return wz.SkipInvite() }))
	r.Post("/create-space", s.wizardCreateSpace)
	r.Post("/skip", s.wizardStep(func(wz *onboarding.Wizard, r *http.Request) error { return wz.Skip(r.Context()) }))
	r.Post("/dismiss", s.wizardStep(func(wz *onboarding.Wizard, r *http.Request) error { return wz.Dismiss(r.Context()) }))
}

func wizardFor(v *visit) *onboarding.Wizard {
	return onboarding.New(v.api.Onboarding, v.store, v.notes)
}

// renderWizard shows the active step, or leaves for the feed once the
// wizard has nothing left to show.
func (s *Server) renderWizard(w http.ResponseWriter, r *http.Request, wz *onboarding.Wizard) {
	v := visitFrom(r.Context())
	if !wz.Visible() {
		s.redirect(w, r, access.ExplorePath)
		return
	}
	u := v.user()
	m := wizardModel{
		Steps:      onboarding.StepsFor(u.Role),
		Current:    wz.Current(),
		State:      v.store.Snapshot().Onboarding,
		CanDismiss: u.Role == models.RoleOwner,
	}
	var err error
	switch m.Current {
	case onboarding.StepTags:
		m.Tags, err = wz.Tags(r.Context())
	case onboarding.StepSubscribe:
		m.Suggestions, err = wz.Suggestions(r.Context())
	}
	if err != nil {
		s.fail(w, r, "onboarding", err)
		return
	}
	s.render(w, r, http.StatusOK, "onboarding", m)
}

func (s *Server) wizardPage(w http.ResponseWriter, r *http.Request) {
	s.renderWizard(w, r, wizardFor(visitFrom(r.Context())))
}

// wizardFail keeps the visitor on the wizard with the error shown.
func (s *Server) wizardFail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, onboarding.ErrNotAllowed) || errors.Is(err, onboarding.ErrWrongStep) {
		v := visitFrom(r.Context())
		v.notes.Push(notify.Error, err.Error())
		s.render(w, r, http.StatusConflict, "onboarding", nil)
		return
	}
	s.fail(w, r, "onboarding", err)
}

func (s *Server) wizardStep(fn func(*onboarding.Wizard, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wz := wizardFor(visitFrom(r.Context()))
		if err := fn(wz, r); err != nil {
			s.wizardFail(w, r, err)
			return
		}
		s.renderWizard(w, r, wz)
	}
}

// wizardTags replaces the tag selection with the posted one and submits it.
func (s *Server) wizardTags(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	wz := wizardFor(v)
	var form struct {
		Tags []string `json:"tags"`
	}
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, "onboarding", err)
		return
	}
	available, err := wz.Tags(r.Context())
	if err != nil {
		s.wizardFail(w, r, err)
		return
	}
	for _, id := range v.store.Snapshot().Onboarding.SelectedTags {
		wz.ToggleTag(id)
	}
	var seen []string
	for _, id := range form.Tags {
		if !slices.Contains(seen, id) {
			seen = append(seen, id)
			wz.ToggleTag(id)
		}
	}
	if err := wz.SubmitTags(r.Context(), available); err != nil {
		s.wizardFail(w, r, err)
		return
	}
	s.renderWizard(w, r, wz)
}

// wizardSubscribe replaces the space selection with the posted one, then
// saves it and completes onboarding.
func (s *Server) wizardSubscribe(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	wz := wizardFor(v)
	var form struct {
		Spaces []models.SpaceSelection `json:"spaces"`
	}
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, "onboarding", err)
		return
	}
	for _, sel := range v.store.Snapshot().Onboarding.SubscribedSpaces {
		wz.ToggleSpace(sel.SpaceID)
	}
	for _, sel := range form.Spaces {
		wz.ToggleSpace(sel.SpaceID)
		if sel.IsNewsletter {
			wz.ToggleNewsletter(sel.SpaceID)
		}
	}
	if err := wz.Subscribe(r.Context()); err != nil {
		s.wizardFail(w, r, err)
		return
	}
	s.renderWizard(w, r, wz)
}

func (s *Server) wizardInvite(w http.ResponseWriter, r *http.Request) {
	v := visitFrom(r.Context())
	wz := wizardFor(v)
	var form struct {
		Emails []string `json:"emails"`
	}
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, "onboarding", err)
		return
	}
	if err := wz.Invite(r.Context(), form.Emails); err != nil {
		s.wizardFail(w, r, err)
		return
	}
	s.renderWizard(w, r, wz)
}

func (s *Server) wizardCreateSpace(w http.ResponseWriter, r *http.Request) {
	wz := wizardFor(visitFrom(r.Context()))
	to, err := wz.CreateSpace(r.Context())
	if err != nil {
		s.wizardFail(w, r, err)
		return
	}
	s.redirect(w, r, to)
}
