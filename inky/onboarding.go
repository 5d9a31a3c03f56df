package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"inkyspace/internal/models"
	"inkyspace/internal/onboarding"
)

func newOnboardingCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onboarding",
		Short: "Finish the first-login steps from the terminal",
	}
	cmd.AddCommand(
		newOnboardingStepsCommand(opts),
		newOnboardingTagsCommand(opts),
		newOnboardingSuggestCommand(opts),
		newOnboardingSubscribeCommand(opts),
		newOnboardingCompleteCommand(opts),
	)
	return cmd
}

func newOnboardingStepsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the steps your role goes through",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			u, err := s.api.Auth.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd, "", map[string]any{
				"role":            u.Role.String(),
				"onboardComplete": u.OnboardComplete,
				"steps":           onboarding.StepsFor(u.Role),
			})
		},
	}
}

// newOnboardingTagsCommand lists the tags, or saves the given selection.
func newOnboardingTagsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tags [tag-id,...]",
		Short: "List interest tags, or save the ones you pick",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				list, err := s.api.Onboarding.Tags(cmd.Context())
				if err != nil {
					return err
				}
				return opts.print(cmd, "tags", list)
			}
			ids := parseCSVUnique(args)
			if len(ids) == 0 {
				return onboarding.ErrNoSelection
			}
			if err := s.api.Onboarding.SubmitTags(cmd.Context(), ids); err != nil {
				return err
			}
			opts.done(cmd, "saved %d tag(s)", len(ids))
			return nil
		},
	}
}

func newOnboardingSuggestCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <tag-id,...>",
		Short: "Suggest spaces for the given tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			list, err := s.api.Onboarding.SuggestedSpaces(cmd.Context(), parseCSVUnique(args))
			if err != nil {
				return err
			}
			return opts.print(cmd, "spaces", list)
		},
	}
}

// newOnboardingSubscribeCommand takes space ids, each optionally suffixed
// with ":newsletter".
func newOnboardingSubscribeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "subscribe <space-id[:newsletter]>...",
		Short: "Subscribe to the picked spaces and finish onboarding",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var picks []models.SpaceSelection
			for _, raw := range parseCSVUnique(args) {
				id, flag, _ := strings.Cut(raw, ":")
				picks = append(picks, models.SpaceSelection{SpaceID: id, IsNewsletter: flag == "newsletter"})
			}
			if len(picks) == 0 {
				return errors.New("select at least one space")
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			if err := s.api.Onboarding.Subscribe(cmd.Context(), picks); err != nil {
				return err
			}
			if err := s.api.Onboarding.Complete(cmd.Context()); err != nil {
				return err
			}
			opts.done(cmd, "subscribed to %d space(s); onboarding complete", len(picks))
			return nil
		},
	}
}

func newOnboardingCompleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete",
		Short: "Skip the remaining steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			if err := s.api.Onboarding.Complete(cmd.Context()); err != nil {
				return err
			}
			opts.done(cmd, "onboarding complete")
			return nil
		},
	}
}
