package main

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"inkyspace/internal/models"
)

func newEditorsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "editors",
		Short: "Invite and manage the Editors of your spaces",
	}
	cmd.AddCommand(
		newEditorsInviteCommand(opts),
		newEditorsListCommand(opts),
		newEditorsPendingCommand(opts),
		newEditorsAcceptCommand(opts),
		newInviteActionCommand(opts, "resend", "Send a pending invitation again", "invitation sent again"),
		newInviteActionCommand(opts, "revoke", "Delete a pending invitation", "invitation deleted"),
		newInviteActionCommand(opts, "remove", "Remove an Editor and their account", "editor removed"),
	)
	return cmd
}

func newEditorsInviteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "invite <email>...",
		Short: "Invite Editors by email (comma-separated or repeated)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			emails := parseCSVUnique(args)
			if len(emails) == 0 {
				return errors.New("at least one email is required")
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			res, err := s.api.Invites.Create(cmd.Context(), emails)
			if err != nil {
				return err
			}
			return opts.print(cmd, "", res)
		},
	}
}

func newEditorsListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List Editors who accepted an invitation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			list, err := s.api.Invites.Editors(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd, "editors", list)
		},
	}
}

func newEditorsPendingCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List invitations not yet accepted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			list, err := s.api.Invites.Pending(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd, "invites", list)
		},
	}
}

// newEditorsAcceptCommand creates the invited Editor account and keeps the
// session the server issues for it.
func newEditorsAcceptCommand(opts *rootOptions) *cobra.Command {
	var data models.AcceptInviteData
	cmd := &cobra.Command{
		Use:   "accept <token>",
		Short: "Accept an invitation and log in as the new Editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if data.Password == "" {
				data.Password = os.Getenv("INKY_PASSWORD")
			}
			if strings.TrimSpace(data.Name) == "" || data.Password == "" {
				return errors.New("--name and --password are required")
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := s.api.Invites.Verify(ctx, args[0])
			if err != nil {
				return err
			}
			if st.IsAccepted {
				return errors.New("this invitation has already been accepted; log in instead")
			}
			if err := s.api.Invites.Accept(ctx, args[0], data); err != nil {
				return err
			}
			u, err := s.api.Auth.CurrentUser(ctx)
			if err != nil {
				return err
			}
			if err := s.remember(u); err != nil {
				return err
			}
			opts.done(cmd, "logged in as %s (%s)", u.Name, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&data.Name, "name", "", "display name")
	cmd.Flags().StringVar(&data.Password, "password", "", "password (or INKY_PASSWORD)")
	return cmd
}

func newInviteActionCommand(opts *rootOptions, use, short, message string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <invite-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			switch use {
			case "resend":
				err = s.api.Invites.Resend(ctx, args[0])
			case "revoke":
				err = s.api.Invites.Delete(ctx, args[0])
			case "remove":
				err = s.api.Invites.RemoveEditor(ctx, args[0])
			}
			if err != nil {
				return err
			}
			opts.done(cmd, message)
			return nil
		},
	}
}
