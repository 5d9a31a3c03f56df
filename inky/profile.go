package main

import (
	"errors"

	"github.com/spf13/cobra"

	"inkyspace/internal/models"
)

func newProfileCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show and edit profiles",
	}
	cmd.AddCommand(
		newProfileShowCommand(opts),
		newProfileUpdateCommand(opts),
		newProfilePublicCommand(opts),
		newProfileOwnerCommand(opts),
		newProfileDeleteCommand(opts),
	)
	return cmd
}

func newProfileShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			p, err := s.api.Users.Me(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd, "", p)
		},
	}
}

func newProfileUpdateCommand(opts *rootOptions) *cobra.Command {
	var (
		u          models.ProfileUpdate
		avatarFile string
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change your name, bio or avatar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if u == (models.ProfileUpdate{}) && avatarFile == "" {
				return errors.New("nothing to update: pass --name, --bio, --avatar or --avatar-file")
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			if err := s.imageFlag(cmd.Context(), avatarFile, &u.Avatar); err != nil {
				return err
			}
			p, err := s.api.Users.UpdateProfile(cmd.Context(), u)
			if err != nil {
				return err
			}
			return opts.print(cmd, "", p)
		},
	}
	cmd.Flags().StringVar(&u.Name, "name", "", "display name")
	cmd.Flags().StringVar(&u.Bio, "bio", "", "short bio")
	cmd.Flags().StringVar(&u.Avatar, "avatar", "", "avatar url")
	cmd.Flags().StringVar(&avatarFile, "avatar-file", "", "upload this image as your avatar")
	cmd.MarkFlagsMutuallyExclusive("avatar", "avatar-file")
	return cmd
}

func newProfilePublicCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "public <user-id>",
		Short: "Show someone's public profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			p, err := s.api.Users.PublicProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.print(cmd, "", p)
		},
	}
}

func newProfileOwnerCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "owner",
		Short: "Show the Owner who invited you (Editors)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			p, err := s.api.Users.OwnerInfo(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd, "", p)
		},
	}
}

func newProfileDeleteCommand(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete your account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete the account without --yes")
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			if err := s.api.Users.DeleteAccount(cmd.Context()); err != nil {
				return err
			}
			if err := s.remember(nil); err != nil {
				return err
			}
			opts.done(cmd, "account deleted")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}
