package main

import (
	"errors"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"inkyspace/internal/access"
	"inkyspace/internal/api"
	"inkyspace/internal/models"
)

func newExploreCommand(opts *rootOptions) *cobra.Command {
	var (
		page string
		size int
	)
	cmd := &cobra.Command{
		Use:   "explore [search]",
		Short: "List published threads from public spaces",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			search := ""
			if len(args) == 1 {
				search = args[0]
			}
			res, err := s.api.Threads.Explore(cmd.Context(), strings.TrimSpace(search), pageRequest(page, size))
			if err != nil {
				return err
			}
			return printPage(opts, cmd, "threads", res)
		},
	}
	cmd.Flags().StringVar(&page, "page", "", "page token from a previous listing")
	cmd.Flags().IntVar(&size, "page-size", api.ThreadPageSize, "threads per page")
	return cmd
}

func newSpacesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spaces",
		Short: "View, create and subscribe to spaces",
	}
	cmd.AddCommand(
		newSpacesViewCommand(opts),
		newSpacesCreateCommand(opts),
		newSpacesUpdateCommand(opts),
		newSpacesDeleteCommand(opts),
		newSpacesSubscribedCommand(opts),
		newSpacesOwnedCommand(opts),
		newSpacesThreadsCommand(opts),
		newSpacesSubscribersCommand(opts),
		newSpacesTagsCommand(opts),
		newSpaceToggleCommand(opts, "subscribe", "Subscribe to a space", func(c *api.Client) func(*cobra.Command, string) error {
			return func(cmd *cobra.Command, id string) error { return c.Spaces.Subscribe(cmd.Context(), id) }
		}),
		newSpaceToggleCommand(opts, "unsubscribe", "Unsubscribe from a space", func(c *api.Client) func(*cobra.Command, string) error {
			return func(cmd *cobra.Command, id string) error { return c.Spaces.Unsubscribe(cmd.Context(), id) }
		}),
		newSpaceToggleCommand(opts, "newsletter", "Toggle the newsletter of a subscribed space", func(c *api.Client) func(*cobra.Command, string) error {
			return func(cmd *cobra.Command, id string) error { return c.Spaces.ToggleNewsletter(cmd.Context(), id) }
		}),
	)
	return cmd
}

// newSpacesViewCommand gates a space the way the browser does and reports
// the outcome next to the space.
func newSpacesViewCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "view <space-id>",
		Short: "Show a space, its subscription state and whether you can read it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			var viewer models.Viewer
			if s.srv.Session != "" {
				u, err := s.api.Auth.CurrentUser(ctx)
				if err != nil {
					return err
				}
				viewer = models.ViewerOf(u)
			}
			ev, err := access.NewGate(s.api.Spaces).Evaluate(ctx, viewer, args[0])
			if err != nil {
				return err
			}
			out := map[string]any{"space": ev.Space, "access": ev.Outcome.String()}
			if ev.Message != "" {
				out["message"] = ev.Message
			}
			return opts.print(cmd, "", out)
		},
	}
}

func newSpacesCreateCommand(opts *rootOptions) *cobra.Command {
	var (
		data      models.CreateSpaceData
		coverFile string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a space (Owners)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(data.Title) == "" {
				return errors.New("--title is required")
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			if err := s.imageFlag(cmd.Context(), coverFile, &data.CoverImage); err != nil {
				return err
			}
			id, err := s.api.Spaces.Create(cmd.Context(), data)
			if err != nil {
				return err
			}
			return opts.print(cmd, "", models.CreatedSpace{SpaceID: id})
		},
	}
	cmd.Flags().StringVar(&data.Title, "title", "", "space title")
	cmd.Flags().StringVar(&data.Description, "description", "", "space description")
	cmd.Flags().StringVar(&data.CoverImage, "cover", "", "cover image url")
	cmd.Flags().StringVar(&coverFile, "cover-file", "", "upload this image as the cover")
	cmd.Flags().BoolVar(&data.IsPrivate, "private", false, "only subscribers can read threads")
	cmd.MarkFlagsMutuallyExclusive("cover", "cover-file")
	return cmd
}

// newSpacesUpdateCommand edits a space. Flags left unset keep the current
// values.
func newSpacesUpdateCommand(opts *rootOptions) *cobra.Command {
	var (
		edit      models.UpdateSpaceData
		coverFile string
	)
	cmd := &cobra.Command{
		Use:   "update <space-id>",
		Short: "Change the title, description, privacy or cover of your space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !slices.ContainsFunc([]string{"title", "description", "private", "cover", "cover-file"}, flags.Changed) {
				return errors.New("nothing to update: pass --title, --description, --private, --cover or --cover-file")
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cur, err := s.api.Spaces.Get(ctx, args[0])
			if err != nil {
				return err
			}
			data := models.UpdateSpaceData{
				SpaceID:     cur.SpaceID,
				Title:       cur.Title,
				Description: cur.Description,
				CoverImage:  cur.CoverImage,
				IsPrivate:   cur.IsPrivate,
			}
			if flags.Changed("title") {
				if data.Title = strings.TrimSpace(edit.Title); data.Title == "" {
					return errors.New("--title cannot be empty")
				}
			}
			if flags.Changed("description") {
				data.Description = edit.Description
			}
			if flags.Changed("private") {
				data.IsPrivate = edit.IsPrivate
			}
			if flags.Changed("cover") {
				data.CoverImage = strings.TrimSpace(edit.CoverImage)
			}
			if err := s.imageFlag(ctx, coverFile, &data.CoverImage); err != nil {
				return err
			}
			updated, err := s.api.Spaces.Update(ctx, data)
			if err != nil {
				return err
			}
			return opts.print(cmd, "", updated)
		},
	}
	cmd.Flags().StringVar(&edit.Title, "title", "", "new title")
	cmd.Flags().StringVar(&edit.Description, "description", "", "new description")
	cmd.Flags().BoolVar(&edit.IsPrivate, "private", false, "only subscribers can read threads (--private=false opens it)")
	cmd.Flags().StringVar(&edit.CoverImage, "cover", "", "cover image url")
	cmd.Flags().StringVar(&coverFile, "cover-file", "", "upload this image as the cover")
	cmd.MarkFlagsMutuallyExclusive("cover", "cover-file")
	return cmd
}

func newSpacesDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <space-id>",
		Short: "Delete an owned space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			if err := s.api.Spaces.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			opts.done(cmd, "space deleted")
			return nil
		},
	}
}

func newSpacesSubscribedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "subscribed",
		Short: "List the spaces you subscribe to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			list, err := s.api.Spaces.Subscribed(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd, "spaces", list)
		},
	}
}

func newSpacesOwnedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "owned [owner-id]",
		Short: "List an Owner's spaces with their subscribers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			owner := s.srv.UserID
			if len(args) == 1 {
				owner = args[0]
			}
			if owner == "" {
				return errors.New("owner id required when not logged in")
			}
			list, err := s.api.Spaces.OwnedWithSubscribers(cmd.Context(), owner)
			if err != nil {
				return err
			}
			return opts.print(cmd, "spaces", list)
		},
	}
}

func newSpacesThreadsCommand(opts *rootOptions) *cobra.Command {
	var (
		page string
		size int
	)
	cmd := &cobra.Command{
		Use:   "threads <space-id>",
		Short: "List the published threads of a space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			res, err := s.api.Spaces.Threads(cmd.Context(), args[0], pageRequest(page, size))
			if err != nil {
				return err
			}
			return printPage(opts, cmd, "threads", res)
		},
	}
	cmd.Flags().StringVar(&page, "page", "", "page token from a previous listing")
	cmd.Flags().IntVar(&size, "page-size", api.ThreadPageSize, "threads per page")
	return cmd
}

func newSpacesSubscribersCommand(opts *rootOptions) *cobra.Command {
	var (
		page string
		size int
	)
	cmd := &cobra.Command{
		Use:   "subscribers <space-id>",
		Short: "List the subscribers of an owned space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			res, err := s.api.Spaces.Subscribers(cmd.Context(), args[0], pageRequest(page, size))
			if err != nil {
				return err
			}
			return printPage(opts, cmd, "subscribers", res)
		},
	}
	cmd.Flags().StringVar(&page, "page", "", "page token from a previous listing")
	cmd.Flags().IntVar(&size, "page-size", api.SubscriberPageSize, "subscribers per page")
	return cmd
}

func newSpacesTagsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List the tags a thread may carry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			list, err := s.api.Spaces.Tags(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd, "tags", list)
		},
	}
}

func newSpaceToggleCommand(opts *rootOptions, use, short string, op func(*api.Client) func(*cobra.Command, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <space-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			if err := op(s.api)(cmd, args[0]); err != nil {
				return err
			}
			st, err := s.api.Spaces.SubscriptionStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.print(cmd, "", st)
		},
	}
}
