package main

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"inkyspace/internal/api"
	"inkyspace/internal/client"
	"inkyspace/internal/editor"
	"inkyspace/internal/models"
	"inkyspace/internal/workflow"
)

func newThreadsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threads",
		Short: "Read, write and review threads",
	}
	cmd.AddCommand(
		newThreadsReadCommand(opts),
		newThreadsMineCommand(opts),
		newThreadsPendingCommand(opts),
		newThreadsByCommand(opts),
		newThreadsNewCommand(opts),
		newThreadsEditCommand(opts),
		newThreadsRejectCommand(opts),
		newThreadActionCommand(opts, "submit", "Send a draft or revised thread for approval", func(c *api.Client, cmd *cobra.Command, id string) error {
			return c.Threads.Submit(cmd.Context(), id)
		}),
		newThreadActionCommand(opts, "approve", "Publish a thread awaiting approval", func(c *api.Client, cmd *cobra.Command, id string) error {
			return c.Threads.Publish(cmd.Context(), id)
		}),
		newThreadActionCommand(opts, "like", "Like a published thread", func(c *api.Client, cmd *cobra.Command, id string) error {
			return c.Threads.Interact(cmd.Context(), id, models.InteractionLike)
		}),
		newThreadActionCommand(opts, "unlike", "Remove your like", func(c *api.Client, cmd *cobra.Command, id string) error {
			return c.Threads.Interact(cmd.Context(), id, models.InteractionUnlike)
		}),
		newThreadsDeleteCommand(opts),
	)
	return cmd
}

// loadThread returns the published thread, or the preview an Editor, Owner
// or Admin may see before publication.
func loadThread(cmd *cobra.Command, c *api.Client, id string) (*models.Thread, error) {
	t, err := c.Threads.Get(cmd.Context(), id)
	if err == nil {
		return t, nil
	}
	if apiErr, ok := client.IsAPIError(err); ok && apiErr.Status == http.StatusNotFound {
		if p, perr := c.Threads.Preview(cmd.Context(), id); perr == nil {
			return p, nil
		}
	}
	return nil, err
}

func newThreadsReadCommand(opts *rootOptions) *cobra.Command {
	var comments int
	cmd := &cobra.Command{
		Use:   "read <thread-id>",
		Short: "Print a thread as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			t, err := loadThread(cmd, s.api, args[0])
			if err != nil {
				return err
			}
			if opts.Format == "json" || opts.Quiet {
				return opts.print(cmd, "", t)
			}
			doc, err := editor.Decode(t.Content)
			if err != nil {
				return fmt.Errorf("decode thread content: %w", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "# %s\n\n", t.Title)
			fmt.Fprintf(w, "%s · %s · %s\n", t.SpaceDetails.Title, t.EditorDetails.Name, t.Status.Label())
			if t.RejectionReason != "" {
				fmt.Fprintf(w, "rejected: %s\n", t.RejectionReason)
			}
			if body := editor.Markdown(doc); body != "" {
				fmt.Fprintf(w, "\n%s", body)
			}
			if t.Status != models.StatusPublished || comments <= 0 {
				return nil
			}
			page, err := s.api.Comments.List(cmd.Context(), t.ThreadID, models.PageRequest{PageSize: comments})
			if err != nil {
				return err
			}
			if len(page.List) > 0 {
				fmt.Fprintln(w, "\n---")
				for _, c := range page.List {
					fmt.Fprintf(w, "\n%s (%d replies): %s\n", c.UserName, c.Replies, c.Comment)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&comments, "comments", api.CommentPageSize, "comments to show under a published thread")
	return cmd
}

func newThreadsMineCommand(opts *rootOptions) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List your threads (Editors)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			want := models.ThreadStatus(strings.ToUpper(strings.TrimSpace(status)))
			if want == "ALL" {
				want = ""
			}
			if want != "" && !want.Valid() {
				return fmt.Errorf("invalid status %q: must be all, D, A, R or P", status)
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			list, err := s.api.Threads.Mine(cmd.Context())
			if err != nil {
				return err
			}
			out := make([]models.Thread, 0, len(list))
			for _, t := range list {
				if want == "" || t.Status == want {
					out = append(out, t)
				}
			}
			return opts.print(cmd, "threads", out)
		},
	}
	cmd.Flags().StringVar(&status, "status", "all", "all|D|A|R|P")
	return cmd
}

func newThreadsPendingCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List threads awaiting your approval (Owners)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			list, err := s.api.Threads.Pending(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd, "threads", list)
		},
	}
}

func newThreadsByCommand(opts *rootOptions) *cobra.Command {
	var (
		page string
		size int
	)
	cmd := &cobra.Command{
		Use:   "by <owner-id>",
		Short: "List the published threads in an Owner's spaces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			res, err := s.api.Threads.ByOwner(cmd.Context(), args[0], pageRequest(page, size))
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

func newThreadsNewCommand(opts *rootOptions) *cobra.Command {
	var (
		form      models.ThreadFormData
		fromFile  string
		tags      string
		coverFile string
		prompt    string
		tone      string
	)
	cmd := &cobra.Command{
		Use:   "new [markdown]",
		Short: "Create a draft thread from markdown, or from a generated draft",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(form.Title) == "" || strings.TrimSpace(form.SpaceID) == "" {
				return errors.New("--title and --space are required")
			}
			generate := cmd.Flags().Changed("generate")
			if generate && (len(args) > 0 || fromFile != "") {
				return errors.New("provide either content or --generate, not both")
			}
			if tone != "" && !slices.Contains(models.Tones, tone) && tone != models.DefaultTone {
				return fmt.Errorf("unknown tone %q: pick one of %s", tone, strings.Join(models.Tones, ", "))
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			var body string
			if generate {
				if body, err = s.api.Threads.Generate(ctx, prompt, tone); err != nil {
					return err
				}
			} else if body, err = resolveBodyInput(args, fromFile); err != nil {
				return err
			}
			if form.Content, err = editor.FromMarkdown(body, time.Now()); err != nil {
				return err
			}
			for _, id := range parseCSVUnique([]string{tags}) {
				form.Tags = append(form.Tags, models.Tag{ID: id})
			}
			if err := s.imageFlag(ctx, coverFile, &form.CoverImage); err != nil {
				return err
			}
			id, err := s.api.Threads.Create(ctx, form)
			if err != nil {
				return err
			}
			return opts.print(cmd, "", models.CreatedThread{ThreadID: id})
		},
	}
	cmd.Flags().StringVar(&form.Title, "title", "", "thread title")
	cmd.Flags().StringVar(&form.SpaceID, "space", "", "space id")
	cmd.Flags().StringVar(&form.CoverImage, "cover", "", "cover image url")
	cmd.Flags().StringVar(&coverFile, "cover-file", "", "upload this image as the cover")
	cmd.Flags().StringVar(&fromFile, "from-file", "", "read markdown from a file")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tag ids")
	cmd.Flags().StringVar(&prompt, "generate", "", "describe the thread and start from a generated draft")
	cmd.Flags().StringVar(&tone, "tone", "", "tone of the generated draft (default natural)")
	cmd.MarkFlagsMutuallyExclusive("cover", "cover-file")
	return cmd
}

func newThreadsEditCommand(opts *rootOptions) *cobra.Command {
	var (
		title     string
		fromFile  string
		cover     string
		coverFile string
	)
	cmd := &cobra.Command{
		Use:   "edit <thread-id> [markdown]",
		Short: "Replace the title, body or cover of a thread you wrote",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			t, err := s.api.Threads.ForEdit(ctx, args[0])
			if err != nil {
				return err
			}
			if err := checkEditable(*t, models.Viewer{UserID: s.srv.UserID, Role: models.Role(s.srv.Role)}); err != nil {
				return err
			}
			data := models.ThreadUpdateData{
				ThreadID: t.ThreadID,
				ThreadFormData: models.ThreadFormData{
					Title: t.Title, Content: t.Content, CoverImage: t.CoverImage, Tags: t.Tags, SpaceID: t.SpaceID,
				},
			}
			if strings.TrimSpace(title) != "" {
				data.Title = strings.TrimSpace(title)
			}
			if cmd.Flags().Changed("cover") {
				data.CoverImage = strings.TrimSpace(cover)
			}
			if err := s.imageFlag(ctx, coverFile, &data.CoverImage); err != nil {
				return err
			}
			if len(args) == 2 || fromFile != "" {
				body, err := resolveBodyInput(args[1:], fromFile)
				if err != nil {
					return err
				}
				if data.Content, err = editor.FromMarkdown(body, time.Now()); err != nil {
					return err
				}
			}
			updated, err := s.api.Threads.Update(ctx, data)
			if err != nil {
				return err
			}
			return opts.print(cmd, "", updated)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&fromFile, "from-file", "", "read markdown from a file")
	cmd.Flags().StringVar(&cover, "cover", "", "cover image url (empty removes it)")
	cmd.Flags().StringVar(&coverFile, "cover-file", "", "upload this image as the cover")
	cmd.MarkFlagsMutuallyExclusive("cover", "cover-file")
	return cmd
}

func newThreadsRejectCommand(opts *rootOptions) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "reject <thread-id>",
		Short: "Send a thread back to its Editor with a reason",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			if err := s.api.Threads.RequestCorrection(cmd.Context(), args[0], reason); err != nil {
				return err
			}
			return printStatus(opts, cmd, s.api, args[0])
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "what the Editor should change")
	return cmd
}

func newThreadsDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <thread-id>",
		Short: "Delete a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			if err := s.api.Threads.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			opts.done(cmd, "thread deleted")
			return nil
		},
	}
}

func newThreadActionCommand(opts *rootOptions, use, short string, op func(*api.Client, *cobra.Command, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <thread-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			if err := op(s.api, cmd, args[0]); err != nil {
				return err
			}
			return printStatus(opts, cmd, s.api, args[0])
		},
	}
}

func printStatus(opts *rootOptions, cmd *cobra.Command, c *api.Client, id string) error {
	t, err := c.Threads.Preview(cmd.Context(), id)
	if err != nil {
		return err
	}
	out := map[string]any{
		"threadId":    t.ThreadID,
		"status":      t.Status,
		"statusLabel": t.Status.Label(),
	}
	if t.RejectionReason != "" {
		out["rejectionReason"] = t.RejectionReason
	}
	return opts.print(cmd, "", out)
}

var errNotThreadEditor = errors.New("only the thread's editor can edit it")

// checkEditable refuses an edit the viewer may not make, whatever the
// thread's status.
func checkEditable(t models.Thread, v models.Viewer) error {
	if !workflow.Allowed(t, v, workflow.ActionEdit) {
		return errNotThreadEditor
	}
	return nil
}
