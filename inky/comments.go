package main

import (
	"github.com/spf13/cobra"

	"inkyspace/internal/api"
	"inkyspace/internal/models"
)

func newCommentsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Read and write comments on published threads",
	}
	cmd.AddCommand(
		newCommentsListCommand(opts),
		newCommentsRepliesCommand(opts),
		newCommentsAddCommand(opts),
		newCommentsReplyCommand(opts),
		newCommentsDeleteCommand(opts),
	)
	return cmd
}

func newCommentsListCommand(opts *rootOptions) *cobra.Command {
	var (
		page string
		size int
	)
	cmd := &cobra.Command{
		Use:   "list <thread-id>",
		Short: "List comments, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			res, err := s.api.Comments.List(cmd.Context(), args[0], pageRequest(page, size))
			if err != nil {
				return err
			}
			return printPage(opts, cmd, "comments", res)
		},
	}
	cmd.Flags().StringVar(&page, "page", "", "page token from a previous listing")
	cmd.Flags().IntVar(&size, "page-size", api.CommentPageSize, "comments per page")
	return cmd
}

func newCommentsRepliesCommand(opts *rootOptions) *cobra.Command {
	var (
		page string
		size int
	)
	cmd := &cobra.Command{
		Use:   "replies <thread-id> <comment-id>",
		Short: "List the replies to a comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			res, err := s.api.Comments.Replies(cmd.Context(), args[0], args[1], pageRequest(page, size))
			if err != nil {
				return err
			}
			return printPage(opts, cmd, "replies", res)
		},
	}
	cmd.Flags().StringVar(&page, "page", "", "page token from a previous listing")
	cmd.Flags().IntVar(&size, "page-size", api.CommentPageSize, "replies per page")
	return cmd
}

func newCommentsAddCommand(opts *rootOptions) *cobra.Command {
	var fromFile string
	cmd := &cobra.Command{
		Use:   "add <thread-id> [text]",
		Short: "Comment on a thread",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := resolveBodyInput(args[1:], fromFile)
			if err != nil {
				return err
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			id, err := s.api.Comments.Create(cmd.Context(), args[0], text)
			if err != nil {
				return err
			}
			return opts.print(cmd, "", models.CreatedComment{CommentID: id})
		},
	}
	cmd.Flags().StringVar(&fromFile, "from-file", "", "read the comment from a file")
	return cmd
}

func newCommentsReplyCommand(opts *rootOptions) *cobra.Command {
	var fromFile string
	cmd := &cobra.Command{
		Use:   "reply <thread-id> <comment-id> [text]",
		Short: "Reply to a comment",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := resolveBodyInput(args[2:], fromFile)
			if err != nil {
				return err
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			id, err := s.api.Comments.Reply(cmd.Context(), args[0], args[1], text)
			if err != nil {
				return err
			}
			return opts.print(cmd, "", models.CreatedReply{ReplyID: id})
		},
	}
	cmd.Flags().StringVar(&fromFile, "from-file", "", "read the reply from a file")
	return cmd
}

func newCommentsDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <comment-id>",
		Short: "Delete a comment or reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			if err := s.api.Comments.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			opts.done(cmd, "comment deleted")
			return nil
		},
	}
}
