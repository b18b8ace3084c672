package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-social-sync/models"
)

func newCommentCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Comment on posts",
	}
	cmd.AddCommand(
		newCommentAddCommand(opts),
		newCommentReplyCommand(opts),
		newCommentLikeCommand(opts),
		newCommentListCommand(opts),
	)
	return cmd
}

func printWrittenComment(c models.Comment) func(w io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintf(w, "comment #%d saved (%s)\n", c.LocalID, syncState(c.Synced, c.Abandoned, c.LastSyncError))
	}
}

func newCommentAddCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <post-id> <text>...",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
	}
	cmd.RunE = opts.runE(func(cmd *cobra.Command, args []string) error {
		if err := opts.requireUser(); err != nil {
			return err
		}
		postID, err := parseLocalID(args[0])
		if err != nil {
			return err
		}
		c, err := opts.app.Services.CommentService.Add(cmd.Context(), postID, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		return opts.out.Success(c, printWrittenComment(c))
	})
	return cmd
}

func newCommentReplyCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reply <comment-id> <text>...",
		Short: "Reply to a top-level comment",
		Args:  cobra.MinimumNArgs(2),
	}
	cmd.RunE = opts.runE(func(cmd *cobra.Command, args []string) error {
		if err := opts.requireUser(); err != nil {
			return err
		}
		parentID, err := parseLocalID(args[0])
		if err != nil {
			return err
		}
		c, err := opts.app.Services.CommentService.Reply(cmd.Context(), parentID, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		return opts.out.Success(c, printWrittenComment(c))
	})
	return cmd
}

func newCommentLikeCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "like <comment-id>",
		Short: "Like a comment",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = opts.runE(func(cmd *cobra.Command, args []string) error {
		if err := opts.requireUser(); err != nil {
			return err
		}
		id, err := parseLocalID(args[0])
		if err != nil {
			return err
		}
		c, err := opts.app.Services.CommentService.Like(cmd.Context(), id)
		if err != nil {
			return err
		}
		return opts.out.Success(c, func(w io.Writer) {
			fmt.Fprintf(w, "comment #%d: %d likes\n", c.LocalID, c.Likes)
		})
	})
	return cmd
}

func newCommentListCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <post-id>",
		Short: "List the comment threads of a post",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = opts.runE(func(cmd *cobra.Command, args []string) error {
		if err := opts.requireUser(); err != nil {
			return err
		}
		postID, err := parseLocalID(args[0])
		if err != nil {
			return err
		}
		comments := opts.app.Services.CommentService

		refreshWarn(cmd, opts, func(ctx context.Context) error { return comments.Refresh(ctx, postID) })

		threads, err := snapshot(cmd.Context(), comments.Observe(cmd.Context(), postID))
		if err != nil {
			return err
		}
		return opts.out.Success(threads, func(w io.Writer) {
			for _, t := range threads {
				printComment(w, "", t.CommentView)
				for _, r := range t.Replies {
					printComment(w, "    ", r)
				}
			}
		})
	})
	return cmd
}
