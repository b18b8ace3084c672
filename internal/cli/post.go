package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/models"
)

func newPostCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Create, browse and react to posts",
	}
	cmd.AddCommand(
		newPostCreateCommand(opts),
		newPostEditCommand(opts),
		newPostDeleteCommand(opts),
		newPostListCommand(opts),
		newPostShowCommand(opts),
		newPostVoteCommand(opts),
		newPostFavoriteCommand(opts),
		newPostRetryCommand(opts),
	)
	return cmd
}

func addContentFlags(cmd *cobra.Command, in *models.PostInput) {
	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "post title")
	cmd.Flags().StringVar(&in.Description, "description", "", "post text")
	cmd.Flags().StringSliceVar(&in.Images, "image", nil, "image URL, repeatable")
}

func printWrittenPost(p models.Post) func(w io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintf(w, "post #%d saved (%s)\n", p.LocalID, syncState(p.Synced, p.Abandoned, p.LastSyncError))
	}
}

func newPostCreateCommand(opts *RootOptions) *cobra.Command {
	var in models.PostInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Write a post; it is delivered now or on the next sync",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = opts.runE(func(cmd *cobra.Command, args []string) error {
		if err := opts.requireUser(); err != nil {
			return err
		}
		post, err := opts.app.Services.PostService.Create(cmd.Context(), in)
		if err != nil {
			return err
		}
		return opts.out.Success(post, printWrittenPost(post))
	})

	addContentFlags(cmd, &in)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newPostEditCommand(opts *RootOptions) *cobra.Command {
	var in models.PostInput

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the content of an own post; unset flags keep their value",
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

		posts := opts.app.Services.PostService
		current, err := posts.Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if !flags.Changed("title") {
			in.Title = current.Title
		}
		if !flags.Changed("description") {
			in.Description = current.Description
		}
		if !flags.Changed("image") {
			in.Images = current.Images
		}

		post, err := posts.Update(cmd.Context(), id, in)
		if err != nil {
			return err
		}
		return opts.out.Success(post, printWrittenPost(post))
	})

	addContentFlags(cmd, &in)
	return cmd
}

func newPostDeleteCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an own post",
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
		if err = opts.app.Services.PostService.Delete(cmd.Context(), id); err != nil {
			return err
		}
		return opts.out.Success(map[string]int64{"deleted": id}, func(w io.Writer) {
			fmt.Fprintf(w, "post #%d deleted\n", id)
		})
	})
	return cmd
}

type postListOptions struct {
	query     models.PostQuery
	mine      bool
	favorites bool
	userID    string
	abandoned bool
}

func newPostListCommand(opts *RootOptions) *cobra.Command {
	var lo postListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached posts, pulling fresh ones first when online",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = opts.runE(func(cmd *cobra.Command, args []string) error {
		if err := opts.requireUser(); err != nil {
			return err
		}
		ctx := cmd.Context()
		posts := opts.app.Services.PostService

		if lo.abandoned {
			rows, err := posts.Abandoned(ctx)
			if err != nil {
				return err
			}
			views := make([]models.PostView, 0, len(rows))
			for _, p := range rows {
				views = append(views, models.PostView{Post: p, Author: opts.user})
			}
			return opts.out.Success(views, printPosts(views))
		}

		var (
			sub *store.Subscription[[]models.PostView]
			err error
		)
		switch {
		case lo.favorites:
			refreshWarn(cmd, opts, posts.RefreshFavorites)
			sub, err = posts.ObserveFavorites(ctx)
		case lo.userID != "":
			refreshWarn(cmd, opts, func(ctx context.Context) error { return posts.RefreshUserPosts(ctx, lo.userID) })
			sub, err = posts.ObserveUserPosts(ctx, lo.userID)
		default:
			if lo.mine {
				lo.query.OwnerID = opts.user.ID
			}
			refreshWarn(cmd, opts, func(ctx context.Context) error { return posts.Refresh(ctx, lo.query) })
			sub, err = posts.Observe(ctx, lo.query)
		}
		if err != nil {
			return err
		}

		views, err := snapshot(ctx, sub)
		if err != nil {
			return err
		}
		return opts.out.Success(views, printPosts(views))
	})

	f := cmd.Flags()
	f.StringVar(&lo.query.Search, "search", "", "match title or description")
	f.StringVar(&lo.query.Author, "author", "", "author id or alias")
	f.StringVar(&lo.query.OrderBy, "order-by", models.OrderByCreatedAt, "created_at|likes|comments|title")
	f.StringVar(&lo.query.Direction, "direction", models.DirectionDesc, "asc|desc")
	f.BoolVar(&lo.mine, "mine", false, "only my posts")
	f.BoolVar(&lo.favorites, "favorites", false, "only my favorites")
	f.StringVar(&lo.userID, "user", "", "posts of one user")
	f.BoolVar(&lo.abandoned, "abandoned", false, "my posts the sync engine gave up on")
	cmd.MarkFlagsMutuallyExclusive("favorites", "user", "abandoned", "mine")

	return cmd
}

func newPostShowCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a post with its comments",
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
		ctx := cmd.Context()
		svcs := opts.app.Services

		refreshWarn(cmd, opts, func(ctx context.Context) error { return svcs.PostService.RefreshPost(ctx, id) })

		post, err := svcs.PostService.Get(ctx, id)
		if err != nil {
			return err
		}
		threads, err := svcs.CommentService.List(ctx, id)
		if err != nil {
			return err
		}

		data := struct {
			Post     models.PostView        `json:"post"`
			Comments []models.CommentThread `json:"comments"`
		}{post, threads}
		return opts.out.Success(data, printPost(post, threads))
	})
	return cmd
}

func newPostVoteCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "vote <id> like|dislike",
		Short:     "Like or dislike a post; voting again with the other kind replaces the vote",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(models.VoteLike), string(models.VoteDislike)},
	}
	cmd.RunE = opts.runE(func(cmd *cobra.Command, args []string) error {
		if err := opts.requireUser(); err != nil {
			return err
		}
		id, err := parseLocalID(args[0])
		if err != nil {
			return err
		}
		vote := models.VoteKind(args[1])
		if vote != models.VoteLike && vote != models.VoteDislike {
			return WrapExitError(ExitCommandError, fmt.Sprintf("vote must be %q or %q", models.VoteLike, models.VoteDislike), nil)
		}

		post, err := opts.app.Services.PostService.Vote(cmd.Context(), id, vote)
		if err != nil {
			return err
		}
		return opts.out.Success(post, func(w io.Writer) {
			fmt.Fprintf(w, "post #%d: +%d -%d\n", post.LocalID, post.Likes, post.Dislikes)
		})
	})
	return cmd
}

func newPostFavoriteCommand(opts *RootOptions) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "favorite <id>",
		Short: "Add a post to favorites",
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
		if err = opts.app.Services.PostService.SetFavorite(cmd.Context(), id, !remove); err != nil {
			return err
		}
		return opts.out.Success(map[string]any{"post": id, "favorite": !remove}, func(w io.Writer) {
			if remove {
				fmt.Fprintf(w, "post #%d removed from favorites\n", id)
				return
			}
			fmt.Fprintf(w, "post #%d added to favorites\n", id)
		})
	})

	cmd.Flags().BoolVar(&remove, "remove", false, "remove from favorites instead")
	return cmd
}

func newPostRetryCommand(opts *RootOptions) *cobra.Command {
	var abandon bool

	cmd := &cobra.Command{
		Use:   "retry <id>",
		Short: "Return an abandoned post to the sync queue",
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

		posts := opts.app.Services.PostService
		if abandon {
			err = posts.Abandon(cmd.Context(), id)
		} else {
			err = posts.Retry(cmd.Context(), id)
		}
		if err != nil {
			return err
		}
		return opts.out.Success(map[string]any{"post": id, "abandoned": abandon}, func(w io.Writer) {
			if abandon {
				fmt.Fprintf(w, "post #%d will no longer be retried\n", id)
				return
			}
			fmt.Fprintf(w, "post #%d queued for the next sync\n", id)
		})
	})

	cmd.Flags().BoolVar(&abandon, "abandon", false, "stop retrying the post instead")
	return cmd
}
