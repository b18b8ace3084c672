package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-social-sync/internal/store"
	"github.com/MKhiriev/go-social-sync/models"
)

const snapshotPoll = 20 * time.Millisecond

// snapshot takes the first result of a live query and closes it.
func snapshot[T any](ctx context.Context, sub *store.Subscription[T]) (T, error) {
	defer sub.Close()

	var zero T
	t := time.NewTicker(snapshotPoll)
	defer t.Stop()

	for {
		select {
		case v, ok := <-sub.Updates():
			if !ok {
				return zero, ctx.Err()
			}
			return v, nil
		case <-t.C:
			if err := sub.Err(); err != nil {
				return zero, err
			}
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// refreshWarn runs a pull when online. A failed pull only warns: local
// data is still shown.
func refreshWarn(cmd *cobra.Command, opts *RootOptions, refresh func(ctx context.Context) error) {
	if opts.Offline || !opts.app.Monitor.IsOnline() {
		return
	}
	if err := refresh(cmd.Context()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: showing cached data: %v\n", err)
	}
}

func parseLocalID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, WrapExitError(ExitCommandError, fmt.Sprintf("invalid id %q", arg), err)
	}
	return id, nil
}

func syncState(synced, abandoned bool, lastErr string) string {
	switch {
	case abandoned:
		return "abandoned: " + lastErr
	case synced:
		return "synced"
	default:
		return "pending"
	}
}

func printPosts(posts []models.PostView) func(w io.Writer) {
	return func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tLIKES\tDISLIKES\tCOMMENTS\tFAV\tSTATE")
		for _, p := range posts {
			fav := ""
			if p.IsFavorite {
				fav = "*"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
				p.LocalID, p.Title, p.Author.DisplayName(), p.Likes, p.Dislikes, p.CommentCount, fav,
				syncState(p.Synced, p.Abandoned, p.LastSyncError))
		}
		_ = tw.Flush()
	}
}

func printPost(p models.PostView, threads []models.CommentThread) func(w io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintf(w, "#%d %s\n", p.LocalID, p.Title)
		fmt.Fprintf(w, "by %s on %s [%s]\n", p.Author.DisplayName(), p.CreatedAt.Local().Format(time.DateTime),
			syncState(p.Synced, p.Abandoned, p.LastSyncError))
		if p.Description != "" {
			fmt.Fprintf(w, "\n%s\n", p.Description)
		}
		if len(p.Images) > 0 {
			fmt.Fprintf(w, "images: %s\n", strings.Join(p.Images, ", "))
		}
		fmt.Fprintf(w, "\n+%d -%d", p.Likes, p.Dislikes)
		if p.MyVote != models.VoteNone {
			fmt.Fprintf(w, " (you: %s)", p.MyVote)
		}
		fmt.Fprintln(w)

		for _, t := range threads {
			printComment(w, "", t.CommentView)
			for _, r := range t.Replies {
				printComment(w, "    ", r)
			}
		}
	}
}

func printComment(w io.Writer, indent string, c models.CommentView) {
	liked := ""
	if c.LikedByMe {
		liked = " *"
	}
	state := ""
	if !c.Synced {
		state = " [" + syncState(c.Synced, c.Abandoned, c.LastSyncError) + "]"
	}
	fmt.Fprintf(w, "%s- #%d %s: %s (%d%s)%s\n", indent, c.LocalID, c.Author.DisplayName(), c.Body, c.Likes, liked, state)
}

func printDrafts(drafts []models.DraftPost) func(w io.Writer) {
	return func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tUPDATED")
		for _, d := range drafts {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", d.LocalID, d.Title, d.UpdatedAt.Local().Format(time.DateTime))
		}
		_ = tw.Flush()
	}
}
