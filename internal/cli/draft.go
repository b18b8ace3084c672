package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-social-sync/models"
)

func newDraftCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Local drafts; never sent until published",
	}
	cmd.AddCommand(
		newDraftSaveCommand(opts),
		newDraftListCommand(opts),
		newDraftPublishCommand(opts),
		newDraftDeleteCommand(opts),
	)
	return cmd
}

func newDraftSaveCommand(opts *RootOptions) *cobra.Command {
	var in models.PostInput

	cmd := &cobra.Command{
		Use:   "save [id]",
		Short: "Save a new draft, or overwrite draft <id>",
		Args:  cobra.MaximumNArgs(1),
	}
	cmd.RunE = opts.runE(func(cmd *cobra.Command, args []string) error {
		if err := opts.requireUser(); err != nil {
			return err
		}
		drafts := opts.app.Services.DraftService

		var (
			draft models.DraftPost
			err   error
		)
		if len(args) == 1 {
			id, perr := parseLocalID(args[0])
			if perr != nil {
				return perr
			}
			draft, err = drafts.Update(cmd.Context(), id, in)
		} else {
			draft, err = drafts.Save(cmd.Context(), in)
		}
		if err != nil {
			return err
		}
		return opts.out.Success(draft, func(w io.Writer) {
			fmt.Fprintf(w, "draft #%d saved\n", draft.LocalID)
		})
	})

	addContentFlags(cmd, &in)
	return cmd
}

func newDraftListCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List drafts, most recently edited first",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = opts.runE(func(cmd *cobra.Command, args []string) error {
		if err := opts.requireUser(); err != nil {
			return err
		}
		drafts, err := opts.app.Services.DraftService.List(cmd.Context())
		if err != nil {
			return err
		}
		return opts.out.Success(drafts, printDrafts(drafts))
	})
	return cmd
}

func newDraftPublishCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <id>",
		Short: "Turn a draft into a post",
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
		post, err := opts.app.Services.DraftService.Publish(cmd.Context(), id)
		if err != nil {
			return err
		}
		return opts.out.Success(post, printWrittenPost(post))
	})
	return cmd
}

func newDraftDeleteCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Discard a draft",
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
		if err = opts.app.Services.DraftService.Delete(cmd.Context(), id); err != nil {
			return err
		}
		return opts.out.Success(map[string]int64{"deleted": id}, func(w io.Writer) {
			fmt.Fprintf(w, "draft #%d deleted\n", id)
		})
	})
	return cmd
}
