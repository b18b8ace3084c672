package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-social-sync/internal/service"
	"github.com/MKhiriev/go-social-sync/models"
)

func newSyncCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Deliver pending local changes once",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = opts.runE(func(cmd *cobra.Command, args []string) error {
		if err := opts.requireUser(); err != nil {
			return err
		}
		if opts.Offline || !opts.app.Monitor.IsOnline() {
			return WrapExitError(ExitFailure, "server unreachable, changes stay queued", service.ErrOffline)
		}

		report, err := opts.app.Services.SyncService.Run(cmd.Context())
		if err != nil {
			return err
		}
		return opts.out.Success(report, printReport(report))
	})
	return cmd
}

func printReport(r models.SyncReport) func(w io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintf(w, "sync %s: %d pushed, %d acknowledged", r.Status, r.Pushed, r.Acknowledged)
		if n := len(r.Unresolved) + len(r.UnresolvedComments); n > 0 {
			fmt.Fprintf(w, ", %d left pending", n)
		}
		if len(r.Abandoned) > 0 {
			fmt.Fprintf(w, ", abandoned posts %v", r.Abandoned)
		}
		if r.Deferred > 0 {
			fmt.Fprintf(w, ", %d deferred", r.Deferred)
		}
		fmt.Fprintln(w)
	}
}

func newRunCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Keep syncing in the background until interrupted",
		Long: `Run the sync daemon.

The daemon probes the server periodically and syncs on every tick of the
sync interval and whenever the server becomes reachable again.`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = opts.runE(func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintln(cmd.ErrOrStderr(), "sync daemon running, press Ctrl+C to stop")
		if err := opts.app.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	})
	return cmd
}

