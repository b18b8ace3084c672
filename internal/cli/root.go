// Package cli implements the command-line client: one cobra command per
// client operation plus a daemon that keeps the local database in sync.
package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-social-sync/internal/client"
	"github.com/MKhiriev/go-social-sync/internal/config"
	"github.com/MKhiriev/go-social-sync/internal/logger"
	"github.com/MKhiriev/go-social-sync/internal/service"
	"github.com/MKhiriev/go-social-sync/models"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// ValidFormats lists the accepted values of --format.
var ValidFormats = []string{formatText, formatJSON}

// RootOptions holds global flags and the state shared by subcommands
// once the root pre-run has opened the app.
type RootOptions struct {
	Format  string
	Offline bool

	flags *config.Flags

	app  *client.App
	user models.User
	out  *OutputFormatter
}

// NewRootCommand creates the root command of the client.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{flags: config.NewFlags("social")}

	cmd := &cobra.Command{
		Use:           "social",
		Short:         "Offline-first social network client",
		Long:          "Reads are served from the local database; writes are stored locally and delivered to the server when it is reachable.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			opts.out = &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if err := opts.open(cmd); err != nil {
				_ = opts.close()
				return err
			}
			return nil
		},
	}

	cmd.PersistentFlags().AddGoFlagSet(opts.flags.FlagSet())
	cmd.PersistentFlags().StringVar(&opts.Format, "format", formatText, "output format (text|json)")
	cmd.PersistentFlags().BoolVar(&opts.Offline, "offline", false, "do not contact the server")

	cmd.AddCommand(
		newRegisterCommand(opts),
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newWhoAmICommand(opts),
		newPostCommand(opts),
		newDraftCommand(opts),
		newCommentCommand(opts),
		newSyncCommand(opts),
		newRunCommand(opts),
	)

	return cmd
}

// open builds the client app, probes the server unless --offline and
// restores the session if one exists.
func (o *RootOptions) open(cmd *cobra.Command) error {
	cfg, err := config.GetClientConfig(o.flags)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	log := logger.NewClientLogger("go-social-client", cfg.LogFile)
	ctx := log.Into(cmd.Context())
	cmd.SetContext(ctx)

	app, err := client.NewApp(ctx, cfg, log)
	if err != nil {
		return WrapExitError(ExitFailure, "cannot open client", err)
	}
	o.app = app

	if !o.Offline {
		app.Probe(ctx)
	}

	user, err := app.Restore(ctx)
	switch {
	case err == nil:
		o.user = user
	case errors.Is(err, service.ErrNotAuthenticated):
	default:
		return WrapExitError(ExitFailure, "cannot restore session", err)
	}
	return nil
}

// runE wraps a command body so the app is closed however it ends.
func (o *RootOptions) runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if closeErr := o.close(); err == nil {
			err = closeErr
		}
		return err
	}
}

func (o *RootOptions) close() error {
	if o.app == nil {
		return nil
	}
	err := o.app.Close()
	o.app = nil
	return err
}

// requireUser fails commands that need a logged-in account.
func (o *RootOptions) requireUser() error {
	if o.user.ID == "" {
		return WrapExitError(ExitAuthRequired, "not logged in, run `social login` first", service.ErrNotAuthenticated)
	}
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute(cmd *cobra.Command) int {
	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	out := &OutputFormatter{Format: formatText, Writer: cmd.ErrOrStderr()}
	if f := cmd.Flag("format"); f != nil && f.Value.String() == formatJSON {
		out.Format = formatJSON
		out.Writer = cmd.OutOrStdout()
	}
	out.Error(err)
	return GetExitCode(err)
}
