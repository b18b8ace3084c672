package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-social-sync/models"
)

func printUser(u models.User) func(w io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintf(w, "%s  %s", u.ID, u.Email)
		if u.Alias != "" {
			fmt.Fprintf(w, "  @%s", u.Alias)
		}
		if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
			fmt.Fprintf(w, "  (%s)", name)
		}
		fmt.Fprintln(w)
	}
}

func newRegisterCommand(opts *RootOptions) *cobra.Command {
	var req models.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = opts.runE(func(cmd *cobra.Command, args []string) error {
		user, err := opts.app.Services.AuthService.Register(cmd.Context(), req)
		if err != nil {
			return err
		}
		return opts.out.Success(user, printUser(user))
	})

	cmd.Flags().StringVar(&req.Email, "email", "", "account e-mail (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password (required)")
	cmd.Flags().StringVar(&req.Alias, "alias", "", "unique public alias")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLoginCommand(opts *RootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <email-or-alias>",
		Short: "Log in; switching accounts clears the local cache",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = opts.runE(func(cmd *cobra.Command, args []string) error {
		user, err := opts.app.Services.AuthService.Login(cmd.Context(), models.LoginRequest{Login: args[0], Password: password})
		if err != nil {
			return err
		}
		return opts.out.Success(user, printUser(user))
	})

	cmd.Flags().StringVar(&password, "password", "", "account password (required)")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the session; cached data stays on disk",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = opts.runE(func(cmd *cobra.Command, args []string) error {
		if err := opts.app.Services.AuthService.Logout(cmd.Context()); err != nil {
			return err
		}
		return opts.out.Success(map[string]bool{"logged_out": true}, func(w io.Writer) {
			fmt.Fprintln(w, "logged out")
		})
	})
	return cmd
}

func newWhoAmICommand(opts *RootOptions) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = opts.runE(func(cmd *cobra.Command, args []string) error {
		if err := opts.requireUser(); err != nil {
			return err
		}

		auth := opts.app.Services.AuthService
		user, err := auth.Me(cmd.Context())
		if refresh && opts.app.Monitor.IsOnline() {
			user, err = auth.RefreshMe(cmd.Context())
		}
		if err != nil {
			return err
		}
		return opts.out.Success(user, printUser(user))
	})

	cmd.Flags().BoolVar(&refresh, "refresh", false, "reload the profile from the server")
	return cmd
}
