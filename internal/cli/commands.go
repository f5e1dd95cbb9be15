package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/auth"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/session"
)

var errNotLoggedIn = errors.New("no active session; run 'hready login'")

func (a *app) loginCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session for this backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email == "" {
				if email, err = a.readLine("Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				password = os.Getenv("HREADY_PASSWORD")
			}
			if password == "" {
				if password, err = a.readLine("Password: "); err != nil {
					return err
				}
			}
			if email == "" || password == "" {
				return errors.New("email and password required")
			}

			manager, _, err := a.session(cmd.Context(), a.opts.Config.API.LoginPath)
			if err != nil {
				return err
			}
			state, err := manager.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			fmt.Fprintf(a.opts.Out, "Signed in as %s (%s)\n", state.DisplayName, state.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or HREADY_PASSWORD)")
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := a.session(cmd.Context(), "/logout")
			if err != nil {
				return err
			}
			_ = manager.Logout(cmd.Context(),
				session.OnLogoutSuccess(func() {
					fmt.Fprintln(a.opts.Out, "Signed out.")
				}),
				session.OnLogoutFailure(func(err error) {
					fmt.Fprintf(a.opts.Out, "Signed out locally; the server could not be notified: %v\n", err)
				}),
			)
			return nil
		},
	}
}

func (a *app) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the live profile of the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := a.session(cmd.Context(), "/dashboard")
			if err != nil {
				return err
			}
			if !manager.IsAuthenticated() {
				return errNotLoggedIn
			}
			profile, err := manager.FetchLiveProfile(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.opts.Out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "Name:\t%s\n", fallback(profile.Name, "(none)"))
			_, _ = fmt.Fprintf(w, "Email:\t%s\n", fallback(profile.Email, "(none)"))
			_, _ = fmt.Fprintf(w, "ID:\t%s\n", profile.ID)
			_, _ = fmt.Fprintf(w, "Role:\t%s\n", fallback(string(profile.Role), "unknown"))
			return w.Flush()
		},
	}
}

func (a *app) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the locally stored session without contacting the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, client, err := a.session(cmd.Context(), "/status")
			if err != nil {
				return err
			}
			state := manager.State()

			w := tabwriter.NewWriter(a.opts.Out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "Backend:\t%s\n", client.BaseURL())
			_, _ = fmt.Fprintf(w, "Status:\t%s\n", state.Status)
			if state.IsAuthenticated() {
				_, _ = fmt.Fprintf(w, "User:\t%s (%s)\n", state.DisplayName, state.SubjectID)
				_, _ = fmt.Fprintf(w, "Role:\t%s\n", state.Role)
				if rec, err := client.Store().Read(cmd.Context()); err == nil {
					if claims, err := auth.DecodeToken(rec.Token); err == nil {
						_, _ = fmt.Fprintf(w, "Expires:\t%s (in %s)\n",
							claims.ExpiresAt.Format(time.RFC3339),
							time.Until(claims.ExpiresAt).Round(time.Second))
					}
				}
			}
			return w.Flush()
		},
	}
}

func (a *app) healthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := a.session(cmd.Context(), "/health")
			if err != nil {
				return err
			}
			if err := client.Health(cmd.Context()); err != nil {
				return fmt.Errorf("backend %s unhealthy: %w", client.BaseURL(), err)
			}
			fmt.Fprintf(a.opts.Out, "Backend %s is healthy\n", client.BaseURL())
			return nil
		},
	}
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
