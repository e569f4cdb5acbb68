package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/boardsync/internal/app"
	"github.com/runoshun/boardsync/internal/usecase"
)

// newLoginCommand creates the login command.
func newLoginCommand(c *app.Container) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Sign in with email and password.

The session is written to the session file and reused by later commands
until 'boardsync logout' is run or the token expires.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.LoginUseCase().Execute(cmd.Context(), usecase.LoginInput{
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", out.Session.Email, out.Session.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// newLogoutCommand creates the logout command.
func newLogoutCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.LogoutUseCase().Execute(cmd.Context(), usecase.LogoutInput{}); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

// newWhoamiCommand creates the whoami command.
func newWhoamiCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireSession(c); err != nil {
				return err
			}
			s := c.Session.Current()
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Email: %s\n", s.Email)
			_, _ = fmt.Fprintf(w, "User: %s\n", orDash(s.UserID))
			_, _ = fmt.Fprintf(w, "Role: %s\n", orDash(string(s.Role)))
			return nil
		},
	}
}
