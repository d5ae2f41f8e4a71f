package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adanyl0v/go-todo-client/internal/client"
	"github.com/adanyl0v/go-todo-client/internal/forms"
	"github.com/adanyl0v/go-todo-client/internal/models"
)

func newSignUpCmd(opts *rootOptions) *cobra.Command {
	var (
		req  models.SignUpRequest
		role string
	)

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm-password", "", "Password confirmation (prompted when omitted)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleUser), "Role: USER or ADMIN")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, args []string, app *appContext) error {
		var err error
		if req.Name == "" {
			if req.Name, err = app.prompt("Name: "); err != nil {
				return err
			}
		}
		if req.Email == "" {
			if req.Email, err = app.prompt("Email: "); err != nil {
				return err
			}
		}
		if req.Password == "" {
			if req.Password, err = app.promptSecret("Password: "); err != nil {
				return err
			}
		}
		if req.ConfirmPassword == "" {
			if req.ConfirmPassword, err = app.promptSecret("Confirm password: "); err != nil {
				return err
			}
		}
		req.Role = models.Role(strings.ToUpper(strings.TrimSpace(role)))

		_, err = app.session.SignUp(cmd.Context(), req)
		if err != nil {
			return app.reportError("Failed to create account", "Email already registered or invalid data.", err)
		}
		return nil
	})
	return cmd
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var req models.LoginRequest

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (prompted when omitted)")

	cmd.RunE = withApp(opts, func(cmd *cobra.Command, args []string, app *appContext) error {
		var err error
		if req.Email == "" {
			if req.Email, err = app.prompt("Email: "); err != nil {
				return err
			}
		}
		if req.Password == "" {
			if req.Password, err = app.promptSecret("Password: "); err != nil {
				return err
			}
		}

		user, err := app.session.Login(cmd.Context(), req)
		if err != nil {
			return app.reportError("Failed to log in", "Check your email and password.", err)
		}
		fmt.Fprintf(app.out, "Logged in as %s <%s>\n", user.Name, user.Email)
		return nil
	})
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, app *appContext) error {
			return app.session.Logout()
		}),
	}
}

func newWhoAmICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, app *appContext) error {
			user, err := app.session.RequireUser()
			if err != nil {
				return fmt.Errorf("%w: run 'todo login' first", err)
			}
			return app.renderUser(user)
		}),
	}
}

// reportError prints validation errors per field and everything else
// as a notification.
func (a *appContext) reportError(title, fallback string, err error) error {
	var fieldErrs forms.FieldErrors
	if errors.As(err, &fieldErrs) {
		for _, field := range fieldErrs.Fields() {
			fmt.Fprintf(a.errOut, "  %s: %s\n", field, fieldErrs[field])
		}
		return reportedError{err: err}
	}

	var transportErr *client.TransportError
	if errors.As(err, &transportErr) {
		a.printer.Error(title, "Could not reach the server.")
		return reportedError{err: err}
	}

	a.printer.Error(title, client.ErrorMessage(err, fallback))
	return reportedError{err: err}
}
