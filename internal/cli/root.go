package cli

import (
	"errors"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	apiURL     string
	tokenFile  string
	output     string
	verbose    bool
}

// reportedError marks an error the user has already been told about
// through a notification.
type reportedError struct {
	err error
}

func (e reportedError) Error() string {
	return e.err.Error()
}

func (e reportedError) Unwrap() error {
	return e.err
}

func newRootCmd(version string) *cobra.Command {
	opts := new(rootOptions)

	rootCmd := &cobra.Command{
		Use:   "todo",
		Short: "todo - manage your tasks from the terminal",
		Long: `todo is a client for the task API.

Sign up, log in, and create, edit, complete or delete your tasks.
Administrators can also list the tasks of every user.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file (default $TODO_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "API base URL (default $TODO_API_URL)")
	rootCmd.PersistentFlags().StringVar(&opts.tokenFile, "token-file", "", "Where the session token is kept (default $TODO_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", outputTable, "Output format: table, json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(newSignUpCmd(opts))
	rootCmd.AddCommand(newLoginCmd(opts))
	rootCmd.AddCommand(newLogoutCmd(opts))
	rootCmd.AddCommand(newWhoAmICmd(opts))
	rootCmd.AddCommand(newTasksCmd(opts))

	return rootCmd
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd := newRootCmd(version)
	if err := rootCmd.Execute(); err != nil {
		if !errors.As(err, new(reportedError)) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}
