package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/adanyl0v/go-todo-client/internal/client"
	"github.com/adanyl0v/go-todo-client/internal/config"
	"github.com/adanyl0v/go-todo-client/internal/logging"
	"github.com/adanyl0v/go-todo-client/internal/session"
	"github.com/adanyl0v/go-todo-client/internal/tasks"
)

// appContext is everything a command needs. It is mounted once per command
// invocation and torn down when the command returns.
type appContext struct {
	cfg     *config.ClientConfig
	logger  zerolog.Logger
	out     io.Writer
	errOut  io.Writer
	in      *bufio.Reader
	stdin   io.Reader
	output  string
	printer *printer

	session     *session.Manager
	taskService client.TaskService
	tasks       *tasks.Store
}

func withApp(opts *rootOptions, run func(cmd *cobra.Command, args []string, app *appContext) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := mountApp(cmd, opts)
		if err != nil {
			return err
		}
		defer func() { _ = app.session.Close() }()

		return run(cmd, args, app)
	}
}

func mountApp(cmd *cobra.Command, opts *rootOptions) (*appContext, error) {
	switch opts.output {
	case outputTable, outputJSON, outputYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q", opts.output)
	}

	cfg, err := config.NewClientEnvReader(opts.configPath).Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if opts.apiURL != "" {
		cfg.API.BaseURL = opts.apiURL
	}
	if opts.tokenFile != "" {
		cfg.TokenFile = opts.tokenFile
	}

	logger := zerolog.Nop()
	if opts.verbose {
		logger, err = logging.New(cfg.Env, cmd.ErrOrStderr())
		if err != nil {
			return nil, err
		}
		if logger.GetLevel() > zerolog.DebugLevel {
			logger = logger.Level(zerolog.DebugLevel)
		}
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	p := newPrinter(out, errOut)

	tokenStore := session.NewFileTokenStore(cfg.TokenFile)
	transport, err := client.New(client.Config{
		BaseURL:      cfg.API.BaseURL,
		Timeout:      cfg.API.Timeout,
		ReadRetries:  cfg.API.ReadRetries,
		RetryBackoff: cfg.API.RetryBackoff,
	}, session.NewTokenSource(logger, tokenStore), logger.With().Str("component", "transport").Logger())
	if err != nil {
		return nil, err
	}

	taskService := client.NewTaskService(transport)
	manager := session.NewManager(
		logger.With().Str("component", "session").Logger(),
		client.NewAuthService(transport),
		tokenStore,
		p,
	)
	manager.Init(cmd.Context())

	return &appContext{
		cfg:         cfg,
		logger:      logger,
		out:         out,
		errOut:      errOut,
		in:          bufio.NewReader(cmd.InOrStdin()),
		stdin:       cmd.InOrStdin(),
		output:      opts.output,
		printer:     p,
		session:     manager,
		taskService: taskService,
		tasks:       tasks.NewStore(logger.With().Str("component", "tasks").Logger(), taskService, p),
	}, nil
}

// requireUser is the route guard of authenticated commands.
func (a *appContext) requireUser() error {
	_, err := a.session.RequireUser()
	if err != nil {
		return fmt.Errorf("%w: run 'todo login' first", err)
	}
	return nil
}

// prompt prints label and reads one line from the input.
func (a *appContext) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptSecret is prompt without echo when the input is a terminal. Piped
// input is read line by line like any other answer.
func (a *appContext) promptSecret(label string) (string, error) {
	file, ok := a.stdin.(interface{ Fd() uintptr })
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return a.prompt(label)
	}

	fmt.Fprint(a.out, label)
	secret, err := term.ReadPassword(int(file.Fd()))
	fmt.Fprintln(a.out)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return string(secret), nil
}

// confirm implements tasks.Confirmer on top of the input. Only an
// explicit yes approves.
func (a *appContext) confirm(title, description string) bool {
	answer, err := a.prompt(fmt.Sprintf("%s %s [y/N]: ", title, description))
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
