// Package cli implements the hready command line client. The session is kept in a file
// token store namespaced by the API origin, so one login per backend.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/apiclient"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/config"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/events"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/observability"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/service"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/session"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/tokenstore"
)

// Options wires the CLI. Zero values fall back to the process environment.
type Options struct {
	Config   *config.Config
	Keyspace tokenstore.Keyspace
	Logger   *zap.Logger
	In       io.Reader
	Out      io.Writer
	Err      io.Writer
	// Sleep overrides the retry backoff wait.
	Sleep apiclient.SleepFunc
}

type app struct {
	opts    Options
	in      *bufio.Reader
	apiURL  string
	dir     string
	verbose bool
}

// NewRootCommand builds the hready command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	a := &app{opts: opts, in: bufio.NewReader(opts.In)}

	root := &cobra.Command{
		Use:           "hready",
		Short:         "HReady command line client",
		Long:          "Sign in to an HReady backend and inspect the current session from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetIn(opts.In)
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "backend API base URL (default from HREADY_API_URL)")
	root.PersistentFlags().StringVar(&a.dir, "store-dir", "", "directory holding session files (default ~/.config/hready)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log API traffic to stderr")

	root.AddCommand(
		a.loginCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.statusCommand(),
		a.healthCommand(),
	)
	return root
}

// Execute runs the CLI with process defaults and returns the exit code.
func Execute() int {
	root := NewRootCommand(Options{})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func (a *app) init() error {
	if a.opts.Config == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		a.opts.Config = cfg
	}
	if a.apiURL == "" {
		a.apiURL = a.opts.Config.API.ResolveBaseURL(a.opts.Config.App.Env)
	}
	if a.opts.Logger == nil {
		a.opts.Logger = zap.NewNop()
		if a.verbose {
			logCfg := a.opts.Config.Logger
			logCfg.Level, logCfg.Format, logCfg.Output = "debug", "console", "stderr"
			logger, err := observability.NewLogger(logCfg, "hready")
			if err != nil {
				return err
			}
			a.opts.Logger = logger
		}
	}
	if a.opts.Keyspace == nil {
		dir := a.dir
		if dir == "" {
			dir = a.opts.Config.Store.FileDir
		}
		ks, err := tokenstore.NewFile(dir)
		if err != nil {
			return err
		}
		a.opts.Keyspace = ks
	}
	return nil
}

// cliNavigator tells the user to sign in again after a forced logout.
type cliNavigator struct {
	path string
	out  io.Writer
}

func (n cliNavigator) CurrentPath() string { return n.path }

func (n cliNavigator) RedirectToLogin(context.Context) {
	fmt.Fprintln(n.out, "Your session was rejected by the server; run 'hready login' to sign in again.")
}

// session builds a manager for the command's logical page.
func (a *app) session(ctx context.Context, page string) (*session.Manager, *apiclient.Client, error) {
	namespace, err := originOf(a.apiURL)
	if err != nil {
		return nil, nil, err
	}
	store := a.opts.Keyspace.For(namespace)
	dispatcher := events.NewBusDispatcher(a.opts.Logger)
	if a.verbose {
		if err := service.NewAuditService(dispatcher, a.opts.Logger).RegisterHandlers(); err != nil {
			return nil, nil, err
		}
	}

	api := a.opts.Config.API
	client, err := apiclient.New(apiclient.Options{
		BaseURL:       a.apiURL,
		Store:         store,
		Navigator:     cliNavigator{path: page, out: a.opts.Err},
		Timeout:       api.Timeout(),
		HealthTimeout: api.HealthTimeout(),
		RetryBackoff:  api.RetryBackoff(),
		LoginPath:     api.LoginPath,
		Logger:        a.opts.Logger,
		Dispatcher:    dispatcher,
		Sleep:         a.opts.Sleep,
	})
	if err != nil {
		return nil, nil, err
	}
	manager := session.NewManager(ctx, client, store, session.Options{
		Logger:     a.opts.Logger,
		Dispatcher: dispatcher,
	})
	return manager, client, nil
}

// originOf reduces a base URL to scheme://host, the session namespace.
func originOf(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid API URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid API URL %q", raw)
	}
	return u.Scheme + "://" + u.Host, nil
}

func (a *app) readLine(prompt string) (string, error) {
	fmt.Fprint(a.opts.Err, prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
