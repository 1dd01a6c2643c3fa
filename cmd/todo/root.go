package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/amonks/tracker/auth"
	"github.com/amonks/tracker/internal/backend"
	"github.com/amonks/tracker/internal/config"
	"github.com/amonks/tracker/internal/failure"
	"github.com/amonks/tracker/internal/paths"
	"github.com/amonks/tracker/todo"
	"github.com/spf13/cobra"
)

const rootLong = `TODO Tracker CLI

Task text may carry a priority tag ([P0] highest to [P4]) anywhere and a
due date as its last word: today, tomorrow, or YYYY-MM-DD. Tasks default
to P1, due tomorrow.

Authentication:
  1. Generate token: Send /token to the Telegram bot
  2. Save token to ~/.todo-cli-token or set TODO_CLI_TOKEN env var

  Legacy mode (service role key):
    Create .env file or ~/.todo-cli.env with:
      SUPABASE_URL=https://your-project.supabase.co
      SUPABASE_SERVICE_ROLE_KEY=your-key
      TELEGRAM_CHAT_ID=your-user-id`

// app is the state one invocation threads through its commands.
type app struct {
	stdout io.Writer
	stderr io.Writer
	env    *config.Env
	// dir is searched for the project config file.
	dir string
	now func() time.Time

	configPath string
}

// session is an opened store scoped to the authenticated owner.
type session struct {
	cfg   *config.Config
	owner string
	tasks *todo.Gateway
	store backend.Store
}

func (s *session) Close() error {
	return s.store.Close()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "todo",
		Short:         "Track personal tasks from the terminal",
		Long:          rootLong,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				_ = cmd.Help()
				return failure.Usage("Unknown command: %s", args[0])
			}
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.config/todo-tracker/config.toml)")
	setFlagAliases(root.PersistentFlags(), rootFlagAliases)

	root.Version = versionString()
	root.SetVersionTemplate("{{.Version}}\n")

	root.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newDoneCmd(a),
		newSnoozeCmd(a),
		newSubtaskCmd(a),
		newExportCmd(a),
		newDigestCmd(a),
		newVersionCmd(),
	)
	return root
}

// open loads configuration, connects to the store, and resolves the owner.
func (a *app) open(ctx context.Context) (*session, error) {
	cfg, err := config.Load(config.LoadOptions{Path: a.configPath, Dir: a.dir, Env: a.env})
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.HTTPTimeout()
	if err != nil {
		return nil, err
	}
	now := func() time.Time { return a.now().In(loc) }
	tokenFile, err := paths.TokenFile()
	if err != nil {
		return nil, err
	}

	opts := backend.OpenOptions{
		Kind:    backend.Kind(cfg.Store.Backend),
		DSN:     cfg.Store.DSN,
		Timeout: timeout,
		Now:     now,
	}
	var (
		owner    string
		token    string
		verifier auth.Verifier
	)
	if cfg.Store.Backend == config.BackendREST {
		creds, err := config.ResolveCredentials(cfg, a.env, tokenFile)
		if err != nil {
			return nil, err
		}
		if cfg.Supabase.URL == "" {
			return nil, fmt.Errorf("%w: supabase url is not set", config.ErrMissingCredentials)
		}
		opts.URL, opts.APIKey = cfg.Supabase.URL, creds.APIKey
		if creds.Mode == config.ModeToken {
			token = creds.Token
			verifier = auth.NewRemoteVerifier(creds.VerifyURL, timeout)
		} else {
			owner = creds.Owner
		}
	} else {
		token, err = config.LoadToken(a.env, tokenFile)
		if err != nil {
			return nil, err
		}
		owner = cfg.LegacyOwner()
	}

	store, err := backend.Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	if token != "" {
		if verifier == nil {
			verifier = auth.NewManager(store, auth.Options{Now: now})
		}
		identity, err := verifier.Authenticate(ctx, token)
		if err != nil {
			_ = store.Close()
			return nil, reportf(err, "Invalid API token: %s", tokenFailure(err))
		}
		owner = identity.UserID
	}

	return &session{
		cfg:   cfg,
		owner: owner,
		tasks: todo.NewGateway(store, todo.GatewayOptions{Now: now}),
		store: store,
	}, nil
}

func tokenFailure(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return auth.MessageExpiredToken
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
		return auth.MessageInvalidToken
	default:
		return err.Error()
	}
}

// withSession opens a session for the duration of fn.
func (a *app) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}
