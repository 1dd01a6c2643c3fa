// Package main runs the todo-tracker server: the Telegram webhook, the
// digest endpoints, and token verification.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/amonks/tracker/internal/config"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := log.New(os.Stderr, "todod: ", log.LstdFlags)
	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Printf("%v", err)
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

type exitCodeError int

func (e exitCodeError) Error() string { return fmt.Sprintf("exited with code %d", int(e)) }

func (e exitCodeError) ExitCode() int { return int(e) }

func newRootCmd(logger *log.Logger) *cobra.Command {
	var (
		configPath string
		addr       string
	)
	cmd := &cobra.Command{
		Use:           "todod",
		Short:         "Serve the TODO Tracker webhook and digest endpoints",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.ProcessEnv()
			if err != nil {
				return err
			}
			dir, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := config.Load(config.LoadOptions{Path: configPath, Dir: dir, Env: env})
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default ~/.config/todo-tracker/config.toml)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, PORT, or :8080)")
	return cmd
}

// serve runs the HTTP server until SIGINT or SIGTERM.
func serve(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	d, err := newDaemon(ctx, cfg, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           d.handler,
		ErrorLog:          logger,
		ReadHeaderTimeout: 10 * time.Second,
	}
	listenErr := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	wait := gfshutdown.GracefulShutdown(ctx, shutdownTimeout, map[string]gfshutdown.Operation{
		"http": func(ctx context.Context) error {
			logger.Printf("shutting down")
			return errors.Join(httpServer.Shutdown(ctx), d.Close())
		},
	})

	select {
	case err := <-listenErr:
		_ = d.Close()
		return fmt.Errorf("listen on %s: %w", cfg.Server.Addr, err)
	case code := <-wait:
		if code != 0 {
			return exitCodeError(code)
		}
		return nil
	}
}
