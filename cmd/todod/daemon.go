package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/amonks/tracker/auth"
	"github.com/amonks/tracker/bot"
	"github.com/amonks/tracker/digest"
	"github.com/amonks/tracker/internal/backend"
	"github.com/amonks/tracker/internal/config"
	"github.com/amonks/tracker/server"
	"github.com/amonks/tracker/telegram"
	"github.com/amonks/tracker/todo"
)

// daemon is the wired server and the store it owns.
type daemon struct {
	handler http.Handler
	store   backend.Store
}

func (d *daemon) Close() error {
	return d.store.Close()
}

// newDaemon opens the store and wires the router, digests, and verifier
// described by cfg. The rest backend uses the service role key.
func newDaemon(ctx context.Context, cfg *config.Config, logger *log.Logger) (*daemon, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	ttl, err := cfg.TokenTTL()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.HTTPTimeout()
	if err != nil {
		return nil, err
	}
	now := func() time.Time { return time.Now().In(loc) }

	opts := backend.OpenOptions{
		Kind:    backend.Kind(cfg.Store.Backend),
		DSN:     cfg.Store.DSN,
		Timeout: timeout,
		Now:     now,
	}
	if cfg.Store.Backend == config.BackendREST {
		if cfg.Supabase.ServiceRoleKey == "" {
			return nil, fmt.Errorf("%w: the server needs SUPABASE_SERVICE_ROLE_KEY", config.ErrMissingCredentials)
		}
		opts.URL, opts.APIKey = cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey
	}
	store, err := backend.Open(ctx, opts)
	if err != nil {
		return nil, err
	}

	tasks := todo.NewGateway(store, todo.GatewayOptions{Now: now})
	tokens := auth.NewManager(store, auth.Options{Now: now, TTL: ttl})

	var sender digest.Sender
	if cfg.Telegram.BotToken != "" {
		sender = telegram.NewClient(cfg.Telegram.BotToken, telegram.Options{BaseURL: cfg.Telegram.APIURL, Timeout: timeout})
	} else {
		logger.Printf("TELEGRAM_BOT_TOKEN is not set; replies and digests will be dropped")
	}
	if cfg.Telegram.ChatID == "" {
		logger.Printf("TELEGRAM_CHAT_ID is not set; digests have no recipient")
	}

	srv, err := server.New(server.Options{
		Router:        bot.NewRouter(tasks, bot.Options{Tokens: tokens, Logger: logger}),
		Digests:       digest.NewGenerator(tasks, digest.Options{Now: now}),
		Verifier:      tokens,
		Sender:        sender,
		ChatID:        cfg.Telegram.ChatID,
		WebhookSecret: cfg.Telegram.WebhookSecret,
		Logger:        logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &daemon{handler: srv.Handler(), store: store}, nil
}
