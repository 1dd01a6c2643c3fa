// Package server exposes the chat webhook, scheduled digests, and token
// verification over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"runtime/debug"

	"github.com/amonks/tracker/auth"
	"github.com/amonks/tracker/bot"
	"github.com/amonks/tracker/digest"
	"github.com/amonks/tracker/telegram"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Options configures a Server.
type Options struct {
	Router   *bot.Router
	Digests  *digest.Generator
	Verifier auth.Verifier
	// Sender delivers bot replies and digests. Nil drops them with a log line.
	Sender digest.Sender
	// ChatID owns the digested tasks and receives the digests.
	ChatID string
	// WebhookSecret, when set, must match the secret token header.
	WebhookSecret string
	Logger        *log.Logger
}

// Server handles webhook and scheduled requests.
type Server struct {
	router        *bot.Router
	digests       *digest.Generator
	verifier      auth.Verifier
	sender        digest.Sender
	chatID        string
	webhookSecret string
	logger        *log.Logger
}

// New creates a server.
func New(opts Options) (*Server, error) {
	if opts.Router == nil {
		return nil, fmt.Errorf("bot router is required")
	}
	if opts.Digests == nil {
		return nil, fmt.Errorf("digest generator is required")
	}
	if opts.Verifier == nil {
		return nil, fmt.Errorf("token verifier is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "todod: ", log.LstdFlags)
	}
	return &Server{
		router:        opts.Router,
		digests:       opts.Digests,
		verifier:      opts.Verifier,
		sender:        opts.Sender,
		chatID:        opts.ChatID,
		webhookSecret: opts.WebhookSecret,
		logger:        logger,
	}, nil
}

// Handler returns the HTTP handler with request logging and panic recovery.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/webhook", s.handleWebhook).Methods(http.MethodPost)
	r.HandleFunc("/digest/daily", s.handleDaily).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/digest/weekly", s.handleWeekly).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/auth/verify", VerifyHandler(s.verifier)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "OK")
	}).Methods(http.MethodGet)

	return s.recoverHandler(handlers.CombinedLoggingHandler(s.logger.Writer(), r))
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.webhookSecret != "" {
		got := r.Header.Get(telegram.SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.webhookSecret)) != 1 {
			s.writeError(w, r, http.StatusUnauthorized, errors.New("invalid webhook secret"))
			return
		}
	}

	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.logRequestError(r, http.StatusBadRequest, err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	text := update.Text()
	if text == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	owner := update.Message.Chat.Owner()
	reply := s.router.Handle(r.Context(), owner, text)
	s.sendReply(r.Context(), owner, reply)

	_, _ = io.WriteString(w, "OK")
}

func (s *Server) sendReply(ctx context.Context, chatID string, reply bot.Reply) {
	if s.sender == nil {
		s.logf("no telegram client configured; dropping reply to %s", chatID)
		return
	}
	msg := telegram.OutgoingMessage{ChatID: chatID, Text: reply.Text}
	if reply.Markdown {
		msg.ParseMode = telegram.ParseModeMarkdown
	}
	if err := s.sender.SendMessage(ctx, msg); err != nil {
		s.logf("send reply to %s: %v", chatID, err)
	}
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	report, err := s.digests.Daily(r.Context(), s.chatID)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, fmt.Errorf("build daily digest: %w", err))
		return
	}
	s.logDelivery("daily digest", digest.Deliver(r.Context(), s.sender, s.chatID, report.String()))
	writeJSON(w, http.StatusOK, digestResponse{Success: true, Message: "Digest sent"})
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	report, err := s.digests.Weekly(r.Context(), s.chatID)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, fmt.Errorf("build weekly report: %w", err))
		return
	}
	s.logDelivery("weekly report", digest.Deliver(r.Context(), s.sender, s.chatID, report.String()))
	writeJSON(w, http.StatusOK, digestResponse{Success: true, Message: "Weekly report sent"})
}

type digestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) logDelivery(kind string, delivery digest.Delivery) {
	if delivery.Sent {
		s.logf("%s sent to %s", kind, delivery.ChatID)
		return
	}
	s.logf("%s not delivered to %q: %v", kind, delivery.ChatID, delivery.Err)
}

// VerifyHandler answers token verification requests for v, with CORS
// open to any origin.
func VerifyHandler(v auth.Verifier) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"}),
	)
	return cors(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			_, _ = io.WriteString(w, "ok")
			return
		}

		secret, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: auth.MessageMissingToken})
			return
		}
		identity, err := v.Authenticate(r.Context(), secret)
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: auth.MessageExpiredToken})
		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: auth.MessageInvalidToken})
		case err != nil:
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		default:
			writeJSON(w, http.StatusOK, auth.VerifyResponse{Valid: true, UserID: identity.UserID, TokenName: identity.TokenName})
		}
	}))
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) recoverHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writer := &responseTracker{ResponseWriter: w}
		defer func() {
			if recovered := recover(); recovered != nil {
				s.logf("panic handling request %s %s: %v\n%s", r.Method, r.URL.Path, recovered, debug.Stack())
				if writer.wroteHeader {
					return
				}
				writeJSON(writer, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
			}
		}()
		next.ServeHTTP(writer, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logRequestError(r, status, err)
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) logRequestError(r *http.Request, status int, err error) {
	s.logger.Printf("request %s %s failed (%d): %v", r.Method, r.URL.Path, status, err)
}

func (s *Server) logf(format string, args ...any) {
	s.logger.Printf(format, args...)
}

type responseTracker struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *responseTracker) WriteHeader(status int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseTracker) Write(data []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(data)
}
