package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pillsparkai/pillspark-bot/internal/messaging"
	"github.com/pillsparkai/pillspark-bot/internal/models"
	"github.com/pillsparkai/pillspark-bot/internal/schedule"
	"github.com/pillsparkai/pillspark-bot/internal/store"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"
	// maxWebhookBody caps how much of a webhook delivery is read.
	maxWebhookBody = 1 << 20
	// shutdownTimeout bounds graceful shutdown.
	shutdownTimeout = 10 * time.Second
	// defaultListLimit is the default page size for admin listings.
	defaultListLimit = 50
)

// MessageHandler consumes one normalized inbound message.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg models.IncomingMessage) error
}

// Opts holds configuration options for the Server.
type Opts struct {
	Addr        string
	VerifyToken string
	AppSecret   string
}

// Option defines a configuration option for the Server.
type Option func(*Opts)

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithVerifyToken sets the token expected by the webhook verification
// handshake.
func WithVerifyToken(token string) Option {
	return func(o *Opts) { o.VerifyToken = token }
}

// WithAppSecret enables HMAC signature verification of webhook deliveries.
func WithAppSecret(secret string) Option {
	return func(o *Opts) { o.AppSecret = secret }
}

// Server is the PillSpark HTTP server.
type Server struct {
	router      chi.Router
	store       store.Store
	msg         messaging.Service
	registry    *schedule.Registry
	handler     MessageHandler
	addr        string
	verifyToken string
	appSecret   string
}

// NewServer creates the HTTP server and mounts all routes.
func NewServer(st store.Store, msg messaging.Service, reg *schedule.Registry, handler MessageHandler, opts ...Option) *Server {
	o := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Server{
		store:       st,
		msg:         msg,
		registry:    reg,
		handler:     handler,
		addr:        o.Addr,
		verifyToken: o.VerifyToken,
		appSecret:   o.AppSecret,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.healthHandler)
	r.Get("/webhook", s.verifyWebhookHandler)
	r.Post("/webhook", s.webhookHandler)
	r.Route("/admin", func(r chi.Router) {
		r.Get("/stats", s.statsHandler)
		r.Get("/feedback", s.feedbackHandler)
		r.Get("/confirmations", s.confirmationsHandler)
		r.Post("/broadcast", s.broadcastHandler)
	})

	s.router = r
	return s
}

// Handler returns the mounted route tree.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("Server.Run: shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		return nil
	}
}

// verifyWebhookHandler answers the Cloud API subscription handshake by
// echoing hub.challenge when the verify token matches.
func (s *Server) verifyWebhookHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && s.verifyToken != "" && token == s.verifyToken {
		slog.Info("Server.verifyWebhookHandler: webhook verified")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(challenge)); err != nil {
			slog.Error("Server.verifyWebhookHandler: failed to write challenge", "error", err)
		}
		return
	}
	slog.Warn("Server.verifyWebhookHandler: verification rejected", "mode", mode)
	w.WriteHeader(http.StatusForbidden)
}

// webhookHandler accepts one webhook delivery. The delivery is acknowledged
// with 200 as long as it is authentic and well formed; per-message handler
// errors are logged, never surfaced, so the platform does not re-deliver.
func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		slog.Warn("Server.webhookHandler: failed to read body", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Failed to read request body"))
		return
	}

	if s.appSecret != "" {
		if !verifySignature(s.appSecret, body, r.Header.Get("X-Hub-Signature-256")) {
			slog.Warn("Server.webhookHandler: signature verification failed")
			writeJSONResponse(w, http.StatusUnauthorized, models.Error("Invalid signature"))
			return
		}
	}

	messages, err := parseWebhookPayload(body)
	if err != nil {
		slog.Warn("Server.webhookHandler: failed to parse payload", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid webhook payload"))
		return
	}

	for _, msg := range messages {
		if err := s.handler.HandleMessage(r.Context(), msg); err != nil {
			slog.Error("Server.webhookHandler: message handling failed", "from", msg.From, "type", msg.Type, "error", err)
		}
	}
	slog.Debug("Server.webhookHandler: delivery processed", "messages", len(messages))
	writeJSONResponse(w, http.StatusOK, models.Success(nil))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.CountUsers()
	if err != nil {
		slog.Error("Server.healthHandler: store check failed", "error", err)
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Store unavailable"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"users":          users,
		"activeTriggers": s.registry.Len(),
	}))
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.CountUsers()
	if err != nil {
		slog.Error("Server.statsHandler: failed to count users", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to gather stats"))
		return
	}
	medicines, err := s.store.CountMedicines()
	if err != nil {
		slog.Error("Server.statsHandler: failed to count medicines", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to gather stats"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"users":          users,
		"medicines":      medicines,
		"activeTriggers": s.registry.Len(),
	}))
}

func (s *Server) feedbackHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListFeedback(listLimit(r))
	if err != nil {
		slog.Error("Server.feedbackHandler: failed to list feedback", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list feedback"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(entries))
}

func (s *Server) confirmationsHandler(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListRecentConfirmations(listLimit(r))
	if err != nil {
		slog.Error("Server.confirmationsHandler: failed to list confirmations", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list confirmations"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(records))
}

// broadcastRequest is the POST /admin/broadcast body.
type broadcastRequest struct {
	Body string `json:"body"`
}

// broadcastHandler sends a text message to every known user. Delivery is
// best-effort per recipient; the response reports how many sends succeeded.
func (s *Server) broadcastHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.broadcastHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.Body == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: body"))
		return
	}

	phones, err := s.store.ListUserPhones()
	if err != nil {
		slog.Error("Server.broadcastHandler: failed to list users", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list users"))
		return
	}

	sent := 0
	for _, phone := range phones {
		if err := s.msg.SendText(r.Context(), phone, req.Body); err != nil {
			slog.Error("Server.broadcastHandler: failed to send", "phone", phone, "error", err)
			continue
		}
		sent++
	}
	slog.Info("Server.broadcastHandler: broadcast complete", "recipients", len(phones), "sent", sent)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Broadcast complete", map[string]interface{}{
		"recipients": len(phones),
		"sent":       sent,
	}))
}

// listLimit reads the optional ?limit query parameter.
func listLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultListLimit
}
