// Package audio provides the request sources the assistant can listen
// on: an HTTP endpoint, a watched directory, and a microphone.
package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"voicebank/internal/domain"
)

const maxAudioBytes = 10 * 1024 * 1024

// HTTPSource exposes the banking endpoints the presentation layer
// calls: command audio/text plus voice enrollment and verification.
// Requests are queued on a channel and consumed by the assistant loop.
type HTTPSource struct {
	addr        string
	defaultUser string
	authToken   string
	server      *http.Server
	requests    chan *domain.Request
	logger      *slog.Logger
	mu          sync.Mutex
	running     bool
	mux         *http.ServeMux
	closeOnce   sync.Once
	rateLimiter *RateLimiter
}

func NewHTTPSource(addr, defaultUser, authToken string, logger *slog.Logger) *HTTPSource {
	h := &HTTPSource{
		addr:        addr,
		defaultUser: defaultUser,
		authToken:   authToken,
		requests:    make(chan *domain.Request, 10),
		logger:      logger,
		mux:         http.NewServeMux(),
		rateLimiter: NewRateLimiter(30, time.Minute), // 30 requests per minute per IP
	}
	h.mux.HandleFunc("POST /v1/audio", h.rateLimiter.Middleware(h.handleAudio))
	h.mux.HandleFunc("POST /v1/text", h.rateLimiter.Middleware(h.handleText))
	h.mux.HandleFunc("POST /v1/enroll", h.rateLimiter.Middleware(h.withAuth(h.handleEnroll)))
	h.mux.HandleFunc("POST /v1/verify", h.rateLimiter.Middleware(h.withAuth(h.handleVerify)))
	// No rate limiting on health check
	h.mux.HandleFunc("GET /health", h.handleHealth)
	return h
}

func (h *HTTPSource) Name() string {
	return "http"
}

func (h *HTTPSource) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}

	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		h.logger.Info("HTTP request server starting", "addr", h.addr)
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", "error", err)
		}
	}()

	h.running = true
	return nil
}

func (h *HTTPSource) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return nil
	}

	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.server.Shutdown(ctx); err != nil {
			h.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := h.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	h.closeOnce.Do(func() {
		close(h.requests)
	})
	h.running = false
	return nil
}

func (h *HTTPSource) NextRequest(ctx context.Context) (*domain.Request, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case req, ok := <-h.requests:
		if !ok {
			return nil, fmt.Errorf("request channel closed")
		}
		return req, nil
	}
}

func (h *HTTPSource) Handler() http.Handler {
	return h.mux
}

// Inject queues a request directly, bypassing HTTP. Used by tests.
func (h *HTTPSource) Inject(req *domain.Request) {
	select {
	case h.requests <- req:
	default:
	}
}

func (h *HTTPSource) userID(r *http.Request) string {
	if user := r.URL.Query().Get("user"); user != "" {
		return user
	}
	return h.defaultUser
}

func (h *HTTPSource) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.authToken != "" {
			token := r.Header.Get("X-Auth-Token")
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token != h.authToken {
				h.logger.Warn("unauthorized request", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (h *HTTPSource) handleAudio(w http.ResponseWriter, r *http.Request) {
	h.enqueueAudio(w, r, domain.KindCommand)
}

func (h *HTTPSource) handleEnroll(w http.ResponseWriter, r *http.Request) {
	h.enqueueAudio(w, r, domain.KindEnroll)
}

func (h *HTTPSource) handleVerify(w http.ResponseWriter, r *http.Request) {
	h.enqueueAudio(w, r, domain.KindVerify)
}

func (h *HTTPSource) enqueueAudio(w http.ResponseWriter, r *http.Request, kind domain.RequestKind) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes))
	if err != nil {
		h.logger.Error("reading audio body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if len(data) == 0 {
		http.Error(w, "empty audio", http.StatusBadRequest)
		return
	}

	req := &domain.Request{Kind: kind, UserID: h.userID(r), Audio: data}

	select {
	case h.requests <- req:
		h.logger.Info("received audio via HTTP", "kind", kind, "user", req.UserID, "bytes", len(data))
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, `{"status":"received","kind":"%s","bytes":%d}`, kind, len(data))
	default:
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
	}
}

func (h *HTTPSource) handleText(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 1024))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	text := string(data)
	if text == "" {
		http.Error(w, "empty text", http.StatusBadRequest)
		return
	}

	req := &domain.Request{Kind: domain.KindCommand, UserID: h.userID(r), Text: text}

	select {
	case h.requests <- req:
		h.logger.Info("received text command via HTTP", "user", req.UserID, "text", text)
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, `{"status":"received","text":"%s"}`, text)
	default:
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
	}
}

func (h *HTTPSource) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	running := h.running
	queueSize := len(h.requests)
	h.mu.Unlock()

	status := "ok"
	statusCode := http.StatusOK

	if !running {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	fmt.Fprintf(w, `{"status":"%s","running":%t,"queue_size":%d}`, status, running, queueSize)
}
