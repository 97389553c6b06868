package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/storyline/internal/logging"
	"github.com/aretw0/storyline/internal/runtime"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/runner"
	"github.com/aretw0/storyline/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Player runs a reader's session. *runtime.Engine satisfies it.
type Player interface {
	Play(ctx context.Context, readerID domain.ReaderID) error
	Story() *domain.Story
}

// Server exposes sessions over HTTP. Sessions run in the background under the
// server's own context; readers answer them through POST /interactions.
type Server struct {
	player    Player
	transport *Transport
	sessions  *session.Manager
	logger    *slog.Logger
	gatherer  prometheus.Gatherer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGatherer exposes the given registry on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a server. player must present through transport, and
// sessions must wrap the store player writes to.
func NewServer(player Player, transport *Transport, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		player:    player,
		transport: transport,
		sessions:  sessions,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	r.Get("/story", s.GetStory)
	r.Post("/interactions", s.PostInteraction)
	r.Route("/readers/{id}", func(r chi.Router) {
		r.Post("/play", s.PostPlay)
		r.Get("/messages", s.GetMessages)
		r.Get("/progress", s.GetProgress)
		r.Get("/events", s.SubscribeEvents)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Close cancels every running session and waits for them to return.
func (s *Server) Close(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PostPlay handles POST /readers/{id}/play.
func (s *Server) PostPlay(w http.ResponseWriter, r *http.Request) {
	reader, ok := s.readerParam(w, r)
	if !ok {
		return
	}

	end, err := s.sessions.Begin(reader)
	if errors.Is(err, session.ErrSessionActive) {
		writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer end()
		if err := s.player.Play(s.ctx, reader); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("Session failed", "reader_id", int64(reader), "err", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{"reader_id": reader, "status": "started"}, s.logger)
}

// GetMessages handles GET /readers/{id}/messages.
func (s *Server) GetMessages(w http.ResponseWriter, r *http.Request) {
	reader, ok := s.readerParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reader_id": reader,
		"active":    s.sessions.Active(reader),
		"pending":   nonNil(s.transport.Pending(reader)),
		"messages":  s.transport.Messages(reader),
	}, s.logger)
}

// GetProgress handles GET /readers/{id}/progress.
func (s *Server) GetProgress(w http.ResponseWriter, r *http.Request) {
	reader, ok := s.readerParam(w, r)
	if !ok {
		return
	}
	passage, err := s.sessions.Get(r.Context(), reader)
	if errors.Is(err, domain.ErrProgressNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.logger.Error("Progress lookup failed", "reader_id", int64(reader), "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.ReaderProgress{ReaderID: reader, CurrentPassage: passage}, s.logger)
}

// PostInteraction handles POST /interactions. The body is an interaction; a
// missing kind means button.
func (s *Server) PostInteraction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(runner.MaxInputSize()))
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, runner.ErrInputTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	clean, err := runner.SanitizeInput(string(raw))
	if err != nil {
		s.logger.Warn("Interaction rejected", "err", err, "size", len(raw))
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var in domain.Interaction
	if err := json.Unmarshal([]byte(clean), &in); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	in.Token = strings.TrimSpace(in.Token)
	if in.Kind == "" {
		in.Kind = domain.InteractionButton
	}
	if !in.Kind.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown interaction kind %q", in.Kind))
		return
	}

	if err := s.transport.Dispatch(in); err != nil {
		if errors.Is(err, domain.ErrNoPendingChoice) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"}, s.logger)
}

// GetStory handles GET /story.
func (s *Server) GetStory(w http.ResponseWriter, r *http.Request) {
	story := s.player.Story()
	writeJSON(w, http.StatusOK, map[string]any{
		"title":    story.Title(),
		"start":    story.Start(),
		"passages": runtime.Inspect(story),
	}, s.logger)
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

// SubscribeEvents handles GET /readers/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	reader, ok := s.readerParam(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	ch, unsubscribe := s.transport.Streams.Subscribe(reader)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	s.logger.Debug("SSE: subscribed", "reader_id", int64(reader))
	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE: client disconnected", "reader_id", int64(reader))
			return
		case <-s.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: storyline\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) readerParam(w http.ResponseWriter, r *http.Request) (domain.ReaderID, bool) {
	reader, err := domain.ParseReaderID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid reader id: %w", err))
		return 0, false
	}
	return reader, true
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
