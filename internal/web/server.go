package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pdf-compressor-go/internal/compressor"
	"pdf-compressor-go/internal/config"
	"pdf-compressor-go/internal/engine"
	"pdf-compressor-go/internal/logger"
	"pdf-compressor-go/internal/metrics"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Runner is what the server needs from a compressor.
type Runner interface {
	Compress(ctx context.Context, job compressor.Job) compressor.Outcome
	Run(ctx context.Context, job compressor.Job) compressor.Outcome
	Handle() engine.Handle
}

type Server struct {
	cfg        *config.Config
	log        *logrus.Logger
	runner     Runner
	metrics    *metrics.Metrics
	policy     compressor.ReductionPolicy
	router     *mux.Router
	httpServer *http.Server
	wsUpgrader websocket.Upgrader
	wsClients  map[*websocket.Conn]bool
	wsMutex    sync.Mutex

	// Current batch state
	operationMutex sync.RWMutex
	current        *batchState
	last           *batchState
}

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"`
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewServer(cfg *config.Config, runner Runner, m *metrics.Metrics, log *logrus.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	s := &Server{
		cfg:       cfg,
		log:       log,
		runner:    runner,
		metrics:   m,
		policy:    compressor.ReductionPolicy{MinPercent: cfg.HTTP.MinReduction},
		router:    mux.NewRouter(),
		wsClients: make(map[*websocket.Conn]bool),
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // API is meant for local tooling
			},
		},
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/compress", s.handleCompress).Methods("POST")
	api.HandleFunc("/compress-batch", s.handleCompressBatch).Methods("POST")
	api.HandleFunc("/batch", s.handleBatch).Methods("POST")
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/qualities", s.handleQualities).Methods("GET")
	api.HandleFunc("/engine", s.handleEngine).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 30 * time.Second,
		// uploads and engine runs are long; the engine timeout bounds the work
		WriteTimeout: s.cfg.Engine.Timeout + time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Infof("Starting web server on http://localhost%s", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.stop(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) stop(ctx context.Context) error {
	s.wsMutex.Lock()
	for conn := range s.wsClients {
		conn.Close()
		delete(s.wsClients, conn)
	}
	s.wsMutex.Unlock()

	s.log.Info("Shutting down web server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, APIResponse{Success: true, Message: "ok"})
}

func (s *Server) handleQualities(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"default":   s.cfg.Quality(),
			"qualities": engine.Qualities(),
		},
	})
}

func (s *Server) handleEngine(w http.ResponseWriter, r *http.Request) {
	h := s.runner.Handle()
	ctx, cancel := context.WithTimeout(r.Context(), engine.ProbeTimeout)
	defer cancel()

	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"command":   h.Command,
			"resolved":  h.Resolved,
			"version":   h.Version,
			"available": engine.Check(ctx, h),
		},
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.wsMutex.Lock()
	s.wsClients[conn] = true
	s.wsMutex.Unlock()

	s.log.Debug("WebSocket client connected")

	defer func() {
		s.wsMutex.Lock()
		delete(s.wsClients, conn)
		s.wsMutex.Unlock()
		s.log.Debug("WebSocket client disconnected")
	}()

	// Keep connection alive
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// broadcastWSMessage writes under the exclusive lock: a websocket connection
// supports one concurrent writer.
func (s *Server) broadcastWSMessage(messageType string, data interface{}) {
	msgBytes, err := json.Marshal(WSMessage{Type: messageType, Data: data})
	if err != nil {
		s.log.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	s.wsMutex.Lock()
	defer s.wsMutex.Unlock()

	for conn := range s.wsClients {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
			s.log.Errorf("Failed to write WebSocket message: %v", err)
			delete(s.wsClients, conn)
			conn.Close()
		}
	}
}

// workspace creates a private directory under the configured temp dir.
func (s *Server) workspace(id string) (string, error) {
	base := s.cfg.HTTP.TempDir
	if base == "" {
		base = filepath.Join(os.TempDir(), "pdf_compressor")
	}
	dir := filepath.Join(base, id)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	return dir, nil
}

func (s *Server) removeWorkspace(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		s.log.Warnf("Failed to remove workspace %s: %v", dir, err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	s.writeJSONStatus(w, http.StatusOK, data)
}

func (s *Server) writeJSONStatus(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, statusCode int) {
	s.writeKindError(w, message, "", statusCode)
}

func (s *Server) writeKindError(w http.ResponseWriter, message string, kind compressor.ErrorKind, statusCode int) {
	s.writeJSONStatus(w, statusCode, APIResponse{
		Success: false,
		Error:   message,
		Kind:    string(kind),
	})
}

// statusFor maps a failure kind onto an HTTP status.
func statusFor(kind compressor.ErrorKind) int {
	switch kind {
	case compressor.KindNotAPdf, compressor.KindInputNotFound, compressor.KindOutputIsInput:
		return http.StatusBadRequest
	case compressor.KindEngineUnavailable:
		return http.StatusServiceUnavailable
	case compressor.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
