package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pomoguard/internal/platform/logger"
)

const shutdownTimeout = 5 * time.Second

type Config struct {
	Addr      string
	RateLimit float64
	RateBurst int
	Gatherer  prometheus.Gatherer
}

// Server is the daemon's HTTP surface. Modules register their routes on API()
// or Router() before Run.
type Server struct {
	cfg    Config
	router *mux.Router
	api    *mux.Router
	log    logger.Logger

	mu   sync.Mutex
	addr string
}

func New(cfg Config, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	r := mux.NewRouter()
	r.Use(corsMiddleware)
	api := r.PathPrefix("/v1").Subrouter()
	if cfg.RateLimit > 0 {
		api.Use(NewLimiter(cfg.RateLimit, cfg.RateBurst).Middleware)
	}
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	return &Server{cfg: cfg, router: r, api: api, log: log.With(logger.Component("http"))}
}

func (s *Server) Name() string { return "http" }

func (s *Server) Router() *mux.Router { return s.router }

func (s *Server) API() *mux.Router { return s.api }

func (s *Server) Handler() http.Handler { return s.router }

// Addr is the bound address once Run is listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run serves until ctx is done. An empty address disables the server.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Addr == "" {
		s.log.Info("http disabled")
		return nil
	}
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen http: %w", err)
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info("http listening", logger.String("addr", s.addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
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

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteError(w http.ResponseWriter, status int, err error) {
	WriteJSON(w, status, map[string]string{"error": err.Error()})
}
