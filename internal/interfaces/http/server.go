package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/turtacn/MolFrag/internal/config"
	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/logging"
)

// Housekeeper is periodic maintenance run while the server is up, such as
// evicting idle rate limiter clients.
type Housekeeper interface {
	Cleanup() int
}

// Server owns the http.Server lifecycle.
type Server struct {
	srv      *http.Server
	cfg      config.ServerConfig
	logger   logging.Logger
	keepers  []Housekeeper
	interval time.Duration
	stop     chan struct{}
}

// NewServer creates a Server serving handler on cfg.Addr().
func NewServer(cfg config.ServerConfig, handler http.Handler, logger logging.Logger, keepers ...Housekeeper) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Server{
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       60 * time.Second,
		},
		cfg:      cfg,
		logger:   logger.Named("http"),
		keepers:  keepers,
		interval: time.Minute,
		stop:     make(chan struct{}),
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.srv.Addr }

// Handler returns the served handler.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start listens on the configured address and blocks until the server is
// shut down.  It returns nil after a graceful Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	go s.housekeeping()

	s.logger.Info("HTTP server listening", logging.String("addr", ln.Addr().String()))
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) housekeeping() {
	if len(s.keepers) == 0 {
		<-s.stop
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			for _, k := range s.keepers {
				if n := k.Cleanup(); n > 0 {
					s.logger.Debug("housekeeping evicted entries", logging.Int("count", n))
				}
			}
		}
	}
}

// Shutdown drains in-flight requests, waiting at most cfg.ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}

	s.logger.Info("shutting down HTTP server")
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

//Personal.AI order the ending
