package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/mcoot/tictacnet/internal/dependencies/clock"
	"github.com/mcoot/tictacnet/internal/protocol"
	"github.com/mcoot/tictacnet/internal/services/names"
	"github.com/mcoot/tictacnet/internal/services/registry"
)

// Config holds configuration for the game server
type Config struct {
	Host            string
	Port            int
	MaxRequestSize  int
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible defaults for server configuration
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            5000,
		MaxRequestSize:  protocol.MaxRequestSize,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server accepts TCP connections and runs one Handler goroutine per connection
type Server struct {
	config   Config
	registry registry.RegistryInterface
	names    names.AllocatorInterface
	clock    clock.Clock
	logger   *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closing  bool
	wg       sync.WaitGroup
}

// New creates a new game server
func New(
	config Config,
	registry registry.RegistryInterface,
	names names.AllocatorInterface,
	clock clock.Clock,
	logger *slog.Logger,
) *Server {
	if config.MaxRequestSize <= 0 {
		config.MaxRequestSize = protocol.MaxRequestSize
	}
	return &Server{
		config:   config,
		registry: registry,
		names:    names,
		clock:    clock,
		logger:   logger,
		conns:    make(map[net.Conn]struct{}),
	}
}

// Listen binds the TCP listener without accepting connections yet
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("game server listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Start binds the listener and serves until ctx is cancelled or Shutdown is called
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve runs the accept loop on a listener bound by Listen
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("serve: listener not bound")
	}

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosing() || ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.ServeConn(ctx, conn)
	}
}

// ServeConn runs a handler on an already established connection until it closes
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) {
	if !s.track(conn) {
		_ = conn.Close()
		return
	}
	defer s.untrack(conn)

	logger := s.logger.With(slog.String("remote_addr", conn.RemoteAddr().String()))
	NewHandler(conn, s.registry, s.names, s.clock, logger, s.config.MaxRequestSize).Run(ctx)
}

// Shutdown stops accepting, closes every live connection and waits for handlers to clean up
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down game server")

	s.mu.Lock()
	s.closing = true
	if s.listener != nil {
		_ = s.listener.Close()
	}
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("game server stopped")
		return nil
	case <-shutdownCtx.Done():
		return fmt.Errorf("shutdown error: %w", shutdownCtx.Err())
	}
}

// Addr returns the bound listen address, or the configured one before Listen
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// Connections returns the number of live connections
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}
