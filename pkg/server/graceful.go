// Package server wraps net/http with graceful shutdown on OS signals.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/communeos/bridgenet/pkg/logging"
)

// GracefulServer wraps an HTTP server with graceful shutdown capabilities.
type GracefulServer struct {
	server       *http.Server
	log          logging.Logger
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	mu           sync.Mutex
	onShutdown   []func()
}

// NewGracefulServer creates a new graceful HTTP server.
func NewGracefulServer(addr string, handler http.Handler, log logging.Logger) *GracefulServer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &GracefulServer{
		server: &http.Server{
			Addr:           addr,
			Handler:        handler,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    120 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		log:        log.With(logging.Component("server")),
		shutdownCh: make(chan struct{}),
	}
}

// OnShutdown registers a function to run before the listener stops
// accepting connections, used to stop the scheduler and event subscriber.
func (gs *GracefulServer) OnShutdown(fn func()) {
	gs.mu.Lock()
	gs.onShutdown = append(gs.onShutdown, fn)
	gs.mu.Unlock()
}

// Start starts the server and blocks until shutdown.
func (gs *GracefulServer) Start() error {
	go gs.handleSignals()

	gs.log.Info("http server listening", logging.String("addr", gs.server.Addr))
	if err := gs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown initiates a graceful shutdown.
func (gs *GracefulServer) Shutdown(timeout time.Duration) error {
	var err error
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		gs.mu.Lock()
		hooks := gs.onShutdown
		gs.mu.Unlock()
		for _, fn := range hooks {
			fn()
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		gs.log.Info("graceful shutdown started", logging.Duration("timeout", timeout))
		if shutdownErr := gs.server.Shutdown(ctx); shutdownErr != nil {
			err = shutdownErr
			gs.log.Error("shutdown error", logging.Error(shutdownErr))
		} else {
			gs.log.Info("server shutdown complete")
		}
	})
	return err
}

// ShutdownChannel returns a channel that closes when shutdown begins.
func (gs *GracefulServer) ShutdownChannel() <-chan struct{} {
	return gs.shutdownCh
}

// handleSignals listens for OS signals and triggers graceful shutdown.
func (gs *GracefulServer) handleSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	gs.log.Info("signal received, shutting down", logging.String("signal", sig.String()))
	if err := gs.Shutdown(30 * time.Second); err != nil {
		os.Exit(1)
	}
}
