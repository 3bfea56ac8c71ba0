package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultShutdownTimeout   = 5 * time.Second
	defaultReadHeaderTimeout = 10 * time.Second
)

// Webserver serves a handler until its context is closed. TLS is used if a certificate and a key file are set.
type Webserver struct {
	Logger          *zap.SugaredLogger
	Port            int
	SSLCrtFile      string
	SSLKeyFile      string
	Handler         http.Handler
	ShutdownTimeout time.Duration
	server          *http.Server
}

func (s *Webserver) logger() *zap.SugaredLogger {
	if s.Logger == nil {
		s.Logger = zap.NewNop().Sugar()
	}
	return s.Logger
}

func (s *Webserver) TLS() bool {
	return s.SSLCrtFile != "" && s.SSLKeyFile != ""
}

// Start blocks until the context is closed or the listener fails.
func (s *Webserver) Start(ctx context.Context) error {
	s.logger().Infof("Webserver starting and listening on port %d (TLS: %t)", s.Port, s.TLS())
	failed := s.startServer()
	select {
	case err := <-failed:
		return err
	case <-ctx.Done():
		s.logger().Info("Webserver stopping (context got closed)")
		return s.stopServer()
	}
}

func (s *Webserver) startServer() <-chan error {
	failed := make(chan error, 1)
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}
	go func() {
		var err error
		if s.TLS() {
			err = s.server.ListenAndServeTLS(s.SSLCrtFile, s.SSLKeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger().Errorf("Webserver startup failed: %s", err)
			failed <- err
		}
	}()
	return failed
}

func (s *Webserver) stopServer() error {
	timeout := s.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	if err == nil {
		s.logger().Info("Webserver gracefully stopped")
	} else {
		s.logger().Errorf("Webserver shutdown failed: %s", err)
	}
	return err
}
