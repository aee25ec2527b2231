// Package httpserver runs a background http.Server with a bounded shutdown.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultShutdownTimeout   = 3 * time.Second
)

type Server struct {
	server          *http.Server
	addr            string
	errCh           chan error
	shutdownTimeout time.Duration
}

type Options struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// New binds opt.Addr and starts serving handler in the background.
func New(handler http.Handler, opt Options) (*Server, error) {
	ln, err := net.Listen("tcp", opt.Addr)
	if err != nil {
		return nil, err
	}

	shutdownTimeout := opt.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	srv := &Server{
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: defaultReadHeaderTimeout,
		},
		addr:            ln.Addr().String(),
		errCh:           make(chan error, 1),
		shutdownTimeout: shutdownTimeout,
	}

	go srv.serve(ln)

	return srv, nil
}

func (s *Server) serve(ln net.Listener) {
	err := s.server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}

	s.errCh <- err
	close(s.errCh)
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	return s.addr
}

func (s *Server) Notify() <-chan error {
	return s.errCh
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(ctx)
}
