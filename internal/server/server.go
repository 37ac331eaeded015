package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/vibesql/sqlzoo/internal/query"
)

const (
	DefaultHost       = "127.0.0.1"
	DefaultPort       = 5173
	MaxConnections    = 2
	ReadTimeout       = 10 * time.Second
	WriteTimeout      = 10 * time.Second
	ShutdownTimeout   = 30 * time.Second
	IdleTimeout       = 30 * time.Second
	ReadHeaderTimeout = 5 * time.Second
)

type Options struct {
	Host           string
	Port           int
	MaxConnections int
}

type Server struct {
	opts       Options
	echo       *echo.Echo
	httpServer *http.Server
	listener   net.Listener
	ready      atomic.Bool
}

// NewServer serves the API over executor. Zero fields in opts take the
// package defaults; Port -1 picks a free port.
func NewServer(executor query.QueryExecutor, opts Options) *Server {
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.MaxConnections <= 0 {
		opts.MaxConnections = MaxConnections
	}

	return &Server{
		opts: opts,
		echo: NewRouter(NewHandler(executor)),
	}
}

func (s *Server) Start() error {
	port := s.opts.Port
	if port < 0 {
		port = 0
	}
	addr := net.JoinHostPort(s.opts.Host, fmt.Sprint(port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", addr, err)
	}
	s.listener = listener

	limitListener := &limitedListener{
		Listener:  listener,
		semaphore: make(chan struct{}, s.opts.MaxConnections),
	}

	s.httpServer = &http.Server{
		Handler:           s.echo,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}

	s.ready.Store(true)
	log.WithFields(log.Fields{
		"addr":            listener.Addr().String(),
		"max-connections": s.opts.MaxConnections,
	}).Info("HTTP server listening")

	go func() {
		if err := s.httpServer.Serve(limitListener); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("HTTP server error")
		}
	}()

	return nil
}

func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	log.Info("shutting down HTTP server")
	s.ready.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Error("HTTP server shutdown error")
		return err
	}

	log.Info("HTTP server stopped")
	return nil
}

func (s *Server) IsReady() bool {
	return s.ready.Load()
}

func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return net.JoinHostPort(s.opts.Host, fmt.Sprint(s.opts.Port))
}

// WaitForShutdown blocks until SIGINT or SIGTERM, or until ctx is done,
// then stops the server.
func (s *Server) WaitForShutdown(ctx context.Context) error {
	if !s.IsReady() {
		log.Warn("WaitForShutdown called but server not started")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("received signal")
	case <-ctx.Done():
	}

	return s.Stop()
}

// limitedListener blocks Accept while MaxConnections connections are open.
type limitedListener struct {
	net.Listener
	semaphore chan struct{}
}

func (l *limitedListener) Accept() (net.Conn, error) {
	l.semaphore <- struct{}{}

	conn, err := l.Listener.Accept()
	if err != nil {
		<-l.semaphore
		return nil, err
	}

	return &limitedConn{
		Conn:      conn,
		semaphore: l.semaphore,
	}, nil
}

type limitedConn struct {
	net.Conn
	semaphore chan struct{}
	once      sync.Once
}

// Close releases the connection's slot once; later calls are no-ops.
func (c *limitedConn) Close() error {
	var err error
	c.once.Do(func() {
		err = c.Conn.Close()
		<-c.semaphore
	})
	return err
}
