// Package server accepts TCP connections and answers each with a directory
// listing, a file, or a uniform not-found response.
//
// A connection carries exactly one request. The response has no
// Content-Length; the server closes the connection to end the body.
package server

import (
	"context"
	"errors"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/f4ah6o/dirserve-go/internal/config"
	srverrors "github.com/f4ah6o/dirserve-go/internal/errors"
	"github.com/f4ah6o/dirserve-go/internal/sandbox"
)

const maxAcceptDelay = time.Second

// Server runs the accept loop and a bounded pool of connection handlers.
type Server struct {
	cfg     config.Config
	handler *Handler
	log     zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	stopping bool
}

// New creates a Server for cfg. The resolver's root is shared read-only by
// every handler.
func New(cfg config.Config, resolver *sandbox.Resolver, log zerolog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		handler: NewHandler(resolver, cfg.ReadBufferSize, cfg.MaxFileSize),
		log:     log,
	}
}

// ListenAndServe binds cfg.Listen and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Addr returns the bound address, or nil before Serve starts.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections on ln until ctx is canceled, then closes ln,
// expires the deadlines of in-flight connections so blocked reads and writes
// return, waits for their handlers and returns nil.
//
// At most cfg.Workers connections are handled at once. When every worker is
// busy no further connection is accepted until one finishes, so Workers = 1
// handles connections strictly one after another.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		ln.Close()
		s.expireConns()
	})
	defer stop()

	workers := s.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var g errgroup.Group

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("root", s.handler.resolver.Root()).
		Int("workers", workers).
		Msg("listening")

	var delay time.Duration
	for {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		conn, err := ln.Accept()
		if err != nil {
			sem.Release(1)
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay *= 2
			}
			if delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			s.log.Warn().Err(err).Dur("retry_in", delay).Msg("accept failed")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
			continue
		}
		delay = 0

		g.Go(func() error {
			defer sem.Release(1)
			s.serveConn(conn)
			return nil
		})
	}

	g.Wait()
	ln.Close()
	s.log.Info().Msg("server stopped")
	return nil
}

// serveConn owns conn until it returns. Nothing that happens here, including
// a panic, reaches the accept loop.
func (s *Server) serveConn(conn net.Conn) {
	start := time.Now()
	remote := conn.RemoteAddr().String()

	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Str("remote", remote).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("connection handler panicked")
		}
	}()

	if s.cfg.ReadTimeout > 0 {
		conn.SetReadDeadline(start.Add(s.cfg.ReadTimeout))
	}
	if s.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(start.Add(s.cfg.ReadTimeout + s.cfg.WriteTimeout))
	}
	// Tracked after the deadlines are set so shutdown's expiry is not overwritten.
	s.trackConn(conn)
	defer s.untrackConn(conn)

	res := s.handler.Handle(conn)
	s.logResult(remote, res, time.Since(start))
}

func (s *Server) trackConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		s.conns = make(map[net.Conn]struct{})
	}
	s.conns[conn] = struct{}{}
	if s.stopping {
		conn.SetDeadline(time.Now())
	}
}

func (s *Server) untrackConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

// expireConns unblocks every in-flight connection, including ones that are
// tracked after it runs.
func (s *Server) expireConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopping = true
	now := time.Now()
	for conn := range s.conns {
		conn.SetDeadline(now)
	}
}

func (s *Server) logResult(remote string, res Result, dur time.Duration) {
	var ev *zerolog.Event
	switch {
	case res.WriteErr != nil:
		ev = s.log.Debug().AnErr("write_error", res.WriteErr)
	case srverrors.KindOf(res.Err) == srverrors.KindRead:
		ev = s.log.Error()
	case res.ListErr != nil:
		ev = s.log.Warn().AnErr("list_error", res.ListErr)
	default:
		ev = s.log.Info()
	}

	ev.Str("remote", remote).
		Str("method", res.Method).
		Str("path", res.Path).
		Int("status", res.Status).
		Int64("bytes", res.Bytes).
		Dur("dur", dur)
	if res.ContentType != "" {
		ev.Str("type", res.ContentType)
	}
	if res.Err != nil {
		ev.Err(res.Err)
	}
	ev.Msg("request")
}
