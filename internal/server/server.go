// Package server implements the protocol engine: the listener loop, the
// per-connection command session, and the dispatch of LIST, UPLOAD,
// DOWNLOAD, RENAME, DELETE, and QUIT against one shared storage root.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"

	"golang.org/x/net/netutil"

	"github.com/TheMichaelB/minicloud/internal/audit"
	"github.com/TheMichaelB/minicloud/internal/config"
	"github.com/TheMichaelB/minicloud/internal/events"
	"github.com/TheMichaelB/minicloud/internal/lockmgr"
	"github.com/TheMichaelB/minicloud/internal/storage"
)

// Server shares one storage root across any number of connections. Sessions
// share nothing else: no registry, no cross-connection signaling. Conflicting
// operations on one file serialize through the lock manager; everything else
// interleaves freely.
type Server struct {
	store  *storage.Store
	locks  *lockmgr.Manager
	audit  audit.Recorder
	logger *events.Logger

	chunkSize int
	maxLine   int

	wg sync.WaitGroup
}

// New creates a server over store. recorder may be audit.Nop().
func New(cfg *config.StorageConfig, store *storage.Store, recorder audit.Recorder, logger *events.Logger) *Server {
	return &Server{
		store:     store,
		locks:     lockmgr.New(),
		audit:     recorder,
		logger:    logger.WithField("component", "server"),
		chunkSize: cfg.ChunkSize,
		maxLine:   cfg.MaxLine,
	}
}

// Listen binds the configured address. With a connection cap the listener is
// wrapped so Accept blocks once the cap is reached; at zero the server
// degrades by spawning one goroutine per accepted peer, without bound.
func Listen(cfg *config.ServerConfig) (net.Listener, error) {
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Listen, err)
	}
	if cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConns)
	}
	return ln, nil
}

// Serve accepts connections until ctx is cancelled, handling each in its own
// goroutine. Cancellation closes the listener and returns; in-flight
// sessions finish independently — use Wait to drain them.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.WithField("addr", ln.Addr().String()).Info("Server listening")

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("Server shutting down")
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Wait blocks until every in-flight session has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	sess := newSession(s, conn)
	sess.run()
}
