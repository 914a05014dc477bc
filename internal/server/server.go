// Package server implements the TCP accept loop and per-connection I/O of
// spec.md §5 and §4.4's wire-level control flow: one goroutine pair (read,
// write) per accepted socket, framed by internal/protocol and dispatched
// through internal/dispatch. Grounded on ws/server.go's Start/handleWebSocket/
// readPump/writePump/Shutdown shape, generalized from its WebSocket frames to
// raw TCP byte streams since this core speaks the protocol of spec.md §4.1
// directly over net.Conn rather than over an upgraded HTTP connection.
package server

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/adred-codev/kvdb/internal/dispatch"
	"github.com/adred-codev/kvdb/internal/kvvalue"
	"github.com/adred-codev/kvdb/internal/logging"
	"github.com/adred-codev/kvdb/internal/metrics"
	"github.com/adred-codev/kvdb/internal/protocol"
	"github.com/adred-codev/kvdb/internal/pubsub"
	"github.com/adred-codev/kvdb/internal/ratelimit"
	"github.com/adred-codev/kvdb/internal/rusage"
	"github.com/adred-codev/kvdb/internal/session"
	"github.com/adred-codev/kvdb/internal/store"
)

// Config holds the server's own listen/lifecycle knobs, separate from
// internal/config.Config so the server package stays free of an env-parsing
// dependency (matching the teacher's separation of ServerConfig from the
// flag/env-sourced process Config in main.go).
type Config struct {
	Addr           string
	MaxConnections int
	ShutdownGrace  time.Duration
}

// Server owns the listener and every live connection's goroutines, matching
// ws/server.go's Server struct, minus the WebSocket/Kafka-specific fields
// that have no analogue in a raw TCP key-value protocol.
type Server struct {
	cfg     Config
	logger  zerolog.Logger
	dbs     *store.Databases
	hub     *pubsub.Hub
	disp    *dispatch.Dispatcher
	limiter *ratelimit.Limiter
	sampler *rusage.Sampler
	metrics *metrics.Registry

	listener net.Listener
	connSem  chan struct{}

	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	shuttingDown int32

	connCount int64
}

func New(cfg Config, dbs *store.Databases, hub *pubsub.Hub, disp *dispatch.Dispatcher,
	limiter *ratelimit.Limiter, sampler *rusage.Sampler, reg *metrics.Registry, logger zerolog.Logger) *Server {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 10000
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:     cfg,
		dbs:     dbs,
		hub:     hub,
		disp:    disp,
		limiter: limiter,
		sampler: sampler,
		metrics: reg,
		logger:  logger.With().Str("component", "server").Logger(),
		connSem: make(chan struct{}, cfg.MaxConnections),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Context returns the server's lifetime context, cancelled once Shutdown
// begins tearing connections down. Long-lived background loops that should
// die with the server (the expiration purger, the resource sampler) are
// started against this context by the caller in cmd/kvdbd.
func (s *Server) Context() context.Context { return s.ctx }

// Start binds the listener and begins accepting connections in the
// background, matching ws/server.go's Start: bind, log, spawn accept
// goroutine, return immediately so the caller can wire signal handling.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info().Str("addr", s.cfg.Addr).Msg("server listening")

	if s.metrics != nil {
		s.metrics.ConnectionsMax.Set(float64(s.cfg.MaxConnections))
	}

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	defer logging.RecoverPanic(s.logger, "acceptLoop", nil)

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if atomic.LoadInt32(&s.shuttingDown) == 1 {
				return
			}
			select {
			case <-s.ctx.Done():
				return
			default:
			}
			s.logger.Error().Err(err).Msg("accept error")
			continue
		}

		select {
		case s.connSem <- struct{}{}:
		default:
			s.logger.Warn().Str("remote", conn.RemoteAddr().String()).Msg("max connections reached, rejecting")
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// handleConn drives one accepted socket end to end: create the Connection
// state machine, spin up its write pump, then block this goroutine in the
// read pump until the socket closes or the server shuts down. Cleanup
// (semaphore release, pub/sub unsubscribe, rate limiter bucket eviction) is
// unconditional via defer, matching readPump's disconnect handling in the
// teacher.
func (s *Server) handleConn(netConn net.Conn) {
	defer s.wg.Done()
	defer func() { <-s.connSem }()
	defer logging.RecoverPanic(s.logger, "handleConn", map[string]any{"remote": netConn.RemoteAddr().String()})

	conn := session.New(s.ctx)
	atomic.AddInt64(&s.connCount, 1)
	if s.metrics != nil {
		s.metrics.ConnectionsTotal.Inc()
		s.metrics.ConnectionsActive.Inc()
	}

	logger := s.logger.With().Str("conn_id", conn.ID).Str("remote", netConn.RemoteAddr().String()).Logger()
	logger.Debug().Msg("connection accepted")

	defer func() {
		atomic.AddInt64(&s.connCount, -1)
		if s.metrics != nil {
			s.metrics.ConnectionsActive.Dec()
		}
		s.hub.UnsubscribeAll(conn.ID)
		s.limiter.Remove(conn.ID)
		conn.Close()
		netConn.Close()
		logger.Debug().Msg("connection closed")
	}()

	s.wg.Add(1)
	go s.writePump(netConn, conn, logger)

	s.readPump(netConn, conn, logger)
}

// writePump drains conn.Send and serializes each reply onto the socket,
// matching writePump's dedicated-goroutine-per-connection shape in the
// teacher so a slow socket write never stalls the read side. Commands
// themselves, including blocking pops, run inside readPump, so a slow
// command does hold up reading that connection's next request.
func (s *Server) writePump(netConn net.Conn, conn *session.Connection, logger zerolog.Logger) {
	defer s.wg.Done()
	defer logging.RecoverPanic(logger, "writePump", nil)

	enc := protocol.NewEncoder()
	for {
		select {
		case <-conn.Context().Done():
			return
		case v, ok := <-conn.Send:
			if !ok {
				return
			}
			netConn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := netConn.Write(enc.Encode(v)); err != nil {
				logger.Debug().Err(err).Msg("write error, closing connection")
				conn.Close()
				return
			}
		}
	}
}

const (
	writeTimeout = 5 * time.Second
	readChunk    = 4096
)

// readPump reads bytes off the socket, incrementally decodes frames, and
// dispatches each to the command table, pushing the reply onto the
// connection's outbound channel for writePump to flush. Wire decoding
// errors terminate the connection per spec.md §7.
func (s *Server) readPump(netConn net.Conn, conn *session.Connection, logger zerolog.Logger) {
	dec := protocol.NewDecoder()
	buf := make([]byte, 0, readChunk)
	chunk := make([]byte, readChunk)

	for {
		select {
		case <-conn.Context().Done():
			return
		default:
		}

		n, err := netConn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)

			for {
				v, consumed, derr := dec.Decode(buf)
				if derr == protocol.ErrPartial {
					break
				}
				if derr != nil {
					logger.Debug().Err(derr).Msg("protocol decode error, closing connection")
					return
				}
				buf = buf[consumed:]

				argv := v.Array
				if len(argv) == 0 {
					continue
				}
				if !s.limiter.Allow(conn.ID) {
					s.replyOrDrop(conn, kvvalue.Err(kvvalue.ErrGeneric, "max command rate exceeded"))
					continue
				}

				db := s.dbs.Get(conn.DBIndex())
				ctx := &dispatch.Context{
					DB:      db,
					DBs:     s.dbs,
					Hub:     s.hub,
					Conn:    conn,
					Disp:    s.disp,
					Sampler: s.sampler,
					Logger:  logger,
				}
				result := s.disp.Execute(ctx, argv)
				s.replyOrDrop(conn, result)
			}
		}
		if err != nil {
			return
		}
	}
}

// replyOrDrop pushes a reply to the connection's send channel without
// blocking the read loop forever if the channel is somehow full and the
// connection is already tearing down.
func (s *Server) replyOrDrop(conn *session.Connection, v kvvalue.Value) {
	select {
	case conn.Send <- v:
	case <-conn.Context().Done():
	}
}

// Shutdown stops accepting new connections, closes the listener, and waits
// up to cfg.ShutdownGrace for in-flight connections to drain before
// cancelling every connection's context, matching the phased Shutdown in
// ws/server.go (stop accept -> drain -> force close -> wait).
func (s *Server) Shutdown() error {
	atomic.StoreInt32(&s.shuttingDown, 1)
	s.logger.Info().Msg("shutting down: closing listener")
	if s.listener != nil {
		s.listener.Close()
	}

	deadline := time.NewTimer(s.cfg.ShutdownGrace)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer deadline.Stop()
	defer ticker.Stop()

drain:
	for {
		select {
		case <-deadline.C:
			s.logger.Warn().Int64("remaining", atomic.LoadInt64(&s.connCount)).
				Msg("shutdown grace period expired, forcing remaining connections closed")
			break drain
		case <-ticker.C:
			if atomic.LoadInt64(&s.connCount) == 0 {
				break drain
			}
		}
	}

	s.cancel()
	s.wg.Wait()
	s.logger.Info().Msg("shutdown complete")
	return nil
}
