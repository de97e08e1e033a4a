package minidbwire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/tuannm99/minidb"
)

type ServerConfig struct {
	Addr  string
	Debug bool
	Auth  AuthConfig
}

// Server serves one shared Session to every connection. Statements from
// different connections never interleave: the Session serialises them.
type Server struct {
	cfg     ServerConfig
	session *minidb.Session
	auth    *Authenticator
	now     func() time.Time

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

func NewServer(sess *minidb.Session, sc ServerConfig) (*Server, error) {
	s := &Server{
		cfg:     sc,
		session: sess,
		now:     time.Now,
		conns:   make(map[net.Conn]struct{}),
	}
	if sc.Auth.Enabled {
		a, err := NewAuthenticator(sc.Auth)
		if err != nil {
			return nil, err
		}
		s.auth = a
	}
	return s, nil
}

// Run listens on sc.Addr until SIGINT or SIGTERM, then closes the session.
func Run(sc ServerConfig, sess *minidb.Session) error {
	srv, err := NewServer(sess, sc)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", sc.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	log.Printf("minidb tcp server listening on %s (data_file=%s auth=%t)", ln.Addr(), sess.DataFile(), sc.Auth.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := srv.Serve(ctx, ln)
	if err := sess.Close(); err != nil {
		return errors.Join(serveErr, fmt.Errorf("close session: %w", err))
	}
	return serveErr
}

// Serve accepts connections on ln until ctx is done. It closes ln and every
// open connection before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
		s.closeConns()
	}()

	defer s.wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("accept: %v", err)
			continue
		}

		if !s.track(conn) {
			_ = conn.Close()
			return nil
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.conns = nil
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	// No global deadline; clients set their own per request.
	_ = conn.SetDeadline(time.Time{})

	sid := uuid.NewString()
	logger := slog.With("session", sid, "remote", conn.RemoteAddr().String())
	logger.Debug("minidbwire: connection opened")
	defer logger.Debug("minidbwire: connection closed")

	var auth connAuth

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var req ExecuteRequest
		if err := ReadFrame(conn, &req); err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Debug("minidbwire: dropping connection", "err", err)
			}
			return
		}

		resp := s.handle(logger, &auth, req)
		resp.ID = req.ID
		resp.Session = sid
		if err := WriteFrame(conn, resp); err != nil {
			logger.Debug("minidbwire: write failed", "err", err)
			return
		}
	}
}

func (s *Server) handle(logger *slog.Logger, auth *connAuth, req ExecuteRequest) ExecuteResponse {
	if s.auth != nil {
		if req.Token != "" {
			id, exp, err := s.auth.Validate(req.Token)
			if err != nil {
				logger.Warn("minidbwire: authentication failed", "err", err)
				*auth = connAuth{}
				return ExecuteResponse{Error: err.Error()}
			}
			*auth = connAuth{identity: id, expiresAt: exp, ok: true}
			logger.Info("minidbwire: authenticated", "identity", id.String())
		}
		if err := auth.check(s.now()); err != nil {
			return ExecuteResponse{Error: err.Error()}
		}
	}

	if req.SQL == "" {
		// authentication only
		return ExecuteResponse{}
	}

	if s.cfg.Debug {
		logger.Info("minidbwire: exec", "id", req.ID, "sql", req.SQL)
	}
	return ExecuteResponse{Result: s.session.Exec(req.SQL)}
}
