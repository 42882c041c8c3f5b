package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/Rrens/clipboard-ai/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultReadTimeout bounds how long a client may take to send its request
const DefaultReadTimeout = 30 * time.Second

// Handler executes decoded requests
type Handler interface {
	Send(ctx context.Context, content string) (string, error)
	Reset(ctx context.Context) (string, error)
	Status(ctx context.Context) *domain.Status
}

// Server accepts connections one at a time. A request is fully handled
// before the next connection is accepted.
type Server struct {
	handler     Handler
	readTimeout time.Duration

	listener   net.Listener
	socketPath string // set only when this server created the socket file
	closeOnce  sync.Once
}

// NewServer creates a server dispatching to handler
func NewServer(handler Handler, readTimeout time.Duration) *Server {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &Server{
		handler:     handler,
		readTimeout: readTimeout,
	}
}

// Listen binds the server. A socket passed through socket activation takes
// precedence over socketPath.
func (s *Server) Listen(socketPath string) error {
	listener, activated, err := activatedListener()
	if err != nil {
		return err
	}
	if activated {
		log.Info().Str("addr", listener.Addr().String()).Msg("Using activated socket")
		s.listener = listener
		return nil
	}

	listener, err = listenSocket(socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", socketPath, err)
	}

	s.listener = listener
	s.socketPath = socketPath
	log.Info().Str("socket", socketPath).Msg("Listening")
	return nil
}

// Addr returns the bound address
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve runs the accept loop until ctx is done or the server is closed
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("server is not listening")
	}

	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Error().Err(err).Msg("Accept error")
			continue
		}
		s.handleConnection(ctx, conn)
	}
}

// Close stops accepting and removes the socket file this server created
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.listener != nil {
			err = s.listener.Close()
		}
		if s.socketPath != "" {
			if rmErr := os.Remove(s.socketPath); rmErr != nil && !os.IsNotExist(rmErr) {
				log.Warn().Err(rmErr).Str("socket", s.socketPath).Msg("Failed to remove socket")
			}
		}
	})
	return err
}

// handleConnection processes a single request/response cycle
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	logger := log.With().Str("request_id", uuid.NewString()).Logger()
	start := time.Now()

	conn.SetReadDeadline(time.Now().Add(s.readTimeout))

	req, err := ReadRequest(conn)
	if err != nil {
		logger.Warn().Err(err).Msg("Invalid IPC request")
		s.respond(&logger, conn, ErrorResponse(err))
		return
	}

	logger.Info().Str("action", req.Action()).Msg("IPC request")

	resp := s.dispatch(logger.WithContext(ctx), &logger, req)
	s.respond(&logger, conn, resp)

	logger.Debug().
		Str("action", req.Action()).
		Str("status", resp.Status).
		Dur("duration", time.Since(start)).
		Msg("IPC request done")
}

func (s *Server) dispatch(ctx context.Context, logger *zerolog.Logger, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("action", req.Action()).Msg("Handler panicked")
			resp = ErrorResponse(fmt.Errorf("internal error: %v", r))
		}
	}()

	switch r := req.(type) {
	case SendRequest:
		reply, err := s.handler.Send(ctx, r.Content)
		if err != nil {
			return ErrorResponse(err)
		}
		return MessageResponse(reply)
	case NewRequest:
		msg, err := s.handler.Reset(ctx)
		if err != nil {
			return ErrorResponse(err)
		}
		return MessageResponse(msg)
	case StatusRequest:
		return DataResponse(s.handler.Status(ctx))
	case PingRequest:
		return MessageResponse(PongMessage)
	default:
		return ErrorResponse(&ProtocolError{Msg: "Unknown action"})
	}
}

func (s *Server) respond(logger *zerolog.Logger, conn net.Conn, resp Response) {
	conn.SetWriteDeadline(time.Now().Add(s.readTimeout))
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		logger.Warn().Err(err).Msg("Failed to write IPC response")
	}
}
