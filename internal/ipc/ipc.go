package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
)

const (
	CmdTrigger = "trigger"
	CmdSay     = "say"
)

type ControlMessage struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text,omitempty"`
}

// DefaultSocketPath lives in the user's runtime dir when there is one.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "voxd.sock")
	}
	return filepath.Join(os.TempDir(), "voxd.sock")
}

type Server struct {
	ln   net.Listener
	msgs chan ControlMessage
	log  *slog.Logger
}

// Listen removes a stale socket, binds path and starts accepting. Messages
// are delivered on Messages until ctx is done.
func Listen(ctx context.Context, path string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	s := &Server{
		ln:   ln,
		msgs: make(chan ControlMessage),
		log:  logger,
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	go s.accept(ctx)

	logger.Info("Control socket ready", "path", path)
	return s, nil
}

func (s *Server) Messages() <-chan ControlMessage { return s.msgs }

func (s *Server) accept(ctx context.Context) {
	defer close(s.msgs)

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			s.log.Debug("Accept failed", "err", err)
			continue
		}
		s.handleConn(ctx, conn)
	}
}

// handleConn runs on the accept goroutine so messages reach the consumer
// in arrival order.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		s.log.Warn("Bad control message", "err", err)
		return
	}

	select {
	case s.msgs <- msg:
	case <-ctx.Done():
	}
}

func Send(path string, msg ControlMessage) error {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return err
	}
	defer conn.Close()

	return json.NewEncoder(conn).Encode(msg)
}
