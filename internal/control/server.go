package control

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"
)

// ErrSocketBusy means another live session already owns the socket.
var ErrSocketBusy = errors.New("control: socket already in use by a running session")

// Server owns the control socket for the lifetime of one session. Decoded
// commands are serialized onto Requests; the session loop consumes them
// and replies, so command handling never races with audio processing.
type Server struct {
	path     string
	ln       net.Listener
	requests chan Request
	done     chan struct{}
	log      *slog.Logger
}

// NewServer binds the control socket. A stale socket left by a crashed
// session is removed; a socket that still answers means a session is
// already running and binding fails with ErrSocketBusy.
func NewServer(path string, log *slog.Logger) (*Server, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		conn, err := net.DialTimeout("unix", path, time.Second)
		if err == nil {
			conn.Close()
			return nil, ErrSocketBusy
		}
		log.Debug("removing stale control socket", slog.String("path", path))
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("remove stale socket: %w", err)
		}
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("bind control socket: %w", err)
	}

	s := &Server{
		path:     path,
		ln:       ln,
		requests: make(chan Request, 8),
		done:     make(chan struct{}),
		log:      log,
	}
	go s.accept()
	return s, nil
}

// Requests is the stream of decoded commands awaiting replies.
func (s *Server) Requests() <-chan Request {
	return s.requests
}

// Path returns the bound socket path.
func (s *Server) Path() string {
	return s.path
}

func (s *Server) accept() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.done:
			default:
				s.log.Warn("control accept failed", slog.String("error", err.Error()))
			}
			return
		}
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var cmd Command
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			writeResponse(conn, Response{Error: "bad command"})
			continue
		}

		req := Request{Cmd: cmd.Cmd, Reply: make(chan Response, 1)}
		select {
		case s.requests <- req:
		case <-s.done:
			writeResponse(conn, Response{Error: "session shutting down"})
			return
		}

		select {
		case resp := <-req.Reply:
			if err := writeResponse(conn, resp); err != nil {
				return
			}
		case <-time.After(5 * time.Second):
			// The session loop polls at the idle interval, so a reply
			// this late means the loop is wedged.
			writeResponse(conn, Response{Error: "session not responding"})
			return
		}
	}
}

func writeResponse(conn net.Conn, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = conn.Write(append(data, '\n'))
	return err
}

// Close stops accepting and removes the socket.
func (s *Server) Close() {
	close(s.done)
	_ = s.ln.Close()
	_ = os.Remove(s.path)
}
