package singleinstance

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const requestDeadline = 3 * time.Second

// Server claims the loopback port, which makes the owning process the one
// resident instance, and serves commands from later launches and the CLI.
type Server struct {
	port    int
	handler Handler
	logger  *zap.SugaredLogger

	mu  sync.Mutex
	lis net.Listener
	wg  sync.WaitGroup
}

// NewServer prepares a server on port. Port 0 picks a free port.
func NewServer(port int, handler Handler, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{port: port, handler: handler, logger: logger}
}

// Start binds the port. A port that is already taken means another
// instance owns it and yields ErrAlreadyRunning.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		return nil
	}

	addr := address(s.port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		s.logger.Infow("instance port busy", "addr", addr, "error", err)
		return fmt.Errorf("%w: %v", ErrAlreadyRunning, err)
	}
	s.lis = lis
	s.port = lis.Addr().(*net.TCPAddr).Port
	s.logger.Infow("resident listening", "addr", lis.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop(lis)
	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()
	return nil
}

// Port returns the bound port, or the requested one before Start.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *Server) acceptLoop(lis net.Listener) {
	defer s.wg.Done()
	for {
		c, err := lis.Accept()
		if err != nil {
			return
		}
		s.serve(c)
	}
}

func (s *Server) serve(c net.Conn) {
	defer c.Close()
	_ = c.SetDeadline(time.Now().Add(requestDeadline))

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		return
	}
	cmd := Command(strings.TrimSpace(line))
	remote := c.RemoteAddr().String()

	var resp string
	switch {
	case cmd == CmdPing:
		resp = pongResponse
	case !cmd.valid():
		s.logger.Warnw("unknown instance command", "remote", remote, "command", string(cmd))
		resp = errResponse + "unknown command " + string(cmd)
	default:
		s.logger.Infow("instance command", "remote", remote, "command", string(cmd))
		resp = okResponse
		if s.handler != nil {
			if err := s.handler(cmd); err != nil {
				resp = errResponse + err.Error()
			}
		}
	}
	_, _ = c.Write([]byte(resp))
}

// Close releases the port and waits for the accept loop to exit.
func (s *Server) Close() error {
	s.mu.Lock()
	lis := s.lis
	s.lis = nil
	s.mu.Unlock()
	if lis == nil {
		return nil
	}
	err := lis.Close()
	s.wg.Wait()
	return err
}
