package nsca

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/metricq/nscago/cipher"
	"github.com/metricq/nscago/internal/randutil"
	"github.com/metricq/nscago/internal/wire"
)

// Server accepts NSCA client connections and decodes the reports they
// send into a channel. The zero value is not usable; construct one
// with NewServer.
type Server struct {
	cfg ServerConfig

	mu       sync.Mutex
	listener net.Listener
	reports  chan Report
	dropped  int64

	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewServer creates a Server for cfg. It performs no I/O; call Start
// to bind the listener.
func NewServer(cfg ServerConfig) *Server {
	return &Server{cfg: cfg.withDefaults()}
}

// Start binds the server's listener and begins accepting connections.
// Calling Start again before Stop is a no-op.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(int(s.cfg.Port)))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	capacity := s.cfg.QueueCapacity
	if capacity <= 0 {
		capacity = 4096
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.listener = ln
	s.reports = make(chan Report, capacity)
	s.cancel = cancel
	group, groupCtx := errgroup.WithContext(runCtx)
	s.group = group

	group.Go(func() error {
		return s.acceptLoop(groupCtx, ln)
	})

	return nil
}

// Reports returns the channel decoded reports are delivered on. It is
// valid to range over the channel across the server's lifetime; the
// channel is closed once Stop has drained all in-flight connections.
func (s *Server) Reports() <-chan Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reports
}

// Stop closes the listener and waits for in-flight connection
// handlers to drain naturally, then closes the reports channel.
func (s *Server) Stop() error {
	s.mu.Lock()
	ln := s.listener
	group := s.group
	cancel := s.cancel
	reports := s.reports
	s.listener = nil
	s.group = nil
	s.cancel = nil
	s.mu.Unlock()

	if ln == nil {
		return nil
	}

	closeErr := ln.Close()
	if cancel != nil {
		cancel()
	}

	var waitErr error
	if group != nil {
		waitErr = group.Wait()
	}
	if reports != nil {
		close(reports)
	}

	if closeErr != nil {
		return fmt.Errorf("close listener: %w", closeErr)
	}
	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		return waitErr
	}
	return nil
}

// DroppedReports returns the number of decoded reports discarded
// because the reports queue was full. This happens whenever the
// consumer of Reports falls behind by more than QueueCapacity reports,
// whether that capacity was set explicitly or left at its default.
func (s *Server) DroppedReports() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.cfg.Logger.Printf("accept failed: %v", err)
			return err
		}

		s.group.Go(func() error {
			s.handleConnection(ctx, conn)
			return nil
		})
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	timestamp := uint32(time.Now().Unix())
	iv := make([]byte, 128)
	if _, err := io.ReadFull(randutil.Reader, iv); err != nil {
		s.cfg.Logger.Printf("failed to generate IV for %s: %v", conn.RemoteAddr(), err)
		return
	}

	c, err := cipher.New(s.cfg.EncryptionMethod, []byte(s.cfg.Password), iv, randutil.Reader)
	if err != nil {
		s.cfg.Logger.Printf("failed to construct cipher for %s: %v", conn.RemoteAddr(), err)
		return
	}

	var initPacket wire.InitPacket
	copy(initPacket.IV[:], iv)
	initPacket.Timestamp = timestamp

	if _, err := conn.Write(initPacket.Pack()); err != nil {
		s.cfg.Logger.Printf("failed to send init packet to %s: %v", conn.RemoteAddr(), err)
		return
	}

	packetSize := wire.ReportPacketSize(wire.MessageWidthLong)
	buf := make([]byte, packetSize)

	for packetNum := 1; ; packetNum++ {
		if ctx.Err() != nil {
			return
		}

		n, err := io.ReadFull(conn, buf)
		if err != nil {
			if errors.Is(err, io.EOF) && n == 0 {
				return
			}
			if errors.Is(err, io.ErrUnexpectedEOF) || n > 0 {
				s.cfg.Logger.Printf("incomplete read for packet #%d from %s: %v", packetNum, conn.RemoteAddr(), err)
				return
			}
			return
		}

		decrypted, err := c.Decrypt(buf)
		if err != nil {
			s.cfg.Logger.Printf("failed to decrypt packet #%d from %s: %v", packetNum, conn.RemoteAddr(), err)
			return
		}

		report, err := wire.UnpackReport(decrypted, wire.MessageWidthLong)
		if err != nil {
			// A stream cipher cannot be resynchronized after a single
			// corrupt frame: drop the connection rather than attempt
			// to keep reading.
			s.cfg.Logger.Printf("failed to decode packet #%d from %s: %v", packetNum, conn.RemoteAddr(), err)
			return
		}

		s.enqueue(report)
	}
}

func (s *Server) enqueue(r Report) {
	select {
	case s.reports <- r:
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		s.cfg.Logger.Printf("reports queue full, dropping report for host=%q service=%q", r.Hostname, r.Service)
	}
}
