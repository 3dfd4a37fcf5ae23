package nsca

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"syscall"

	"github.com/metricq/nscago/cipher"
	"github.com/metricq/nscago/internal/randutil"
	"github.com/metricq/nscago/internal/wire"
)

// DefaultRetries is the retry budget send_nsca-style callers use when
// they don't pick their own.
const DefaultRetries = 5

// Client is a session for sending NSCA reports to one monitoring
// host. The zero value is not usable; construct one with NewClient.
//
// A Client moves through three states: created, connected, and
// closed. Connect opens the TCP session and performs the handshake;
// SendReport transmits reports while connected, transparently
// reconnecting across a bounded number of attempts if the server
// resets the connection; Disconnect releases the socket. Concurrent
// SendReport calls on one Client are not supported — callers must
// serialize them, since each connection's stream cipher must see
// reports in the order they reach the wire.
type Client struct {
	cfg ClientConfig

	mu        sync.Mutex
	conn      net.Conn
	w         *bufio.Writer
	timestamp uint32
	cipher    cipher.Cipher
	closed    bool
}

// NewClient creates a Client for cfg. It performs no I/O; call
// Connect to open the session.
func NewClient(cfg ClientConfig) *Client {
	cfg = cfg.withDefaults()
	if cfg.EncryptionMethod != Plaintext && cfg.Password == "" {
		cfg.Logger.Printf("warning: creating NSCA client using non-plaintext encryption method %s, but with empty password; is this intentional?", cfg.EncryptionMethod)
	}
	return &Client{cfg: cfg}
}

// Connect opens a TCP connection to the configured host and port,
// reads the server's init packet, and constructs the session cipher
// from the server-supplied IV.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(int(c.cfg.Port)))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}

	init, err := readInitPacket(conn)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("read init packet from %s: %w", addr, err)
	}

	c.cipher, err = cipher.New(c.cfg.EncryptionMethod, []byte(c.cfg.Password), init.IV[:], randutil.Reader)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("construct cipher: %w", err)
	}

	c.conn = conn
	c.w = bufio.NewWriter(conn)
	c.timestamp = init.Timestamp
	c.closed = false
	return nil
}

func readInitPacket(r net.Conn) (wire.InitPacket, error) {
	buf := make([]byte, wire.InitPacketSize)
	if _, err := readFull(r, buf); err != nil {
		return wire.InitPacket{}, err
	}
	return wire.UnpackInitPacket(buf)
}

func readFull(r net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// SendReport sends one host or service check result, retrying up to
// retries times across transparent reconnects if the server resets
// the connection mid-stream. A service of "" is interpreted by the
// server as a host-level report.
func (c *Client) SendReport(ctx context.Context, host, service string, state State, message string, retries int) error {
	if retries <= 0 {
		retries = DefaultRetries
	}
	if !state.Valid() {
		return &InvalidStateError{Raw: uint16(state)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if c.conn == nil {
			if err := c.connectLocked(ctx); err != nil {
				lastErr = err
				if !isConnError(err) {
					return err
				}
				continue
			}
		}

		err := c.writeReportLocked(host, service, state, message)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isConnReset(err) {
			return fmt.Errorf("send report to %s: %w", c.cfg.Host, err)
		}

		c.cfg.Logger.Printf("connection reset by NSCA host, reconnecting (%d/%d): %v", attempt, retries, err)
		c.teardownLocked()
		if rerr := c.connectLocked(ctx); rerr != nil {
			lastErr = rerr
			if !isConnError(rerr) {
				return fmt.Errorf("reconnect to %s: %w", c.cfg.Host, rerr)
			}
			c.cfg.Logger.Printf("failed to reconnect to NSCA host (%d/%d): %v", attempt, retries, rerr)
			continue
		}
	}

	return &SendFailedError{Host: c.cfg.Host, Port: c.cfg.Port, Attempts: retries, Err: lastErr}
}

func (c *Client) writeReportLocked(host, service string, state State, message string) error {
	buf, err := wire.PackReport(randutil.Reader, wire.Report{
		Hostname:  host,
		Service:   service,
		State:     state,
		Message:   message,
		Timestamp: c.timestamp,
	}, wire.MessageWidthLong)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	encrypted, err := c.cipher.Encrypt(buf)
	if err != nil {
		return fmt.Errorf("encrypt report: %w", err)
	}

	if _, err := c.w.Write(encrypted); err != nil {
		return err
	}
	return c.w.Flush()
}

// Disconnect closes the client's connection. If flush is true, it
// attempts to drain the send buffer first, swallowing any connection
// error from the drain. Disconnect on an already-closed or
// never-connected client is a no-op.
func (c *Client) Disconnect(flush bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.closed {
		return nil
	}
	if flush && c.w != nil {
		if err := c.w.Flush(); err != nil && !isConnError(err) {
			return err
		}
	}
	c.teardownLocked()
	return nil
}

func (c *Client) teardownLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = nil
	c.w = nil
	c.cipher = nil
	c.closed = true
}

func isConnReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, net.ErrClosed)
}

func isConnError(err error) bool {
	if isConnReset(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
