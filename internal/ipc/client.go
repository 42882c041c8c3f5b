package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// DefaultClientTimeout bounds one request/response round trip
const DefaultClientTimeout = 30 * time.Second

// ErrDaemonNotRunning means nothing is listening on the socket
var ErrDaemonNotRunning = errors.New("daemon is not running")

// Client talks to the daemon over its Unix socket
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for socketPath
func NewClient(socketPath string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	return &Client{socketPath: socketPath, timeout: timeout}
}

// SocketExists reports whether the socket file is present
func (c *Client) SocketExists() bool {
	_, err := os.Stat(c.socketPath)
	return err == nil
}

// Do sends req and waits for the response
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED) {
			return nil, fmt.Errorf("%w: %v", ErrDaemonNotRunning, err)
		}
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	if err := WriteRequest(conn, req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("request timed out after %s", c.timeout)
		}
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &resp, nil
}

// Ping reports whether the daemon answers
func (c *Client) Ping(ctx context.Context) bool {
	resp, err := c.Do(ctx, PingRequest{})
	return err == nil && resp.OK() && resp.Message == PongMessage
}

// WaitReady polls until the daemon answers a ping or timeout elapses
func (c *Client) WaitReady(ctx context.Context, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.SocketExists() && c.Ping(ctx) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(100 * time.Millisecond):
		}
	}
	return false
}
