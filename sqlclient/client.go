package sqlclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tuannm99/minidb/internal/sql/executor"
	"github.com/tuannm99/minidb/server/minidbwire"
)

// Client is a simple synchronous client.
// It locks send/recv so you can call Exec concurrently but they'll serialize.
type Client struct {
	conn net.Conn
	mu   sync.Mutex
	id   atomic.Uint64

	// session id assigned by the server, known after the first response
	session string

	// Optional per-request timeout (0 = no timeout).
	rwTimeout time.Duration
}

func Dial(addr string, timeout time.Duration) (*Client, error) {
	return DialContext(context.Background(), addr, timeout)
}

func DialContext(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	d := net.Dialer{Timeout: timeout}
	c, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: c}, nil
}

// SetRWTimeout sets a per-Exec read/write deadline.
// Useful to avoid hanging forever if server dies.
func (c *Client) SetRWTimeout(d time.Duration) {
	if c == nil {
		return
	}
	c.rwTimeout = d
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Session returns the server-side session id, empty before the first call.
func (c *Client) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Authenticate presents a JWT for this connection.
func (c *Client) Authenticate(ctx context.Context, token string) error {
	_, err := c.roundTrip(ctx, minidbwire.ExecuteRequest{Token: token})
	return err
}

func (c *Client) Exec(sql string) (*executor.Result, error) {
	return c.ExecContext(context.Background(), sql)
}

// ExecContext runs one statement. Statement failures (syntax errors,
// missing tables) come back as a Result; the error is for transport and
// authentication problems.
func (c *Client) ExecContext(ctx context.Context, sql string) (*executor.Result, error) {
	resp, err := c.roundTrip(ctx, minidbwire.ExecuteRequest{SQL: sql})
	if err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("sqlclient: empty result for request %d", resp.ID)
	}
	return resp.Result, nil
}

func (c *Client) roundTrip(ctx context.Context, req minidbwire.ExecuteRequest) (*minidbwire.ExecuteResponse, error) {
	if c == nil || c.conn == nil {
		return nil, fmt.Errorf("sqlclient: nil client")
	}

	req.ID = c.id.Add(1)

	c.mu.Lock()
	defer c.mu.Unlock()

	// Apply deadline if configured or context has deadline.
	if err := c.applyDeadline(ctx); err != nil {
		return nil, err
	}
	defer func() {
		// Clear deadline after request so idle connection doesn't expire.
		_ = c.conn.SetDeadline(time.Time{})
	}()

	if err := minidbwire.WriteFrame(c.conn, req); err != nil {
		return nil, err
	}

	var resp minidbwire.ExecuteResponse
	if err := minidbwire.ReadFrame(c.conn, &resp); err != nil {
		return nil, err
	}

	if resp.ID != req.ID {
		return nil, fmt.Errorf("sqlclient: response id mismatch: got=%d want=%d", resp.ID, req.ID)
	}
	if resp.Session != "" {
		c.session = resp.Session
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	return &resp, nil
}

func (c *Client) applyDeadline(ctx context.Context) error {
	// Prefer context deadline if present; otherwise use rwTimeout.
	if dl, ok := ctx.Deadline(); ok {
		return c.conn.SetDeadline(dl)
	}
	if c.rwTimeout > 0 {
		return c.conn.SetDeadline(time.Now().Add(c.rwTimeout))
	}
	return nil
}
