package fail2ban

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

const (
	defaultDialTimeout = 5 * time.Second
	defaultIOTimeout   = 10 * time.Second

	readChunk = 1024
)

// ErrEmptyResponse is returned (wrapped in a TransportError) when the server
// closes the connection without sending anything.
var ErrEmptyResponse = errors.New("empty response")

// TransportError reports a failed request on the fail2ban socket.
type TransportError struct {
	Command string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fail2ban: %q: %v", e.Command, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DialFunc opens a stream connection to the socket at path.
type DialFunc func(ctx context.Context, path string) (net.Conn, error)

// Client sends commands to the fail2ban server. It holds no connection
// between calls and is safe for concurrent use.
type Client struct {
	socketPath  string
	dialTimeout time.Duration
	ioTimeout   time.Duration
	dial        DialFunc
}

// Option customises a Client.
type Option func(*Client)

// WithDialTimeout bounds connecting to the socket.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) { c.dialTimeout = d }
}

// WithIOTimeout bounds writing the command and reading the full response.
func WithIOTimeout(d time.Duration) Option {
	return func(c *Client) { c.ioTimeout = d }
}

// WithDialer replaces the Unix socket dialer. Used by tests.
func WithDialer(fn DialFunc) Option {
	return func(c *Client) { c.dial = fn }
}

// NewClient returns a Client for the socket at socketPath.
func NewClient(socketPath string, opts ...Option) *Client {
	c := &Client{
		socketPath:  socketPath,
		dialTimeout: defaultDialTimeout,
		ioTimeout:   defaultIOTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	if c.dial == nil {
		c.dial = c.dialUnix
	}
	return c
}

// Send writes command followed by a newline and returns the raw response.
func (c *Client) Send(ctx context.Context, command string) (string, error) {
	conn, err := c.dial(ctx, c.socketPath)
	if err != nil {
		return "", &TransportError{Command: command, Err: fmt.Errorf("connect: %w", err)}
	}
	defer conn.Close()

	deadline := time.Now().Add(c.ioTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return "", &TransportError{Command: command, Err: fmt.Errorf("set deadline: %w", err)}
	}

	// Unblock pending I/O on cancellation.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := io.WriteString(conn, command+"\n"); err != nil {
		return "", &TransportError{Command: command, Err: fmt.Errorf("write: %w", c.cause(ctx, err))}
	}

	resp, err := readResponse(conn)
	if err != nil {
		return "", &TransportError{Command: command, Err: fmt.Errorf("read: %w", c.cause(ctx, err))}
	}
	if len(resp) == 0 {
		return "", &TransportError{Command: command, Err: ErrEmptyResponse}
	}
	return string(resp), nil
}

// readResponse reads until EOF or until the accumulated bytes end with a
// newline. The server answers each command with one newline-terminated
// line, so a reply whose writes happen to break right after an embedded
// newline is returned truncated at that point.
func readResponse(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, readChunk)
	for {
		n, err := r.Read(chunk)
		buf.Write(chunk[:n])
		if n > 0 && bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
			return buf.Bytes(), nil
		}
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// cause prefers the context error when the context ended the I/O.
func (c *Client) cause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (c *Client) dialUnix(ctx context.Context, path string) (net.Conn, error) {
	d := net.Dialer{Timeout: c.dialTimeout}
	return d.DialContext(ctx, "unix", path)
}
