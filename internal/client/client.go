package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/tictacnet/internal/protocol"
)

// MaxResponseSize bounds a single reply from the server
const MaxResponseSize = 64 * 1024

// ErrResponseTooLarge is returned when a reply exceeds MaxResponseSize
var ErrResponseTooLarge = errors.New("response too large")

// Client holds one persistent connection to a game server.
// Requests are serialized: each Do writes one request and reads its reply.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithTimeout bounds each request/reply round trip
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Dial connects to the server at addr
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return New(conn, opts...), nil
}

// New wraps an established connection
func New(conn net.Conn, opts ...Option) *Client {
	c := &Client{
		conn:    conn,
		reader:  bufio.NewReaderSize(conn, MaxResponseSize),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends one raw request and returns the reply without its trailing newline
func (c *Client) Do(request string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, fmt.Errorf("set deadline: %w", err)
		}
		defer c.conn.SetDeadline(time.Time{})
	}

	if _, err := c.conn.Write([]byte(request)); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	line, err := c.reader.ReadSlice('\n')
	if err != nil {
		if errors.Is(err, bufio.ErrBufferFull) {
			return nil, ErrResponseTooLarge
		}
		return nil, fmt.Errorf("read response: %w", err)
	}
	return append([]byte(nil), line[:len(line)-1]...), nil
}

func (c *Client) call(result any, verb protocol.Verb, args ...string) error {
	data, err := c.Do(protocol.Format(verb, args...))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("decode %s response: %w", verb, err)
	}
	return nil
}

// Name returns the display name the server allocated to this connection
func (c *Client) Name() (string, error) {
	data, err := c.Do(string(protocol.VerbGetMyName))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// CreateSession creates a session and joins it
func (c *Client) CreateSession(name string) (protocol.CreateResponse, error) {
	var resp protocol.CreateResponse
	err := c.call(&resp, protocol.VerbNewServer, name)
	return resp, err
}

// ListSessions returns every live session
func (c *Client) ListSessions() ([]protocol.ServerListEntry, error) {
	var resp []protocol.ServerListEntry
	err := c.call(&resp, protocol.VerbGetServersList)
	return resp, err
}

// Session returns a snapshot of the named session
func (c *Client) Session(name string) (protocol.ServerState, error) {
	var resp protocol.ServerState
	err := c.call(&resp, protocol.VerbGetServer, name)
	return resp, err
}

// Join joins the named session
func (c *Client) Join(name string) (protocol.JoinResponse, error) {
	var resp protocol.JoinResponse
	err := c.call(&resp, protocol.VerbJoinServer, name)
	return resp, err
}

// Move places this participant's symbol at (row, col)
func (c *Client) Move(name string, row, col int) (protocol.ServerState, error) {
	var resp protocol.ServerState
	err := c.call(&resp, protocol.VerbMakeMove, name, strconv.Itoa(row), strconv.Itoa(col))
	return resp, err
}

// Start starts the named session's match
func (c *Client) Start(name string) (protocol.MessageResponse, error) {
	var resp protocol.MessageResponse
	err := c.call(&resp, protocol.VerbStartGame, name)
	return resp, err
}

// Exit leaves the current session
func (c *Client) Exit() (protocol.MessageResponse, error) {
	var resp protocol.MessageResponse
	err := c.call(&resp, protocol.VerbExitServer)
	return resp, err
}

// Quit tells the server to clean up and closes the connection
func (c *Client) Quit() error {
	c.mu.Lock()
	_, writeErr := c.conn.Write([]byte(protocol.VerbQuit))
	c.mu.Unlock()
	closeErr := c.Close()
	if writeErr != nil {
		return fmt.Errorf("send quit: %w", writeErr)
	}
	return closeErr
}

// Close closes the connection without notifying the server
func (c *Client) Close() error {
	return c.conn.Close()
}
