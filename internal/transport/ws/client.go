// Package ws is a reference wire.Executor over a WebSocket connection.
// Requests and responses are JSON envelopes correlated by a client-assigned
// numeric id, so many calls can be in flight on one connection.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"rpcfuse/internal/wire"
)

// requestEnvelope is the on-wire form of one outbound call
type requestEnvelope struct {
	ID         uint64          `json:"id"`
	Resource   string          `json:"resource"`
	Method     string          `json:"method"`
	ActionName string          `json:"actionName,omitempty"`
	Key        string          `json:"key,omitempty"`
	Keys       []string        `json:"keys,omitempty"`
	Params     json.RawMessage `json:"params,omitempty"`
}

// responseEnvelope is the on-wire form of one call result
type responseEnvelope struct {
	ID      uint64                     `json:"id"`
	Result  json.RawMessage            `json:"result,omitempty"`
	Results map[string]json.RawMessage `json:"results,omitempty"`
	Errors  map[string]*wire.Error     `json:"errors,omitempty"`
	Error   *wire.Error                `json:"error,omitempty"`
}

// Client owns a single WebSocket connection and implements wire.Executor
type Client struct {
	conn   *websocket.Conn
	logger zerolog.Logger

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[uint64]chan *responseEnvelope
	reqID     atomic.Uint64

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the endpoint and starts the read loop
func Dial(ctx context.Context, endpoint string, handshakeTimeout time.Duration, logger zerolog.Logger) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect WebSocket: %w", err)
	}

	c := &Client{
		conn:    conn,
		logger:  logger.With().Str("component", "ws").Logger(),
		pending: make(map[uint64]chan *responseEnvelope),
		done:    make(chan struct{}),
	}
	go c.readLoop()

	c.logger.Info().Str("endpoint", endpoint).Msg("WebSocket connected")
	return c, nil
}

// Execute implements wire.Executor
func (c *Client) Execute(ctx context.Context, _ *wire.CallContext, req *wire.Request) (*wire.Response, error) {
	id := c.reqID.Add(1)
	respChan := make(chan *responseEnvelope, 1)

	c.pendingMu.Lock()
	c.pending[id] = respChan
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	env := &requestEnvelope{
		ID:         id,
		Resource:   req.Resource,
		Method:     req.Method.String(),
		ActionName: req.ActionName,
		Key:        req.Key,
		Keys:       req.Keys,
		Params:     req.Params,
	}

	c.writeMu.Lock()
	err := c.conn.WriteJSON(env)
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to write request: %w", err)
	}

	select {
	case resp := <-respChan:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return &wire.Response{
			Result:  resp.Result,
			Results: resp.Results,
			Errors:  resp.Errors,
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, fmt.Errorf("connection closed: %w", c.closeErr)
	}
}

// readLoop delivers responses to their waiting callers until the
// connection fails or the client closes
func (c *Client) readLoop() {
	for {
		env := &responseEnvelope{}
		if err := c.conn.ReadJSON(env); err != nil {
			c.fail(err)
			return
		}

		c.pendingMu.Lock()
		respChan, ok := c.pending[env.ID]
		c.pendingMu.Unlock()

		if !ok {
			c.logger.Debug().Uint64("id", env.ID).Msg("response for unknown request")
			continue
		}
		respChan <- env
	}
}

// fail marks the connection broken and releases all waiting callers
func (c *Client) fail(err error) {
	c.closeOnce.Do(func() {
		c.closeErr = err
		close(c.done)
		c.conn.Close()
	})
}

// Close shuts the connection down
func (c *Client) Close() {
	c.fail(fmt.Errorf("client closed"))
	c.logger.Info().Msg("WebSocket disconnected")
}
