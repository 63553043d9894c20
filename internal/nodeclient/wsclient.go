package nodeclient

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"batchcall/internal/jsonrpc"
)

// WSClient owns a single WebSocket connection to a node and multiplexes
// batched JSON-RPC request/response traffic on it.
type WSClient struct {
	wsURL          string
	messageTimeout time.Duration
	pingInterval   time.Duration
	logger         zerolog.Logger

	conn    *websocket.Conn
	connMu  sync.RWMutex
	writeMu sync.Mutex

	pending   map[int64]chan *jsonrpc.Response
	pendingMu sync.Mutex
	reqID     int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWSClient creates a new WebSocket client for a node endpoint
func NewWSClient(wsURL string, messageTimeout, pingInterval time.Duration, logger zerolog.Logger) *WSClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &WSClient{
		wsURL:          wsURL,
		messageTimeout: messageTimeout,
		pingInterval:   pingInterval,
		logger:         logger.With().Str("component", "wsclient").Logger(),
		pending:        make(map[int64]chan *jsonrpc.Response),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Connect establishes the WebSocket connection and starts the reader
func (c *WSClient) Connect(ctx context.Context) error {
	c.connMu.Lock()
	if c.conn != nil {
		c.connMu.Unlock()
		return nil
	}
	c.connMu.Unlock()

	c.logger.Debug().Str("url", c.wsURL).Msg("WebSocket connecting")
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect WebSocket: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	c.setPongHandler(conn)
	c.logger.Debug().Str("url", c.wsURL).Msg("WebSocket connected")

	c.wg.Add(1)
	go c.readLoop()
	if c.pingInterval > 0 {
		c.wg.Add(1)
		go c.pingLoop()
	}
	return nil
}

func (c *WSClient) setPongHandler(conn *websocket.Conn) {
	readTimeout := c.messageTimeout
	if readTimeout == 0 {
		readTimeout = 60 * time.Second
	}
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})
}

// Close closes the connection and fails all pending calls
func (c *WSClient) Close() {
	c.cancel()

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	c.pendingMu.Lock()
	for _, ch := range c.pending {
		close(ch)
	}
	c.pending = make(map[int64]chan *jsonrpc.Response)
	c.pendingMu.Unlock()

	c.wg.Wait()
	c.logger.Debug().Msg("WebSocket disconnected")
}

// BatchCallContext sends all elements as one JSON-RPC batch message and
// waits for every response. Transport failures are returned; per-call
// failures land in each element's Error field.
func (c *WSClient) BatchCallContext(ctx context.Context, batch []rpc.BatchElem) error {
	if len(batch) == 0 {
		return nil
	}

	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return fmt.Errorf("WebSocket not connected")
	}

	requests := make([]*jsonrpc.Request, len(batch))
	channels := make([]chan *jsonrpc.Response, len(batch))
	ids := make([]int64, len(batch))

	c.pendingMu.Lock()
	for i, elem := range batch {
		id := atomic.AddInt64(&c.reqID, 1)
		req, err := jsonrpc.NewRequest(elem.Method, elem.Args, jsonrpc.NewIDInt(id))
		if err != nil {
			for _, prev := range ids[:i] {
				delete(c.pending, prev)
			}
			c.pendingMu.Unlock()
			return fmt.Errorf("failed to build request: %w", err)
		}
		ch := make(chan *jsonrpc.Response, 1)
		c.pending[id] = ch
		requests[i] = req
		channels[i] = ch
		ids[i] = id
	}
	c.pendingMu.Unlock()

	cleanup := func() {
		c.pendingMu.Lock()
		for _, id := range ids {
			delete(c.pending, id)
		}
		c.pendingMu.Unlock()
	}

	data, err := jsonrpc.MarshalBatch(requests)
	if err != nil {
		cleanup()
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	c.writeMu.Lock()
	writeErr := conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()
	if writeErr != nil {
		cleanup()
		return fmt.Errorf("failed to send batch: %w", writeErr)
	}

	for i := range batch {
		select {
		case resp := <-channels[i]:
			if resp == nil {
				cleanup()
				return fmt.Errorf("connection closed")
			}
			if resp.HasError() {
				batch[i].Error = resp.Error
				continue
			}
			if err := resp.GetResultAs(batch[i].Result); err != nil {
				batch[i].Error = fmt.Errorf("failed to decode result: %w", err)
			}
		case <-ctx.Done():
			cleanup()
			return ctx.Err()
		}
	}
	return nil
}

// readLoop reads messages from the connection and routes responses to
// their pending callers by request ID
func (c *WSClient) readLoop() {
	defer c.wg.Done()

	for {
		c.connMu.RLock()
		conn := c.conn
		c.connMu.RUnlock()
		if conn == nil {
			return
		}

		if c.messageTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(c.messageTimeout))
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				c.logger.Warn().Err(err).Msg("WebSocket read failed")
			}
			return
		}

		responses, err := jsonrpc.ParseBatchResponse(data)
		if err != nil {
			c.logger.Warn().Err(err).Msg("failed to parse response")
			continue
		}

		for _, resp := range responses {
			c.dispatch(resp)
		}
	}
}

func (c *WSClient) dispatch(resp *jsonrpc.Response) {
	id, ok := resp.ID.Int64()
	if !ok {
		c.logger.Debug().Msg("response with non-numeric id dropped")
		return
	}

	c.pendingMu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	if !ok {
		c.logger.Debug().Int64("id", id).Msg("response for unknown request dropped")
		return
	}
	ch <- resp
}

func (c *WSClient) pingLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()
			if conn == nil {
				return
			}
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Debug().Err(err).Msg("ping write failed")
				return
			}
		}
	}
}

var _ BatchCaller = (*WSClient)(nil)
