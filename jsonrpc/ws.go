package jsonrpc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/walletcore/allowance-scanner/scanerr"
)

// WSClient is a WebSocket transport for chains whose operator only exposes
// a "wss://" endpoint. Requests are serialized over a single connection
// under a mutex; the scanner never needs subscriptions, only request/reply.
type WSClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// DialWS opens a WebSocket connection to endpoint.
func DialWS(ctx context.Context, endpoint string) (*WSClient, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, scanerr.New(scanerr.Transport, "jsonrpc.DialWS", err)
	}
	return &WSClient{conn: conn}, nil
}

func (c *WSClient) Call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
		_ = c.conn.SetReadDeadline(deadline)
	}

	if err := c.conn.WriteJSON(buildRequest(method, params)); err != nil {
		return nil, scanerr.New(scanerr.Transport, "jsonrpc.WSClient.Call", err)
	}

	_, body, err := c.conn.ReadMessage()
	if err != nil {
		return nil, scanerr.New(scanerr.Transport, "jsonrpc.WSClient.Call", err)
	}

	return parseResponse(body)
}

func (c *WSClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}
