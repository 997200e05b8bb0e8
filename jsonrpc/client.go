// Package jsonrpc implements a minimal JSON-RPC 2.0 client used by the
// allowance scanner to reach chain RPC endpoints, one Client per
// configured chain. The envelope shape and "error" detection follow
// cmd/equa-beacon-engine's RPCClient.CallRPC.
package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/walletcore/allowance-scanner/scanerr"
)

// Client issues a single JSON-RPC 2.0 request and returns the raw "result"
// field, or a *scanerr.Error of kind Transport if the node reported one.
type Client interface {
	Call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error)
	Close() error
}

type envelope struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      int               `json:"id"`
	Method  string            `json:"method"`
	Params  []interface{}     `json:"params"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func buildRequest(method string, params []interface{}) envelope {
	return envelope{JSONRPC: "2.0", ID: 1, Method: method, Params: params}
}

func parseResponse(body []byte) (json.RawMessage, error) {
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, scanerr.New(scanerr.Decode, "jsonrpc.parseResponse", err)
	}
	if r.Error != nil {
		return nil, scanerr.New(scanerr.Transport, "jsonrpc.parseResponse", r.Error)
	}
	return r.Result, nil
}
