package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/walletcore/allowance-scanner/scanerr"
)

// HTTPClient is the default transport: one POST per call, matching the
// shape of cmd/equa-beacon-engine's RPCClient.CallRPC.
type HTTPClient struct {
	endpoint string
	http     *http.Client
}

// NewHTTPClient returns a Client bound to endpoint with the given timeout.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	reqBody, err := json.Marshal(buildRequest(method, params))
	if err != nil {
		return nil, scanerr.New(scanerr.Decode, "jsonrpc.HTTPClient.Call", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, scanerr.New(scanerr.Transport, "jsonrpc.HTTPClient.Call", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, scanerr.New(scanerr.Transport, "jsonrpc.HTTPClient.Call", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, scanerr.New(scanerr.Transport, "jsonrpc.HTTPClient.Call", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, scanerr.New(scanerr.Transport, "jsonrpc.HTTPClient.Call",
			&httpStatusError{status: resp.StatusCode, body: string(body)})
	}

	return parseResponse(body)
}

func (c *HTTPClient) Close() error { return nil }

type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return "unexpected HTTP status " + http.StatusText(e.status) + ": " + e.body
}
