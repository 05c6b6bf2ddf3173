package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// maxResponseSize bounds the size of a response body read into memory.
const maxResponseSize = 32 * 1024 * 1024

type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// post sends a request for method to the RPC server and returns the result
// member of the response. An error member in the response is returned as an
// ErrRPC.
func (c *RPCClient) post(ctx context.Context, method string, params ...interface{}) (gjson.Result, error) {
	if params == nil {
		params = []interface{}{}
	}
	requestBytes, err := json.Marshal(&request{
		JSONRPC: "1.0",
		ID:      c.newID(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "error encoding the %s request", method)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(requestBytes))
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "error creating the %s request", method)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	if c.user != "" || c.password != "" {
		httpRequest.SetBasicAuth(c.user, c.password)
	}

	log.Tracef("Sending %s to %s", method, c.url)
	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "error sending %s to the RPC server", method)
	}
	defer httpResponse.Body.Close()

	responseBytes, err := io.ReadAll(io.LimitReader(httpResponse.Body, maxResponseSize))
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "error reading the %s response", method)
	}

	// Nodes answer RPC errors with a non-200 status and a JSON body, so the
	// body is inspected before the status.
	if !gjson.ValidBytes(responseBytes) {
		return gjson.Result{}, errors.Errorf("%s: unexpected response with status %s: %q",
			method, httpResponse.Status, truncate(responseBytes))
	}
	response := gjson.ParseBytes(responseBytes)

	rpcError := response.Get("error")
	if rpcError.Exists() && rpcError.Type != gjson.Null {
		return gjson.Result{}, errors.Wrapf(ErrRPC, "%s: %s (code %d)",
			method, rpcError.Get("message").String(), rpcError.Get("code").Int())
	}
	if httpResponse.StatusCode != http.StatusOK {
		return gjson.Result{}, errors.Errorf("%s: unexpected status %s", method, httpResponse.Status)
	}

	result := response.Get("result")
	if !result.Exists() {
		return gjson.Result{}, errors.Errorf("%s: response has no result", method)
	}
	return result, nil
}

func truncate(b []byte) string {
	const maxLength = 128
	if len(b) > maxLength {
		return string(b[:maxLength]) + "..."
	}
	return string(b)
}
