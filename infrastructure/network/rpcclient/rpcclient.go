// Package rpcclient talks to the JSON-RPC server of a node. It provides the
// spendable outputs, fee rate estimates and broadcasting the transaction
// builder needs.
package rpcclient

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

const defaultTimeout = 30 * time.Second

// ErrRPC is an error returned by the RPC server
var ErrRPC = errors.New("rpc error")

// ConnConfig describes the connection to the RPC server.
type ConnConfig struct {
	// Host is the host[:port] of the RPC server.
	Host string

	User     string
	Password string

	// DisableTLS connects over plain http. Nodes serve plain http by default.
	DisableTLS bool

	// Timeout bounds each request. Zero means 30 seconds.
	Timeout time.Duration
}

// RPCClient is an RPC client
type RPCClient struct {
	url        string
	user       string
	password   string
	httpClient *http.Client

	nextID uint64
}

// NewRPCClient creates a new RPC client. No connection is made until the
// first request.
func NewRPCClient(config *ConnConfig) (*RPCClient, error) {
	if config.Host == "" {
		return nil, errors.New("missing RPC server host")
	}
	scheme := "https"
	if config.DisableTLS {
		scheme = "http"
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &RPCClient{
		url:        scheme + "://" + config.Host,
		user:       config.User,
		password:   config.Password,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// SetTimeout sets the timeout by which to wait for RPC responses
func (c *RPCClient) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// Address returns the URL of the RPC server
func (c *RPCClient) Address() string {
	return c.url
}

func (c *RPCClient) newID() uint64 {
	return atomic.AddUint64(&c.nextID, 1)
}
