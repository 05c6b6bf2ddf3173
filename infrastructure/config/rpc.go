package config

import (
	"net"
	"strings"
	"time"

	"github.com/dfinet/dfitx/domain/dfiparams"
	"github.com/pkg/errors"
)

// RPCFlags holds the connection settings of the node JSON-RPC server.
type RPCFlags struct {
	RPCServer   string        `short:"s" long:"rpcserver" description:"Node RPC server to connect to, host[:port]"`
	RPCUser     string        `short:"u" long:"rpcuser" description:"RPC username"`
	RPCPassword string        `short:"P" long:"rpcpass" default-mask:"-" description:"RPC password; prompted for when --rpcuser is given without it"`
	RPCTimeout  time.Duration `long:"rpctimeout" description:"Timeout of a single RPC request" default:"30s"`
}

// RPCAddress returns the address of the RPC server, adding the default port
// of the network when none is given.
func (rpcFlags *RPCFlags) RPCAddress(params *dfiparams.Params) (string, error) {
	server := rpcFlags.RPCServer
	if server == "" {
		server = "localhost"
	}
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server, nil
	}
	host := strings.TrimSuffix(strings.TrimPrefix(server, "["), "]")
	if host == "" || strings.ContainsAny(host, "/ []") {
		return "", errors.Errorf("invalid --rpcserver %q", rpcFlags.RPCServer)
	}
	return net.JoinHostPort(host, params.DefaultRPCPort), nil
}
