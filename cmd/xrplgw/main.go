// Command xrplgw serves the XRPL agent gateway: an MCP tool server that
// aggregates a transaction-indexing service, a validator-reporting service,
// a ledger JSON-RPC node and a token metadata service.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"

	"github.com/xrpl-agent/gateway/config"
	"github.com/xrpl-agent/gateway/mcp"
	"github.com/xrpl-agent/gateway/mcp/transport"
	"github.com/xrpl-agent/gateway/mcp/transport/httptransport"
	"github.com/xrpl-agent/gateway/mcp/transport/stdiotransport"
	"github.com/xrpl-agent/gateway/tools"
	"github.com/xrpl-agent/gateway/tools/composite"
	"github.com/xrpl-agent/gateway/upstream"
)

const (
	serverName    = "xrpl-agent-gateway"
	serverVersion = "1.0.0"
)

var logger = xlog.NewPackageLogger("github.com/xrpl-agent/gateway", "cmd")

func main() {
	cfgFile := flag.String("config", "gateway.yaml", "path to the configuration file")
	listTools := flag.Bool("list-tools", false, "print the tool catalog and exit")
	flag.Parse()

	if err := run(*cfgFile, *listTools); err != nil {
		fmt.Fprintf(os.Stderr, "xrplgw: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgFile string, listTools bool) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	svc := upstream.NewServices(
		cfg.Upstreams.LOSURL,
		cfg.Upstreams.VHSURL,
		cfg.Upstreams.RippledURL,
		cfg.Upstreams.XRPLMetaURL,
		nil,
	)

	catalog := composite.All(svc)
	catalog = append(catalog, tools.Passthroughs(svc)...)

	if listTools {
		fmt.Print(tools.GetDescriptions(catalog...))
		return nil
	}

	tr, err := newTransport(cfg)
	if err != nil {
		return err
	}

	server := mcp.NewServer(tr,
		mcp.WithName(serverName),
		mcp.WithVersion(serverVersion),
	)
	if err := tools.Register(server, catalog...); err != nil {
		return err
	}

	logger.KV(xlog.INFO,
		"transport", cfg.Server.Transport,
		"tools", len(catalog),
	)
	return server.Serve()
}

func newTransport(cfg *config.Config) (transport.Transport, error) {
	switch cfg.Server.Transport {
	case config.TransportStdio:
		return stdiotransport.NewStdioTransport(), nil
	case config.TransportHTTP:
		identity, err := json.Marshal(map[string]string{
			"name":     serverName,
			"version":  serverVersion,
			"instance": uuid.NewString(),
		})
		if err != nil {
			return nil, err
		}
		return httptransport.NewHTTPTransport(cfg.Server.MCPPath).
			WithAddr(cfg.Server.ListenAddr).
			WithHealth(cfg.Server.HealthPath, identity), nil
	default:
		return nil, errors.Errorf("unsupported transport: %s", cfg.Server.Transport)
	}
}
