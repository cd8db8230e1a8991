// Package config holds the gateway's process configuration: upstream base
// addresses and transport selection. Loaded once at startup and treated as
// immutable afterwards; handler logic never reads ambient environment state.
package config

import (
	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/configloader"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Transport selection values.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Defaults applied by Load when the file leaves a value unset.
const (
	DefaultListenAddr = ":8080"
	DefaultMCPPath    = "/mcp"
	DefaultHealthPath = "/healthz"
)

// Upstreams are the base addresses of the four collaborating services.
// Values support ${ENV} expansion, e.g. `los_url: ${XRPLGW_LOS_URL}`.
type Upstreams struct {
	// LOSURL is the transaction-indexing service.
	LOSURL string `json:"los_url" yaml:"los_url" validate:"required,url"`
	// VHSURL is the validator-reporting service.
	VHSURL string `json:"vhs_url" yaml:"vhs_url" validate:"required,url"`
	// RippledURL is the ledger node's JSON-RPC endpoint.
	RippledURL string `json:"rippled_url" yaml:"rippled_url" validate:"required,url"`
	// XRPLMetaURL is the token metadata service.
	XRPLMetaURL string `json:"xrplmeta_url" yaml:"xrplmeta_url" validate:"required,url"`
}

// Server selects the transport the tools are served over.
type Server struct {
	// Transport is "stdio" or "http".
	Transport string `json:"transport" yaml:"transport" validate:"omitempty,oneof=stdio http"`
	// ListenAddr is the HTTP listen address; unused on stdio.
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
	// MCPPath is the fixed request path on the HTTP transport.
	MCPPath string `json:"mcp_path,omitempty" yaml:"mcp_path,omitempty"`
	// HealthPath is the liveness path on the HTTP transport.
	HealthPath string `json:"health_path,omitempty" yaml:"health_path,omitempty"`
}

// Config is the complete process configuration.
type Config struct {
	Upstreams Upstreams `json:"upstreams" yaml:"upstreams"`
	Server    Server    `json:"server" yaml:"server"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads a YAML configuration file, expands ${ENV} references, applies
// defaults and validates the result.
func Load(file string) (*Config, error) {
	cfg := new(Config)
	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to load config: %s", file)
	}
	cfg.applyDefaults()
	if err := validate.Struct(cfg); err != nil {
		return nil, errors.WithMessagef(err, "invalid config: %s", file)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Transport == "" {
		c.Server.Transport = TransportStdio
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.MCPPath == "" {
		c.Server.MCPPath = DefaultMCPPath
	}
	if c.Server.HealthPath == "" {
		c.Server.HealthPath = DefaultHealthPath
	}
}

// String renders the configuration as YAML.
func (c *Config) String() string {
	bs, err := yaml.Marshal(c)
	if err != nil {
		return ""
	}
	return string(bs)
}
