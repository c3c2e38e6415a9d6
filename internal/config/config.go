// Package config holds the runtime configuration of the price registry
// daemon: server addresses, storage backend settings and registry bootstrap
// options, loaded from a TOML file with environment overrides.
package config

import (
	"time"

	"github.com/pricereg/priceregd/internal/storage/kvstore"
)

// Config is the complete daemon configuration.
type Config struct {
	// NodeName identifies this instance in server_info responses and logs.
	NodeName string `mapstructure:"node_name"`

	Server   ServerConfig   `mapstructure:"server"`
	Storage  kvstore.Config `mapstructure:"storage"`
	Registry RegistryConfig `mapstructure:"registry"`

	// configPath remembers where the config was loaded from so the CLI can
	// report it; empty when running on pure defaults.
	configPath string
}

// ServerConfig configures the JSON-RPC and gRPC listeners.
type ServerConfig struct {
	// RPCAddress is the listen address of the HTTP JSON-RPC server.
	RPCAddress string `mapstructure:"rpc_address"`

	// GRPCAddress is the listen address of the gRPC server; empty disables it.
	GRPCAddress string `mapstructure:"grpc_address"`

	// RPCTimeout bounds the handling of a single JSON-RPC request.
	RPCTimeout time.Duration `mapstructure:"rpc_timeout"`

	// AdminIPs lists client IPs granted the admin role. Admin clients may
	// invoke the mutating registry methods; everyone else is read-only.
	AdminIPs []string `mapstructure:"admin_ips"`
}

// RegistryConfig configures registry bootstrap behavior.
type RegistryConfig struct {
	// BootstrapOwner, when set to a 40-character hex account, is applied as
	// the registry owner on startup if no owner has been initialized yet.
	// A non-empty value against an already-owned registry is not an error;
	// the existing owner is kept.
	BootstrapOwner string `mapstructure:"bootstrap_owner"`
}

// IsAdminIP reports whether the given client IP is in the admin allowlist.
func (s *ServerConfig) IsAdminIP(ip string) bool {
	for _, allowed := range s.AdminIPs {
		if allowed == ip {
			return true
		}
	}
	return false
}

// Path returns the file the configuration was loaded from, or "" when the
// daemon is running on defaults.
func (c *Config) Path() string {
	return c.configPath
}
