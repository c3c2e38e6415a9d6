package config

import (
	"fmt"
	"net"

	"github.com/pricereg/priceregd/internal/types"
)

// Validate performs validation on the complete configuration.
func Validate(cfg *Config) error {
	if cfg.NodeName == "" {
		return fmt.Errorf("node_name cannot be empty")
	}

	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}

	if err := cfg.Storage.Validate(); err != nil {
		return fmt.Errorf("storage validation failed: %w", err)
	}

	if err := validateRegistry(&cfg.Registry); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}

	return nil
}

func validateServer(server *ServerConfig) error {
	if server.RPCAddress == "" {
		return fmt.Errorf("rpc_address cannot be empty")
	}
	if _, _, err := net.SplitHostPort(server.RPCAddress); err != nil {
		return fmt.Errorf("invalid rpc_address %q: %w", server.RPCAddress, err)
	}

	if server.GRPCAddress != "" {
		if _, _, err := net.SplitHostPort(server.GRPCAddress); err != nil {
			return fmt.Errorf("invalid grpc_address %q: %w", server.GRPCAddress, err)
		}
	}

	if server.RPCTimeout <= 0 {
		return fmt.Errorf("rpc_timeout must be positive, got %v", server.RPCTimeout)
	}

	for _, ip := range server.AdminIPs {
		if net.ParseIP(ip) == nil {
			return fmt.Errorf("invalid admin ip %q", ip)
		}
	}

	return nil
}

func validateRegistry(registry *RegistryConfig) error {
	if registry.BootstrapOwner == "" {
		return nil
	}

	owner, err := types.AccountIDFromHex(registry.BootstrapOwner)
	if err != nil {
		return fmt.Errorf("invalid bootstrap_owner: %w", err)
	}
	if owner.IsSentinel() {
		return fmt.Errorf("bootstrap_owner cannot be the zero account")
	}

	return nil
}
