package config

import "github.com/spf13/viper"

// setDefaults sets the default values a daemon started without a config
// file runs with: local listeners, an on-disk pebble store, no bootstrap.
func setDefaults(v *viper.Viper) {
	v.SetDefault("node_name", "priceregd")

	// Server defaults
	v.SetDefault("server.rpc_address", "127.0.0.1:5005")
	v.SetDefault("server.grpc_address", "127.0.0.1:50051")
	v.SetDefault("server.rpc_timeout", "30s")
	v.SetDefault("server.admin_ips", []string{"127.0.0.1", "::1"})

	// Storage defaults
	v.SetDefault("storage.backend", "pebble")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.cache_size", 2000)
	v.SetDefault("storage.compressor", "lz4")
	v.SetDefault("storage.create_if_missing", true)

	// Registry defaults
	v.SetDefault("registry.bootstrap_owner", "")
}
