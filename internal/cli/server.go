package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/pricereg/priceregd/internal/config"
	"github.com/pricereg/priceregd/internal/di"
)

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the price registry daemon",
	Long: `Start priceregd, which provides:
- HTTP JSON-RPC API (owner, get_price, set_price, set_prices, initialize)
- gRPC query server for reads
- Persistent storage behind a pluggable key-value backend

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Running without a subcommand starts the server
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServer(cmd, args)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if !quiet {
		fmt.Printf("Starting %s\n", cfg.NodeName)
		fmt.Printf("  - JSON-RPC: http://%s/\n", cfg.Server.RPCAddress)
		if cfg.Server.GRPCAddress != "" {
			fmt.Printf("  - gRPC:     %s\n", cfg.Server.GRPCAddress)
		}
		fmt.Printf("  - Storage:  %s (%s)\n", cfg.Storage.Backend, cfg.Storage.Path)
	}

	container := di.New()
	provider := di.NewProvider(container, cfg)
	if err := provider.RegisterAll(); err != nil {
		return fmt.Errorf("failed to register services: %w", err)
	}

	if err := provider.Run(context.Background()); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}

	log.Println("shutdown complete")
	return nil
}
