package di

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pricereg/priceregd/internal/config"
	grpcserver "github.com/pricereg/priceregd/internal/grpc"
	"github.com/pricereg/priceregd/internal/registry"
	"github.com/pricereg/priceregd/internal/rpc"
	"github.com/pricereg/priceregd/internal/storage/kvstore"
	"github.com/pricereg/priceregd/internal/types"
)

// Provider configures and registers services in the container.
type Provider struct {
	container *Container
	config    *config.Config
}

// NewProvider creates a new service provider.
func NewProvider(container *Container, cfg *config.Config) *Provider {
	return &Provider{
		container: container,
		config:    cfg,
	}
}

// RegisterAll registers all services.
func (p *Provider) RegisterAll() error {
	p.container.Register(ServiceConfig, p.config)

	p.registerStorageBuilders()
	p.registerRegistryBuilders()
	p.registerServerBuilders()

	return nil
}

// registerStorageBuilders registers storage service builders.
func (p *Provider) registerStorageBuilders() {
	p.container.RegisterBuilder(ServiceStore, func(c *Container) (interface{}, error) {
		store, err := kvstore.Open(&p.config.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		return store, nil
	})
}

// registerRegistryBuilders registers the clock and the registry itself.
func (p *Provider) registerRegistryBuilders() {
	p.container.RegisterBuilder(ServiceClock, func(c *Container) (interface{}, error) {
		return registry.NewSystemClock(), nil
	})

	p.container.RegisterBuilder(ServiceRegistry, func(c *Container) (interface{}, error) {
		store, err := c.Get(ServiceStore)
		if err != nil {
			return nil, err
		}
		clock, err := c.Get(ServiceClock)
		if err != nil {
			return nil, err
		}

		reg := registry.New(store.(*kvstore.Store), clock.(registry.Clock))

		if err := applyBootstrapOwner(reg, p.config.Registry.BootstrapOwner); err != nil {
			return nil, err
		}

		return reg, nil
	})
}

// registerServerBuilders registers the RPC and gRPC server builders.
func (p *Provider) registerServerBuilders() {
	p.container.RegisterBuilder(ServiceRPCServer, func(c *Container) (interface{}, error) {
		reg, err := c.Get(ServiceRegistry)
		if err != nil {
			return nil, err
		}

		isAdmin := p.config.Server.IsAdminIP
		return rpc.NewServer(reg.(*registry.Registry), isAdmin, p.config.Server.RPCTimeout), nil
	})

	p.container.RegisterBuilder(ServiceGRPCServer, func(c *Container) (interface{}, error) {
		if p.config.Server.GRPCAddress == "" {
			return nil, nil // gRPC disabled
		}

		reg, err := c.Get(ServiceRegistry)
		if err != nil {
			return nil, err
		}

		cfg := grpcserver.DefaultServerConfig()
		cfg.Address = p.config.Server.GRPCAddress
		return grpcserver.NewServer(cfg, reg.(*registry.Registry))
	})
}

// applyBootstrapOwner initializes the registry owner from configuration.
// An already-initialized registry keeps its owner; only a conflicting
// bootstrap request is worth a log line.
func applyBootstrapOwner(reg *registry.Registry, ownerHex string) error {
	if ownerHex == "" {
		return nil
	}

	owner, err := types.AccountIDFromHex(ownerHex)
	if err != nil {
		return fmt.Errorf("invalid bootstrap owner: %w", err)
	}

	current, err := reg.Owner()
	if err != nil {
		return err
	}
	if addr, _ := current.Address(); !addr.IsSentinel() {
		if addr != owner {
			log.Printf("bootstrap owner %s ignored: registry already owned by %s", owner, addr)
		}
		return nil
	}

	if err := reg.Initialize(owner); err != nil {
		return fmt.Errorf("failed to bootstrap owner: %w", err)
	}
	log.Printf("registry owner initialized to %s", owner)
	return nil
}

// Run builds the servers and runs them until the context is canceled or a
// SIGINT/SIGTERM arrives, then shuts everything down in order.
func (p *Provider) Run(ctx context.Context) error {
	rpcSvc, err := p.container.Get(ServiceRPCServer)
	if err != nil {
		return err
	}
	rpcServer := rpcSvc.(*rpc.Server)

	var grpcServer *grpcserver.Server
	if grpcSvc, err := p.container.Get(ServiceGRPCServer); err != nil {
		return err
	} else if grpcSvc != nil {
		grpcServer = grpcSvc.(*grpcserver.Server)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return rpcServer.Start(p.config.Server.RPCAddress)
	})

	if grpcServer != nil {
		group.Go(func() error {
			log.Printf("gRPC server listening on %s", p.config.Server.GRPCAddress)
			return grpcServer.Start()
		})
	}

	group.Go(func() error {
		select {
		case sig := <-sigCh:
			log.Printf("received signal %v, shutting down", sig)
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := rpcServer.Stop(shutdownCtx); err != nil {
			log.Printf("rpc server shutdown: %v", err)
		}
		if grpcServer != nil {
			grpcServer.Stop()
		}
		return nil
	})

	err = group.Wait()

	// Close the store last so in-flight handlers never see a closed backend
	if store, storeErr := p.container.Get(ServiceStore); storeErr == nil {
		if closeErr := store.(*kvstore.Store).Close(); closeErr != nil {
			log.Printf("store close: %v", closeErr)
		}
	}

	return err
}
