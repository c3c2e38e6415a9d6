package di

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricereg/priceregd/internal/config"
	"github.com/pricereg/priceregd/internal/registry"
	"github.com/pricereg/priceregd/internal/rpc"
	"github.com/pricereg/priceregd/internal/storage/kvstore"
)

func TestContainerRegisterAndGet(t *testing.T) {
	c := New()

	c.Register("answer", 42)

	got, err := c.Get("answer")
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.True(t, c.Has("answer"))
}

func TestContainerBuilderRunsOnce(t *testing.T) {
	c := New()

	calls := 0
	c.RegisterBuilder("lazy", func(c *Container) (interface{}, error) {
		calls++
		return "built", nil
	})

	for i := 0; i < 3; i++ {
		got, err := c.Get("lazy")
		require.NoError(t, err)
		assert.Equal(t, "built", got)
	}
	assert.Equal(t, 1, calls)
}

func TestContainerBuilderError(t *testing.T) {
	c := New()

	boom := errors.New("boom")
	c.RegisterBuilder("bad", func(c *Container) (interface{}, error) {
		return nil, boom
	})

	_, err := c.Get("bad")
	assert.ErrorIs(t, err, boom)
}

func TestContainerUnknownService(t *testing.T) {
	c := New()

	_, err := c.Get("missing")
	assert.Error(t, err)
	assert.False(t, c.Has("missing"))

	assert.Panics(t, func() { c.MustGet("missing") })
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadDefault()
	require.NoError(t, err)
	cfg.Storage.Backend = "memory"
	cfg.Storage.Compressor = "none"
	return cfg
}

func TestProviderWiresRegistry(t *testing.T) {
	c := New()
	provider := NewProvider(c, testConfig(t))
	require.NoError(t, provider.RegisterAll())

	reg, err := c.Get(ServiceRegistry)
	require.NoError(t, err)
	require.IsType(t, &registry.Registry{}, reg)

	owner, err := reg.(*registry.Registry).Owner()
	require.NoError(t, err)
	addr, ok := owner.Address()
	assert.True(t, ok)
	assert.True(t, addr.IsSentinel())

	store, err := c.Get(ServiceStore)
	require.NoError(t, err)
	require.NoError(t, store.(*kvstore.Store).Close())
}

func TestProviderBootstrapOwner(t *testing.T) {
	cfg := testConfig(t)
	cfg.Registry.BootstrapOwner = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

	c := New()
	provider := NewProvider(c, cfg)
	require.NoError(t, provider.RegisterAll())

	reg, err := c.Get(ServiceRegistry)
	require.NoError(t, err)

	owner, err := reg.(*registry.Registry).Owner()
	require.NoError(t, err)
	addr, _ := owner.Address()
	assert.Equal(t, cfg.Registry.BootstrapOwner, addr.String())

	// Re-applying the same bootstrap is a no-op
	require.NoError(t, applyBootstrapOwner(reg.(*registry.Registry), cfg.Registry.BootstrapOwner))

	store, err := c.Get(ServiceStore)
	require.NoError(t, err)
	require.NoError(t, store.(*kvstore.Store).Close())
}

func TestProviderBuildsServers(t *testing.T) {
	c := New()
	provider := NewProvider(c, testConfig(t))
	require.NoError(t, provider.RegisterAll())

	rpcSvc, err := c.Get(ServiceRPCServer)
	require.NoError(t, err)
	assert.IsType(t, &rpc.Server{}, rpcSvc)

	grpcSvc, err := c.Get(ServiceGRPCServer)
	require.NoError(t, err)
	assert.NotNil(t, grpcSvc)
}

func TestProviderGRPCDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.GRPCAddress = ""

	c := New()
	provider := NewProvider(c, cfg)
	require.NoError(t, provider.RegisterAll())

	grpcSvc, err := c.Get(ServiceGRPCServer)
	require.NoError(t, err)
	assert.Nil(t, grpcSvc)
}
