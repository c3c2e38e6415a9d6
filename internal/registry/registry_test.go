package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricereg/priceregd/internal/storage/kvstore"
	"github.com/pricereg/priceregd/internal/storage/kvstore/compression"
	"github.com/pricereg/priceregd/internal/types"
)

func testStore(t *testing.T) *kvstore.Store {
	t.Helper()

	backend := kvstore.NewMemoryBackend()
	require.NoError(t, backend.Open(true))
	t.Cleanup(func() { backend.Close() })

	c, err := compression.Get("none")
	require.NoError(t, err)

	store, err := kvstore.NewStore(backend, c, 0)
	require.NoError(t, err)
	return store
}

func testRegistry(t *testing.T) (*Registry, *ManualClock) {
	t.Helper()
	clock := NewManualClock(1_700_000_000)
	return New(testStore(t), clock), clock
}

func account(t *testing.T, b byte) types.AccountID {
	t.Helper()
	var id types.AccountID
	for i := range id {
		id[i] = b
	}
	require.False(t, id.IsSentinel())
	return id
}

func asset(t *testing.T, sym string) types.AssetID {
	t.Helper()
	id, err := types.AssetIDFromString(sym)
	require.NoError(t, err)
	return id
}

func TestOwnerUninitialized(t *testing.T) {
	r, _ := testRegistry(t)

	owner, err := r.Owner()
	require.NoError(t, err)

	addr, ok := owner.Address()
	require.True(t, ok)
	assert.True(t, addr.IsSentinel(), "uninitialized registry must report the sentinel owner")
}

func TestInitializeExactlyOnce(t *testing.T) {
	r, _ := testRegistry(t)
	alice := account(t, 0xA1)
	bob := account(t, 0xB2)

	require.NoError(t, r.Initialize(alice))

	// Every subsequent attempt fails and leaves the owner unchanged.
	assert.ErrorIs(t, r.Initialize(bob), ErrOwnerAlreadyInitialized)
	assert.ErrorIs(t, r.Initialize(alice), ErrOwnerAlreadyInitialized)

	owner, err := r.Owner()
	require.NoError(t, err)
	assert.Equal(t, AddressCaller(alice), owner)
}

func TestInitializeSentinelLoophole(t *testing.T) {
	// Initializing with the sentinel is accepted and logically re-enters
	// the uninitialized state, so a second initialize succeeds. Inherited
	// behavior, kept on purpose.
	r, _ := testRegistry(t)

	require.NoError(t, r.Initialize(types.SentinelAccount))
	assert.NoError(t, r.Initialize(account(t, 0xA1)))
}

func TestSetPriceRequiresOwner(t *testing.T) {
	r, _ := testRegistry(t)
	alice := account(t, 0xA1)
	mallory := account(t, 0xBB)
	xrp := asset(t, "XRP")

	require.NoError(t, r.Initialize(alice))

	err := r.SetPrice(AddressCaller(mallory), xrp, 100)
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.False(t, IsAbort(err))

	// The denied write left no trace.
	rec, err := r.GetPrice(xrp)
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, r.SetPrice(AddressCaller(alice), xrp, 100))
	rec, err = r.GetPrice(xrp)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint64(100), rec.Price)
}

func TestSetPriceUninitializedDenied(t *testing.T) {
	r, _ := testRegistry(t)

	err := r.SetPrice(AddressCaller(account(t, 0xA1)), asset(t, "XRP"), 100)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestContractCallerAborts(t *testing.T) {
	r, _ := testRegistry(t)
	alice := account(t, 0xA1)
	require.NoError(t, r.Initialize(alice))

	contract := ContractCaller([32]byte{0xC0})

	err := r.SetPrice(contract, asset(t, "XRP"), 100)
	require.Error(t, err)
	assert.True(t, IsAbort(err), "contract callers must abort, not deny")
	assert.ErrorIs(t, err, ErrCallerNotAddress)
	assert.NotErrorIs(t, err, ErrAccessDenied)

	err = r.SetPrices(contract, []PricePair{{Asset: asset(t, "XRP"), Price: 1}})
	assert.True(t, IsAbort(err))

	// Aborted batch wrote nothing.
	rec, err := r.GetPrice(asset(t, "XRP"))
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestGetPriceMissingKey(t *testing.T) {
	r, _ := testRegistry(t)

	rec, err := r.GetPrice(asset(t, "NEVER"))
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSetPriceStampsClock(t *testing.T) {
	r, clock := testRegistry(t)
	alice := account(t, 0xA1)
	xrp := asset(t, "XRP")
	require.NoError(t, r.Initialize(alice))

	t1 := clock.Now()
	require.NoError(t, r.SetPrice(AddressCaller(alice), xrp, 740))

	rec, err := r.GetPrice(xrp)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, xrp, rec.Asset)
	assert.Equal(t, uint64(740), rec.Price)
	assert.Equal(t, t1, rec.LastUpdate)
}

func TestOverwriteDiscardsPriorRecord(t *testing.T) {
	r, clock := testRegistry(t)
	alice := account(t, 0xA1)
	xrp := asset(t, "XRP")
	require.NoError(t, r.Initialize(alice))

	require.NoError(t, r.SetPrice(AddressCaller(alice), xrp, 100))
	clock.Advance(60)
	require.NoError(t, r.SetPrice(AddressCaller(alice), xrp, 200))

	rec, err := r.GetPrice(xrp)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint64(200), rec.Price)
	assert.Equal(t, clock.Now(), rec.LastUpdate)
}

func TestBatchSharesOneTimestamp(t *testing.T) {
	r, clock := testRegistry(t)
	alice := account(t, 0xA1)
	xrp, btc := asset(t, "XRP"), asset(t, "BTC")
	require.NoError(t, r.Initialize(alice))

	t1 := clock.Now()
	require.NoError(t, r.SetPrices(AddressCaller(alice), []PricePair{
		{Asset: xrp, Price: 10},
		{Asset: btc, Price: 20},
	}))

	recX, err := r.GetPrice(xrp)
	require.NoError(t, err)
	recB, err := r.GetPrice(btc)
	require.NoError(t, err)
	require.NotNil(t, recX)
	require.NotNil(t, recB)
	assert.Equal(t, recX.LastUpdate, recB.LastUpdate)
	assert.Equal(t, t1, recX.LastUpdate)
}

func TestBatchDuplicateLastWins(t *testing.T) {
	r, _ := testRegistry(t)
	alice := account(t, 0xA1)
	xrp := asset(t, "XRP")
	require.NoError(t, r.Initialize(alice))

	require.NoError(t, r.SetPrices(AddressCaller(alice), []PricePair{
		{Asset: xrp, Price: 10},
		{Asset: xrp, Price: 20},
	}))

	rec, err := r.GetPrice(xrp)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint64(20), rec.Price)
}

func TestBatchDeniedWritesNothing(t *testing.T) {
	r, _ := testRegistry(t)
	alice := account(t, 0xA1)
	require.NoError(t, r.Initialize(alice))

	err := r.SetPrices(AddressCaller(account(t, 0xB2)), []PricePair{
		{Asset: asset(t, "XRP"), Price: 10},
		{Asset: asset(t, "BTC"), Price: 20},
	})
	assert.ErrorIs(t, err, ErrAccessDenied)

	for _, sym := range []string{"XRP", "BTC"} {
		rec, err := r.GetPrice(asset(t, sym))
		require.NoError(t, err)
		assert.Nil(t, rec)
	}
}

func TestEmptyBatch(t *testing.T) {
	r, _ := testRegistry(t)
	alice := account(t, 0xA1)
	require.NoError(t, r.Initialize(alice))

	assert.NoError(t, r.SetPrices(AddressCaller(alice), nil))
}

func TestEndToEndScenario(t *testing.T) {
	r, clock := testRegistry(t)
	owner := account(t, 0x01)
	nonOwner := account(t, 0x02)
	a, b := asset(t, "AAA"), asset(t, "BBB")

	// Owner initializes.
	require.NoError(t, r.Initialize(owner))

	// Non-owner write fails and leaves A absent.
	err := r.SetPrice(AddressCaller(nonOwner), a, 100)
	assert.ErrorIs(t, err, ErrAccessDenied)
	rec, err := r.GetPrice(a)
	require.NoError(t, err)
	assert.Nil(t, rec)

	// Owner writes A at t1.
	t1 := clock.Now()
	require.NoError(t, r.SetPrice(AddressCaller(owner), a, 100))
	rec, err = r.GetPrice(a)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, PriceRecord{Asset: a, Price: 100, LastUpdate: t1}, *rec)

	// Owner batches A and B at t2.
	clock.Advance(30)
	t2 := clock.Now()
	require.NoError(t, r.SetPrices(AddressCaller(owner), []PricePair{
		{Asset: a, Price: 200},
		{Asset: b, Price: 50},
	}))

	rec, err = r.GetPrice(a)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, PriceRecord{Asset: a, Price: 200, LastUpdate: t2}, *rec)

	rec, err = r.GetPrice(b)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, PriceRecord{Asset: b, Price: 50, LastUpdate: t2}, *rec)
}

func TestStatePersistsAcrossInstances(t *testing.T) {
	store := testStore(t)
	clock := NewManualClock(1_700_000_000)
	alice := account(t, 0xA1)
	xrp := asset(t, "XRP")

	r1 := New(store, clock)
	require.NoError(t, r1.Initialize(alice))
	require.NoError(t, r1.SetPrice(AddressCaller(alice), xrp, 740))

	// A second registry over the same store sees the same state.
	r2 := New(store, clock)
	owner, err := r2.Owner()
	require.NoError(t, err)
	assert.Equal(t, AddressCaller(alice), owner)

	assert.ErrorIs(t, r2.Initialize(account(t, 0xB2)), ErrOwnerAlreadyInitialized)

	rec, err := r2.GetPrice(xrp)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint64(740), rec.Price)
}

func TestRecordCodecRoundTrip(t *testing.T) {
	rec := &PriceRecord{
		Asset:      asset(t, "XRPUSD"),
		Price:      987_654_321,
		LastUpdate: 1_700_000_123,
	}

	data, err := encodeRecord(rec)
	require.NoError(t, err)

	got, err := decodeRecord(data)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestManualClockNeverRegresses(t *testing.T) {
	clock := NewManualClock(100)
	clock.Set(50)
	assert.Equal(t, uint64(100), clock.Now())
	clock.Set(150)
	assert.Equal(t, uint64(150), clock.Now())
	clock.Advance(10)
	assert.Equal(t, uint64(160), clock.Now())
}

func TestSystemClockMonotonic(t *testing.T) {
	clock := NewSystemClock()
	prev := clock.Now()
	for i := 0; i < 100; i++ {
		now := clock.Now()
		assert.GreaterOrEqual(t, now, prev)
		prev = now
	}
}
