// Package registry implements the authenticated key-value price registry: a
// single owner, set exactly once, publishes per-asset price quotes that any
// reader can query. All state lives in a kvstore.Store handle owned by one
// Registry instance; there are no package-level globals.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pricereg/priceregd/internal/storage/kvstore"
	"github.com/pricereg/priceregd/internal/types"
)

// Registry holds the owner identity and the asset-to-price mapping.
//
// Every operation runs to completion under the registry mutex, reproducing
// the serialized-call discipline of the host environment: no operation
// observes another mid-flight, and a failed call leaves state untouched.
type Registry struct {
	mu    sync.RWMutex
	store *kvstore.Store
	clock Clock
}

// New creates a registry over the given store and clock.
func New(store *kvstore.Store, clock Clock) *Registry {
	return &Registry{
		store: store,
		clock: clock,
	}
}

// Owner returns the current owner wrapped as a caller identity so hosts can
// compare it against resolved callers. When the registry is uninitialized it
// returns the sentinel address wrapped the same way; hosts must treat that
// as "no owner" rather than a valid account.
func (r *Registry) Owner() (Caller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owner, err := r.loadOwner()
	if err != nil {
		return Caller{}, err
	}
	return AddressCaller(owner), nil
}

// Initialize sets the owner. It succeeds at most once per registry lifetime:
// any call made while the stored owner is non-sentinel fails with
// ErrOwnerAlreadyInitialized, regardless of argument.
//
// The incoming address is deliberately not checked against the sentinel;
// initializing with the sentinel re-enters the uninitialized state. That
// loophole is inherited behavior, kept rather than silently hardened.
func (r *Registry) Initialize(owner types.AccountID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.loadOwner()
	if err != nil {
		return err
	}
	if !current.IsSentinel() {
		return ErrOwnerAlreadyInitialized
	}

	if err := r.store.Put(ownerKey, owner[:]); err != nil {
		return fmt.Errorf("failed to persist owner: %w", err)
	}
	return nil
}

// SetPrice writes one quote. The caller must resolve to the stored owner;
// the record is stamped with the clock's current time.
func (r *Registry) SetPrice(caller Caller, asset types.AssetID, price uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.authorize(caller); err != nil {
		return err
	}

	rec := PriceRecord{
		Asset:      asset,
		Price:      price,
		LastUpdate: r.clock.Now(),
	}
	value, err := encodeRecord(&rec)
	if err != nil {
		return err
	}

	if err := r.store.Put(priceKey(asset), value); err != nil {
		return fmt.Errorf("failed to persist price for %s: %w", asset, err)
	}
	return nil
}

// SetPrices writes a batch of quotes. Authorization is checked once, before
// any write, and the clock is read once: every record in the batch shares
// the same LastUpdate. Duplicate assets within the batch resolve in input
// order, so the last occurrence wins. The batch commits through a single
// backend write.
func (r *Registry) SetPrices(caller Caller, pairs []PricePair) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.authorize(caller); err != nil {
		return err
	}
	if len(pairs) == 0 {
		return nil
	}

	now := r.clock.Now()

	index := make(map[types.AssetID]int, len(pairs))
	items := make([]kvstore.Item, 0, len(pairs))
	for _, pair := range pairs {
		rec := PriceRecord{
			Asset:      pair.Asset,
			Price:      pair.Price,
			LastUpdate: now,
		}
		value, err := encodeRecord(&rec)
		if err != nil {
			return err
		}
		if i, seen := index[pair.Asset]; seen {
			items[i].Value = value
			continue
		}
		index[pair.Asset] = len(items)
		items = append(items, kvstore.Item{Key: priceKey(pair.Asset), Value: value})
	}

	if err := r.store.PutBatch(items); err != nil {
		return fmt.Errorf("failed to persist price batch: %w", err)
	}
	return nil
}

// GetPrice returns the stored record for asset, or nil when no record has
// ever been written for it. No authorization is required.
func (r *Registry) GetPrice(asset types.AssetID) (*PriceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, err := r.store.Get(priceKey(asset))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord(value)
}

// authorize gates the write operations. A contract-shaped caller aborts the
// whole call unconditionally; an address-shaped caller that is not the
// stored owner raises the catchable ErrAccessDenied. Both are decided before
// any mutation.
func (r *Registry) authorize(caller Caller) error {
	addr, ok := caller.Address()
	if !ok {
		return NewAbort(ErrCallerNotAddress)
	}

	owner, err := r.loadOwner()
	if err != nil {
		return err
	}
	if owner.IsSentinel() || addr != owner {
		return ErrAccessDenied
	}
	return nil
}

// loadOwner reads the stored owner, mapping "never written" to the sentinel.
func (r *Registry) loadOwner() (types.AccountID, error) {
	value, err := r.store.Get(ownerKey)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return types.SentinelAccount, nil
		}
		return types.AccountID{}, err
	}
	if len(value) != len(types.AccountID{}) {
		return types.AccountID{}, fmt.Errorf("corrupt owner entry: %d bytes", len(value))
	}

	var owner types.AccountID
	copy(owner[:], value)
	return owner, nil
}
