package abicache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"batchcall/internal/contract"
)

// DefaultCacheSize is the number of parsed descriptors kept in memory
const DefaultCacheSize = 1024

// Cache resolves contract addresses to their interface descriptors.
//
// Lookups hit a parsed-descriptor LRU first, then the persistent store;
// neither touches the network. Resolve additionally falls back to the remote
// registry, honoring a rate-limit delay between lookups. Registered and
// fetched descriptors are written through to the store.
type Cache struct {
	lru      *lru.Cache[common.Address, *contract.Descriptor]
	store    Store
	registry *RegistryClient
	delay    time.Duration
	logger   zerolog.Logger

	lastFetch time.Time
	fetchMu   sync.Mutex
}

// New creates a descriptor cache over the given store.
// registry may be nil, in which case Resolve never goes to the network.
func New(store Store, registry *RegistryClient, delay time.Duration, logger zerolog.Logger) (*Cache, error) {
	cache, err := lru.New[common.Address, *contract.Descriptor](DefaultCacheSize)
	if err != nil {
		return nil, err
	}

	return &Cache{
		lru:      cache,
		store:    store,
		registry: registry,
		delay:    delay,
		logger:   logger.With().Str("component", "abicache").Logger(),
	}, nil
}

// Register persists a descriptor for an address and makes it available to
// later lookups. A store failure propagates to the caller.
func (c *Cache) Register(ctx context.Context, address common.Address, desc *contract.Descriptor) error {
	if desc == nil {
		return fmt.Errorf("nil descriptor for %s", address.Hex())
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.store.Put(address, desc.JSON()); err != nil {
		return fmt.Errorf("failed to register ABI for %s: %w", address.Hex(), err)
	}
	c.lru.Add(address, desc)

	c.logger.Debug().Str("address", address.Hex()).Msg("ABI registered")
	return nil
}

// Lookup returns the descriptor for an address from the LRU or the store.
// It never performs network I/O.
func (c *Cache) Lookup(address common.Address) (*contract.Descriptor, bool) {
	if desc, ok := c.lru.Get(address); ok {
		return desc, true
	}

	data, ok, err := c.store.Get(address)
	if err != nil {
		c.logger.Warn().Err(err).Str("address", address.Hex()).Msg("ABI store read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	desc, err := contract.ParseDescriptor(data)
	if err != nil {
		c.logger.Warn().Err(err).Str("address", address.Hex()).Msg("stored ABI is invalid")
		return nil, false
	}

	c.lru.Add(address, desc)
	return desc, true
}

// Resolve returns the descriptor for an address, consulting the remote
// registry on a local miss. Absence is not an error: an unresolvable address
// simply yields no descriptor.
func (c *Cache) Resolve(ctx context.Context, address common.Address) (*contract.Descriptor, bool) {
	if desc, ok := c.Lookup(address); ok {
		return desc, true
	}
	if c.registry == nil {
		return nil, false
	}

	c.waitRateLimit(ctx)

	data, ok, err := c.registry.FetchABI(ctx, address)
	if err != nil {
		c.logger.Warn().Err(err).Str("address", address.Hex()).Msg("registry lookup failed")
		return nil, false
	}
	if !ok {
		c.logger.Debug().Str("address", address.Hex()).Msg("registry has no ABI")
		return nil, false
	}

	desc, err := contract.ParseDescriptor(data)
	if err != nil {
		c.logger.Warn().Err(err).Str("address", address.Hex()).Msg("registry ABI is invalid")
		return nil, false
	}

	if err := c.store.Put(address, desc.JSON()); err != nil {
		c.logger.Warn().Err(err).Str("address", address.Hex()).Msg("failed to persist fetched ABI")
	}
	c.lru.Add(address, desc)

	c.logger.Debug().Str("address", address.Hex()).Msg("ABI resolved from registry")
	return desc, true
}

// ReadableFields returns the zero-argument read-only method names for a
// cached address, in declaration order. Unknown addresses yield nil.
func (c *Cache) ReadableFields(address common.Address) []string {
	desc, ok := c.Lookup(address)
	if !ok {
		return nil
	}
	return desc.ReadableFields()
}

// waitRateLimit spaces registry lookups by the configured delay
func (c *Cache) waitRateLimit(ctx context.Context) {
	if c.delay <= 0 {
		return
	}

	c.fetchMu.Lock()
	wait := c.delay - time.Since(c.lastFetch)
	c.lastFetch = time.Now().Add(wait)
	c.fetchMu.Unlock()

	if wait <= 0 {
		return
	}
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
