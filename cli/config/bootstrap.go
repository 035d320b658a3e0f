package config

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/justapithecus/pharos/storage"
	"github.com/justapithecus/pharos/types"
)

// Bootstrap seeds an in-memory store with the pools and proxies declared
// in the config file. Pools are created in sorted name order so repeated
// bootstraps of the same file produce the same layout.
func (c *Config) Bootstrap() (*storage.MemoryStore, error) {
	store := storage.NewMemoryStore()

	for _, name := range c.PoolNames() {
		poolCfg := c.Pools[name]

		pool := types.Pool{
			ID:          uuid.New(),
			Name:        name,
			Description: poolCfg.Description,
		}
		if err := store.AddPool(pool); err != nil {
			return nil, fmt.Errorf("bootstrap pool %q: %w", name, err)
		}

		if poolCfg.Strategy != "" {
			if _, err := types.ParseStrategy(poolCfg.Strategy); err != nil {
				return nil, fmt.Errorf("bootstrap pool %q: %w", name, err)
			}
		}

		for i := range poolCfg.Proxies {
			proxy, err := poolCfg.Proxies[i].Proxy()
			if err != nil {
				return nil, fmt.Errorf("bootstrap pool %q: %w", name, err)
			}
			proxy.PoolID = pool.ID
			if err := store.AddProxy(proxy); err != nil {
				return nil, fmt.Errorf("bootstrap pool %q: %w", name, err)
			}
		}
	}

	return store, nil
}
