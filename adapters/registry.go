package adapters

import (
	"fmt"

	"github.com/brettbedarf/stagefs"
	"github.com/brettbedarf/stagefs/config"
	"github.com/puzpuzpuz/xsync/v4"
)

// Registry maps store type keys to providers. It is safe for concurrent use.
type Registry struct {
	providers *xsync.Map[string, stagefs.StoreProvider]
}

func NewRegistry() *Registry {
	return &Registry{providers: xsync.NewMap[string, stagefs.StoreProvider]()}
}

// Register ties a provider to a store type key and should be called for each
// store type during app init. The first registration for a key wins.
func (r *Registry) Register(storeType string, provider stagefs.StoreProvider) {
	r.providers.LoadOrStore(storeType, provider)
}

// GetProvider returns the provider registered for storeType
func (r *Registry) GetProvider(storeType string) (stagefs.StoreProvider, error) {
	p, ok := r.providers.Load(storeType)
	if !ok {
		return nil, fmt.Errorf("no store provider for %q", storeType)
	}
	return p, nil
}

// NewStore picks the provider from cfg.Type and builds the store with it.
// All expected store types should be registered with [Registry.Register]
// before calling this function.
func (r *Registry) NewStore(cfg *config.StoreConfig) (stagefs.BackingStore, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("store config is missing a type")
	}
	p, err := r.GetProvider(cfg.Type)
	if err != nil {
		return nil, err
	}
	return p.NewStore(cfg)
}

// ProviderFunc adapts a plain function to [stagefs.StoreProvider]
type ProviderFunc func(cfg *config.StoreConfig) (stagefs.BackingStore, error)

func (f ProviderFunc) NewStore(cfg *config.StoreConfig) (stagefs.BackingStore, error) {
	return f(cfg)
}
