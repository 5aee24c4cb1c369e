package adapters

import (
	"github.com/brettbedarf/stagefs"
	"github.com/brettbedarf/stagefs/config"
	"github.com/brettbedarf/stagefs/internal/util"
)

// NOTE: If build bloat becomes a concern for unused stores
// look into build tags or nested packages registered from init()

type BuiltInStoreType = string

const (
	MemoryStoreType BuiltInStoreType = "memory"
	DiskStoreType   BuiltInStoreType = "disk"
)

// RegisterBuiltins registers all built-in stores by default
// or only the specific ones if keys are provided
func RegisterBuiltins(r *Registry, stores ...BuiltInStoreType) {
	if len(stores) == 0 {
		// Include all built-in stores here when adding implementations
		stores = append(stores, MemoryStoreType, DiskStoreType)
	}

	for _, key := range stores {
		switch key {
		case MemoryStoreType:
			r.Register(key, ProviderFunc(newMemoryStoreFromConfig))
		case DiskStoreType:
			r.Register(key, ProviderFunc(newDiskStoreFromConfig))
		}
	}
}

func newMemoryStoreFromConfig(cfg *config.StoreConfig) (stagefs.BackingStore, error) {
	return NewMemoryStore(MemoryStoreOptions{
		CaseSensitive:    util.ValueOrDefault(cfg.CaseSensitive, true),
		CurrentDirectory: cfg.CurrentDirectory,
	}), nil
}

func newDiskStoreFromConfig(cfg *config.StoreConfig) (stagefs.BackingStore, error) {
	return NewDiskStore(cfg.Root, DiskStoreOptions{
		CaseSensitive:    cfg.CaseSensitive,
		CurrentDirectory: cfg.CurrentDirectory,
	})
}
