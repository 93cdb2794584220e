package channel

import (
	"fmt"
	"sync"

	"github.com/ryanreadbooks/tokkichat/channel/adapter"
	"github.com/ryanreadbooks/tokkichat/channel/model"
	"github.com/ryanreadbooks/tokkichat/pkg/xmap"
)

// Bus keeps the adapters available to this process, keyed by wire type.
type Bus struct {
	mu       sync.RWMutex
	adapters map[model.Type]adapter.Adapter
}

func NewBus() *Bus {
	return &Bus{
		adapters: make(map[model.Type]adapter.Adapter),
	}
}

func (b *Bus) Register(a adapter.Adapter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.adapters[a.Type()] = a
}

func (b *Bus) Get(typ model.Type) (adapter.Adapter, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.adapters[typ]
	if !ok {
		return nil, fmt.Errorf("no adapter for transport %q, available: %v", typ, b.types())
	}
	return a, nil
}

func (b *Bus) Types() []model.Type {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.types()
}

func (b *Bus) types() []model.Type {
	return xmap.SortedKeys(b.adapters)
}

// Channel opens a Channel over the adapter registered for typ.
func (b *Bus) Channel(typ model.Type, opts ...Option) (*Channel, error) {
	a, err := b.Get(typ)
	if err != nil {
		return nil, err
	}
	return New(a, opts...), nil
}
