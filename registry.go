package psychics

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// AbilityRegistry maps stable ability keys, such as "psychics.fireball", to the
// factories producing them. Definitions refer to abilities by key.
type AbilityRegistry struct {
	mu        sync.RWMutex
	factories map[string]registryEntry
}

type registryEntry struct {
	factory AbilityFactory
	// active is whether the factory's handlers implement ActiveHandler.
	active bool
}

// NewAbilityRegistry creates an empty registry.
func NewAbilityRegistry() *AbilityRegistry {
	return &AbilityRegistry{factories: make(map[string]registryEntry)}
}

// Register adds a factory under key. It calls f once to learn whether its
// handlers can be cast and discards the handler; loading definitions later
// does not call f again.
func (r *AbilityRegistry) Register(key string, f AbilityFactory) error {
	if key == "" {
		return fmt.Errorf("register ability: empty key")
	}
	if f == nil {
		return fmt.Errorf("register ability %s: nil factory", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[key]; ok {
		return fmt.Errorf("register ability %s: already registered", key)
	}
	_, active := f().(ActiveHandler)
	r.factories[key] = registryEntry{factory: f, active: active}
	return nil
}

// Find resolves a key to its factory. A name starting with "." matches every
// key ending with it, so ".fireball" finds "psychics.fireball" as long as no
// other key ends the same way.
func (r *AbilityRegistry) Find(name string) (string, AbilityFactory, error) {
	key, entry, err := r.find(name)
	return key, entry.factory, err
}

func (r *AbilityRegistry) find(name string) (string, registryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !strings.HasPrefix(name, ".") {
		entry, ok := r.factories[name]
		if !ok {
			return "", registryEntry{}, fmt.Errorf("%w: %s", ErrUnknownAbility, name)
		}
		return name, entry, nil
	}

	var matches []string
	for key := range r.factories {
		if strings.HasSuffix(key, name) {
			matches = append(matches, key)
		}
	}
	switch len(matches) {
	case 0:
		return "", registryEntry{}, fmt.Errorf("%w: %s", ErrUnknownAbility, name)
	case 1:
		return matches[0], r.factories[matches[0]], nil
	}
	slices.Sort(matches)
	return "", registryEntry{}, fmt.Errorf("%w: %s matches %s", ErrAmbiguousAbility, name, strings.Join(matches, ", "))
}

// Keys returns every registered key, sorted.
func (r *AbilityRegistry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.factories))
	for key := range r.factories {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
