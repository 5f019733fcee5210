package builder

import (
	"fmt"
	"sort"
	"sync"
)

// registry.go - target registry. Builders register from init functions;
// new targets plug in without touching the pipeline.

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func() Builder)
)

// Register adds a builder factory under a target name.
func Register(name string, factory func() Builder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get constructs the builder for a target name.
func Get(name string) (Builder, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownTargetError{Target: name, Available: List()}
	}
	return factory(), nil
}

// List returns all registered target names, sorted.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks whether a target name is known.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// UnknownTargetError is returned when an unregistered target is requested.
type UnknownTargetError struct {
	Target    string
	Available []string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("unknown build target %q\nAvailable targets: %v\nHint: check the target setting in leapform.yaml", e.Target, e.Available)
}
