// Package factory holds the component registration table.
//
// Components register a descriptor, usually from an init function, and the
// lifecycle manager scans the table by namespace. No runtime type scanning is
// involved: the table is the single source of truth.
package factory

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-lynx/cute/beans"
)

// ErrDuplicateComponent is returned when a type identity is registered twice.
var ErrDuplicateComponent = errors.New("component already registered")

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry used for init-time registration.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Registry is the component registration table.
type Registry struct {
	mu sync.RWMutex
	// descriptors in registration order, which is the scan order
	descriptors []beans.Descriptor
	// byType indexes descriptors by type identity
	byType map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[string]int),
	}
}

// Register adds a component descriptor. Validation of the descriptor is
// deferred to Scan so that init-time registration never fails on content.
func (r *Registry) Register(d beans.Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// descriptors without a type identity are kept unindexed for Scan to reject
	if d.TypeID != "" {
		if _, exists := r.byType[d.TypeID]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateComponent, d.TypeID)
		}
		r.byType[d.TypeID] = len(r.descriptors)
	}
	d = d.Clone()
	if d.Namespace == "" {
		d.Namespace = d.PackagePath()
	}
	r.descriptors = append(r.descriptors, d)
	return nil
}

// MustRegister registers d and panics on a duplicate type identity.
func (r *Registry) MustRegister(d beans.Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Unregister removes the component with the given type identity.
func (r *Registry) Unregister(typeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byType[typeID]
	if !ok {
		return
	}
	r.descriptors = append(r.descriptors[:idx], r.descriptors[idx+1:]...)
	delete(r.byType, typeID)
	for i := idx; i < len(r.descriptors); i++ {
		if id := r.descriptors[i].TypeID; id != "" {
			r.byType[id] = i
		}
	}
}

// Has reports whether typeID is registered.
func (r *Registry) Has(typeID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byType[typeID]
	return ok
}

// Len returns the number of registered components.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descriptors)
}

// Scan returns the descriptors of every component living in one of the given
// namespaces, in registration order, one per type identity. With no
// namespaces, or an empty one, every component matches.
//
// Descriptors without a type identity or factory fail the whole scan.
func (r *Registry) Scan(namespaces ...string) ([]beans.Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]beans.Descriptor, 0, len(r.descriptors))
	var invalid []string
	for _, d := range r.descriptors {
		if !inNamespaces(d.Namespace, namespaces) {
			continue
		}
		switch {
		case d.TypeID == "":
			invalid = append(invalid, fmt.Sprintf("component %q has no type identity", d.Name))
			continue
		case d.Factory == nil:
			invalid = append(invalid, fmt.Sprintf("component %s has no factory", d.TypeID))
			continue
		}
		out = append(out, d.Clone())
	}
	if len(invalid) > 0 {
		return nil, &beans.Error{
			Kind:  beans.KindScan,
			Cause: errors.New(strings.Join(invalid, "; ")),
		}
	}
	return out, nil
}

func inNamespaces(ns string, namespaces []string) bool {
	if len(namespaces) == 0 {
		return true
	}
	for _, want := range namespaces {
		if InNamespace(ns, want) {
			return true
		}
	}
	return false
}

// InNamespace reports whether the package path ns equals want or is nested
// under it. An empty want matches everything.
func InNamespace(ns, want string) bool {
	want = strings.TrimSuffix(want, "/")
	if want == "" {
		return true
	}
	return ns == want || strings.HasPrefix(ns, want+"/")
}
