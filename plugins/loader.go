package plugins

import (
	"fmt"
	"sync"

	"github.com/go-lynx/cute/factory"
	"github.com/go-lynx/cute/log"
)

var (
	defaultLoader     *Loader
	defaultLoaderOnce sync.Once
)

// Default returns the process-wide loader plugins add themselves to from
// init functions.
func Default() *Loader {
	defaultLoaderOnce.Do(func() {
		defaultLoader = NewLoader()
	})
	return defaultLoader
}

// Loader holds the known plugins in the order they were added.
type Loader struct {
	mu      sync.RWMutex
	plugins []Plugin
	byID    map[string]Plugin
}

// NewLoader creates an empty loader.
func NewLoader() *Loader {
	return &Loader{byID: make(map[string]Plugin)}
}

// Add makes p known to the loader.
func (l *Loader) Add(p Plugin) error {
	if p == nil || p.ID() == "" {
		return ErrInvalidPluginID
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.byID[p.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrPluginAlreadyExists, p.ID())
	}
	l.byID[p.ID()] = p
	l.plugins = append(l.plugins, p)
	return nil
}

// Get returns the plugin with the given ID.
func (l *Loader) Get(id string) (Plugin, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.byID[id]
	return p, ok
}

// IDs lists the known plugin IDs in the order they were added.
func (l *Loader) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, len(l.plugins))
	for i, p := range l.plugins {
		ids[i] = p.ID()
	}
	return ids
}

// Prepare registers the components of the enabled plugins into r. An empty
// enabled list enables every known plugin. A plugin that is unknown or fails
// to register is logged and skipped; the prepared plugins are returned and an
// error is reported only when plugins were requested but none are known.
func (l *Loader) Prepare(r *factory.Registry, enabled []string) ([]Plugin, error) {
	l.mu.RLock()
	candidates := make([]Plugin, 0, len(l.plugins))
	if len(enabled) == 0 {
		candidates = append(candidates, l.plugins...)
	}
	total := len(l.plugins)
	l.mu.RUnlock()

	if total == 0 {
		if len(enabled) > 0 {
			log.Warnf("plugins %v enabled but no plugins registered in loader", enabled)
			return nil, ErrNoPlugins
		}
		return nil, nil
	}

	var failCount int
	for _, id := range enabled {
		p, ok := l.Get(id)
		if !ok {
			log.Warnf("prepare plugin %s failed: %v", id, ErrPluginNotFound)
			failCount++
			continue
		}
		candidates = append(candidates, p)
	}

	prepared := make([]Plugin, 0, len(candidates))
	for _, p := range candidates {
		if err := register(p, r); err != nil {
			log.Warnf("prepare plugin %s (%s) failed: %v", p.Name(), p.ID(), err)
			failCount++
			continue
		}
		log.Debugf("plugin %s (%s) registered its components", p.Name(), p.ID())
		prepared = append(prepared, p)
	}

	if failCount > 0 {
		log.Warnf("plugins prepared summary: success=%d, failed=%d", len(prepared), failCount)
	} else {
		log.Infof("successfully prepared %d plugins", len(prepared))
	}
	return prepared, nil
}

func register(p Plugin, r *factory.Registry) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = NewPluginError(p.ID(), "register", fmt.Errorf("panic: %v", rec))
		}
	}()
	if err := p.Register(r); err != nil {
		return NewPluginError(p.ID(), "register", err)
	}
	return nil
}
