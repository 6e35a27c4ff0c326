package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alexisbeaulieu97/devstrap/internal/logger"
)

// Registry maps step types to their plugin implementation.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	log     *logger.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{plugins: make(map[string]Plugin), log: log}
}

// Register adds a plugin under the step type named by its metadata.
func (r *Registry) Register(p Plugin) error {
	if p == nil {
		return fmt.Errorf("plugin is nil")
	}

	meta := p.PluginMetadata()
	if err := meta.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[meta.Name]; exists {
		return fmt.Errorf("plugin '%s' already registered", meta.Name)
	}
	r.plugins[meta.Name] = p
	r.log.Debugf("registered plugin %s", meta)
	return nil
}

// Get returns the plugin for a step type.
func (r *Registry) Get(stepType string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[stepType]
	if !ok {
		return nil, ErrPluginNotFound{Name: stepType}
	}
	return p, nil
}

// Types lists the registered step types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}
