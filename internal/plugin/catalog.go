package plugin

import (
	"fmt"
	"sort"
	"sync"
)

// Catalog holds plugin modules indexed by name.
type Catalog struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		modules: make(map[string]Module),
	}
}

// Add registers m under name.
func (c *Catalog) Add(name string, m Module) error {
	if name == "" {
		return fmt.Errorf("plugin name is empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.modules[name]; exists {
		return fmt.Errorf("plugin %q already registered", name)
	}
	c.modules[name] = m
	return nil
}

// Get retrieves a module by name.
func (c *Catalog) Get(name string) (Module, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.modules[name]
	return m, ok
}

// Names returns registered plugin names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.modules))
	for name := range c.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultCatalog = NewCatalog()

// Register makes a plugin available by name to loaders using the default
// catalog. It is meant to be called from a plugin package's init function
// and panics if name is empty or already registered.
func Register(name string, m Module) {
	if err := defaultCatalog.Add(name, m); err != nil {
		panic("plugin: " + err.Error())
	}
}

// Lookup returns the module registered under name in the default catalog.
func Lookup(name string) (Module, bool) {
	return defaultCatalog.Get(name)
}

// Names lists the plugins compiled into the binary.
func Names() []string {
	return defaultCatalog.Names()
}

// Default returns the process-wide catalog filled by Register.
func Default() *Catalog {
	return defaultCatalog
}
