package transport

import (
	"fmt"
	"github.com/ValentinKolb/rconn/rpc/common"
	"github.com/puzpuzpuz/xsync/v3"
	"sync"
)

// Registry is an ordered set of candidate drivers.
// Entries keep their registration order; registering a name again replaces the
// earlier entry in place.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	index   *xsync.MapOf[string, int] // name -> position in entries
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		index: xsync.NewMapOf[string, int](),
	}
}

// defaultRegistry is the process-wide registry used by the package level functions
var defaultRegistry = NewRegistry()

// Register adds an entry to the registry
func (r *Registry) Register(entry Entry) error {
	if entry.Name == "" {
		return fmt.Errorf("driver name must not be empty")
	}
	if entry.New == nil {
		return fmt.Errorf("driver %s has no factory", entry.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if pos, ok := r.index.Load(entry.Name); ok {
		r.entries[pos] = entry
		return nil
	}
	r.entries = append(r.entries, entry)
	r.index.Store(entry.Name, len(r.entries)-1)
	return nil
}

// Drivers returns a copy of the entries in registration order
func (r *Registry) Drivers() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lookup returns the entry registered under name
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, ok := r.index.Load(name)
	if !ok {
		return Entry{}, false
	}
	return r.entries[pos], true
}

// Select returns the last registered entry providing all capabilities in caps
func (r *Registry) Select(caps Capability) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].Capabilities.Has(caps) {
			return r.entries[i], true
		}
	}
	return Entry{}, false
}

// Connect creates a driver by name and connects it.
// An empty name selects the first registered driver.
func (r *Registry) Connect(name string, config common.Config) (IDriver, error) {
	var entry Entry
	if name == "" {
		drivers := r.Drivers()
		if len(drivers) == 0 {
			return nil, fmt.Errorf("no drivers registered")
		}
		entry = drivers[0]
	} else {
		var ok bool
		if entry, ok = r.Lookup(name); !ok {
			return nil, fmt.Errorf("unknown driver %s", name)
		}
	}

	driver := entry.New()
	if err := driver.Connect(config); err != nil {
		return nil, err
	}
	return driver, nil
}

// --------------------------------------------------------------------------
// Process-wide registry
// --------------------------------------------------------------------------

// Register adds an entry to the process-wide registry
func Register(entry Entry) error {
	return defaultRegistry.Register(entry)
}

// Drivers returns the entries of the process-wide registry in registration order
func Drivers() []Entry {
	return defaultRegistry.Drivers()
}

// Lookup returns the entry registered under name in the process-wide registry
func Lookup(name string) (Entry, bool) {
	return defaultRegistry.Lookup(name)
}

// Select returns the last entry of the process-wide registry providing caps
func Select(caps Capability) (Entry, bool) {
	return defaultRegistry.Select(caps)
}

// Connect creates and connects a driver from the process-wide registry
func Connect(name string, config common.Config) (IDriver, error) {
	return defaultRegistry.Connect(name, config)
}
