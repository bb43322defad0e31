package cache

import (
	"slices"
	"sync"

	"github.com/codewandler/typedcache/internal/shard"
)

type RegistryOptions struct {
	Shards int     // number of lock shards, defaults to 16
	Table  Options // template for created tables; Name is set per table
}

// Registry maps names to tables. Tables are created on first use and live
// until they are dropped or the registry is closed.
type Registry struct {
	table  Options
	shards []*registryShard
}

type registryShard struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

func NewRegistry(opts RegistryOptions) *Registry {
	if opts.Shards <= 0 {
		opts.Shards = 16
	}
	r := &Registry{
		table:  opts.Table,
		shards: make([]*registryShard, opts.Shards),
	}
	for i := range r.shards {
		r.shards[i] = &registryShard{tables: make(map[string]*Table)}
	}
	return r
}

func (r *Registry) shard(name string) *registryShard {
	return r.shards[shard.ForKey(name, len(r.shards))]
}

// Cache returns the table with the given name, creating it if needed.
// Concurrent first calls for one name all get the same table.
func (r *Registry) Cache(name string) *Table {
	s := r.shard(name)

	s.mu.RLock()
	t, ok := s.tables[name]
	s.mu.RUnlock()
	if ok {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Double-check after acquiring write lock
	if t, ok := s.tables[name]; ok {
		return t
	}
	opts := r.table
	opts.Name = name
	t = New(opts)
	s.tables[name] = t
	return t
}

// Lookup returns the table with the given name if it exists.
func (r *Registry) Lookup(name string) (*Table, bool) {
	s := r.shard(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	return t, ok
}

// Drop removes the named table from the registry and closes it. It reports
// whether the table existed. Holders of the table can keep using it.
func (r *Registry) Drop(name string) bool {
	s := r.shard(name)
	s.mu.Lock()
	t, ok := s.tables[name]
	delete(s.tables, name)
	s.mu.Unlock()

	if ok {
		t.Close()
	}
	return ok
}

// Names returns the names of all tables in sorted order.
func (r *Registry) Names() []string {
	var names []string
	for _, s := range r.shards {
		s.mu.RLock()
		for name := range s.tables {
			names = append(names, name)
		}
		s.mu.RUnlock()
	}
	slices.Sort(names)
	return names
}

// Close drops all tables.
func (r *Registry) Close() {
	for _, name := range r.Names() {
		r.Drop(name)
	}
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry(RegistryOptions{})
})

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry() }

// Cache returns the table with the given name from the process-wide
// registry, creating it if needed.
func Cache(name string) *Table { return Default().Cache(name) }
