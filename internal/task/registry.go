package task

import (
	"sort"
	"sync"
)

// Reply is the result of one task operation: an arbitrary value plus an
// optional location hint for the front end.
type Reply struct {
	Value    any
	Location string
}

// Op is one operation exposed at the transport boundary.
type Op func(payload map[string]any) (Reply, error)

var registry = struct {
	sync.RWMutex
	controllers map[string]*Controller
	ops         map[string]Op
}{
	controllers: make(map[string]*Controller),
	ops:         make(map[string]Op),
}

// Register records a controller under its namespace together with its
// operations (the base operations plus whatever extra the task adds). A
// namespace is registered once; re-registering returns the first controller
// unchanged so that every task behaves as a singleton.
func Register(c *Controller, extra map[string]Op) *Controller {
	registry.Lock()
	defer registry.Unlock()
	if existing, ok := registry.controllers[c.Namespace]; ok {
		return existing
	}
	registry.controllers[c.Namespace] = c
	for name, op := range c.baseOps() {
		registry.ops[c.Namespace+"_"+name] = op
	}
	for name, op := range extra {
		registry.ops[c.Namespace+"_"+name] = op
	}
	return c
}

// Lookup returns the controller registered under the namespace.
func Lookup(namespace string) (*Controller, bool) {
	registry.RLock()
	defer registry.RUnlock()
	c, ok := registry.controllers[namespace]
	return c, ok
}

// Resolve returns the operation registered under the full namespaced name,
// e.g. "lsbqe_new".
func Resolve(name string) (Op, bool) {
	registry.RLock()
	defer registry.RUnlock()
	op, ok := registry.ops[name]
	return op, ok
}

// OpNames returns every registered operation name, sorted.
func OpNames() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.ops))
	for name := range registry.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
