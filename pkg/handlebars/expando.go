package handlebars

import (
	"sort"
	"sync"
)

// Expando is a dynamic object whose members are added at run time. It
// resolves members through MemberResolver rather than reflection.
//
//	person := handlebars.NewExpando()
//	person.Set("Forename", "Matthew")
//	out, _ := handlebars.CompileAndRun("greeting", "Hi {{Forename}}", person)
type Expando struct {
	mu      sync.RWMutex
	members map[string]any
}

// NewExpando creates an empty dynamic object.
func NewExpando() *Expando {
	return &Expando{members: make(map[string]any)}
}

// Set adds or replaces the member called name.
func (e *Expando) Set(name string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.members == nil {
		e.members = make(map[string]any)
	}
	e.members[name] = value
}

// Get returns the member called name.
func (e *Expando) Get(name string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.members[name]
	return v, ok
}

// Delete removes the member called name.
func (e *Expando) Delete(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.members, name)
}

// ResolveMember implements MemberResolver.
func (e *Expando) ResolveMember(name string) (any, bool) {
	return e.Get(name)
}

// MemberNames returns the member names in sorted order.
func (e *Expando) MemberNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.members))
	for name := range e.members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
