package handlebars

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
)

// PartialResolver resolves a partial name to its compiled template. A missing
// partial is reported with an error wrapping ErrPartialNotFound.
type PartialResolver interface {
	ResolvePartial(name string) (*Template, error)
}

// PartialResolverFunc adapts a function to PartialResolver.
type PartialResolverFunc func(name string) (*Template, error)

func (f PartialResolverFunc) ResolvePartial(name string) (*Template, error) {
	return f(name)
}

// PartialExtensions are the file extensions LoadDir treats as partials.
var PartialExtensions = []string{".hbs", ".handlebars"}

// partialEntry holds a registered partial. The template is compiled at most
// once, on first use.
type partialEntry struct {
	name   string
	source string
	once   sync.Once
	tmpl   *Template
	err    error
}

func (e *partialEntry) compile() (*Template, error) {
	e.once.Do(func() {
		logger := GetLogger()
		if logger.IsDebugMode() {
			logger.WithField("partial", e.name).Debug("Compiling partial on first use")
		}
		e.tmpl, e.err = Compile(e.name, e.source)
	})
	return e.tmpl, e.err
}

// PartialRegistry is a concurrency-safe PartialResolver holding partial
// source text by name and compiling each partial lazily.
type PartialRegistry struct {
	mu      sync.RWMutex
	entries map[string]*partialEntry
}

// NewPartialRegistry creates an empty registry.
func NewPartialRegistry() *PartialRegistry {
	return &PartialRegistry{
		entries: make(map[string]*partialEntry),
	}
}

// Register adds or replaces the partial called name.
func (r *PartialRegistry) Register(name, text string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("partial name cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = &partialEntry{name: name, source: text}
	return nil
}

// RegisterTemplate adds or replaces a partial that is already compiled. The
// partial is registered under the template's name.
func (r *PartialRegistry) RegisterTemplate(tmpl *Template) error {
	if tmpl == nil || strings.TrimSpace(tmpl.name) == "" {
		return fmt.Errorf("partial template must have a name")
	}
	entry := &partialEntry{name: tmpl.name, source: tmpl.source, tmpl: tmpl}
	entry.once.Do(func() {})

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[tmpl.name] = entry
	return nil
}

// ResolvePartial returns the compiled partial called name, compiling it on
// first use.
func (r *PartialRegistry) ResolvePartial(name string) (*Template, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPartialNotFound, name)
	}
	return entry.compile()
}

// Has reports whether a partial called name is registered.
func (r *PartialRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Remove unregisters the partial called name.
func (r *PartialRegistry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// Names returns the registered partial names in sorted order.
func (r *PartialRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CompileAll compiles every registered partial and reports all failures.
func (r *PartialRegistry) CompileAll() error {
	errs := NewMultiError()
	for _, name := range r.Names() {
		if _, err := r.ResolvePartial(name); err != nil {
			errs.Add(err)
		}
	}
	return errs.Err()
}

// LoadDir registers every partial file under dir. A file's partial name is
// its slash-separated path relative to dir without the extension, so
// dir/shared/header.hbs becomes "shared/header".
func (r *PartialRegistry) LoadDir(dir string) error {
	return r.LoadFS(os.DirFS(dir))
}

// LoadFS registers every partial file in fsys, named as in LoadDir.
func (r *PartialRegistry) LoadFS(fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := path.Ext(p)
		if !isPartialExtension(ext) {
			return nil
		}
		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read partial %s: %w", p, err)
		}
		return r.Register(strings.TrimSuffix(p, ext), string(content))
	})
}

func isPartialExtension(ext string) bool {
	for _, candidate := range PartialExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}
