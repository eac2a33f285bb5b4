package handlebars

import (
	"fmt"
	"os"
	"time"
)

// Engine compiles templates, keeps them by name and renders them. It owns a
// partial registry that every render consults. An Engine is safe for
// concurrent use.
type Engine struct {
	config   *Config
	cache    *TemplateCache
	partials *PartialRegistry
	resolver PartialResolver
	logger   *Logger
}

// New creates a new engine with the global configuration.
func New() *Engine {
	return NewWithConfig(GetGlobalConfig())
}

// NewWithConfig creates a new engine with a custom configuration. Unset
// fields take their default values.
func NewWithConfig(config *Config) *Engine {
	config = NewConfigWithDefaults(config)
	e := &Engine{
		config:   config,
		partials: NewPartialRegistry(),
	}
	e.resolver = e.partials
	e.resetCache()
	return e
}

// Option represents a configuration option for the engine.
type Option func(*Engine)

// WithConfig returns an option that sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = NewConfigWithDefaults(config)
		e.resetCache()
	}
}

// WithCache returns an option that bounds the number of templates kept by
// name and how long they live. Without it an engine keeps every compiled
// template until Remove or ClearCache.
func WithCache(maxSize int, ttl time.Duration) Option {
	return func(e *Engine) {
		e.config.CacheMaxSize = maxSize
		e.config.CacheTTL = ttl
		e.resetCache()
	}
}

// WithPartials returns an option that resolves partials through resolver
// before falling back to partials registered on the engine.
func WithPartials(resolver PartialResolver) Option {
	return func(e *Engine) {
		e.resolver = chainResolver{resolver, e.partials}
	}
}

// WithLogger returns an option that sets the logger used for renders.
func WithLogger(logger *Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewWithOptions creates a new engine with the specified options.
func NewWithOptions(opts ...Option) *Engine {
	engine := New()
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

func (e *Engine) resetCache() {
	e.cache = NewTemplateCacheWithConfig(CacheConfig{
		MaxSize: e.config.CacheMaxSize,
		TTL:     e.config.CacheTTL,
	})
}

// Compile compiles text and stores the result under name, replacing any
// template previously compiled with that name.
func (e *Engine) Compile(name, text string) (*Template, error) {
	tmpl, err := Compile(name, text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(name, tmpl)
	return tmpl, nil
}

// CompileFile compiles the file at path and stores it under name.
func (e *Engine) CompileFile(name, path string) (*Template, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	return e.Compile(name, string(content))
}

// Template returns the template stored under name.
func (e *Engine) Template(name string) (*Template, bool) {
	return e.cache.Get(name)
}

// Run renders the template stored under name.
func (e *Engine) Run(name string, model any) (string, error) {
	tmpl, ok := e.cache.Get(name)
	if !ok {
		return "", NewRenderError(name, "", ErrTemplateNotFound)
	}
	return e.Render(tmpl, model)
}

// CompileAndRun compiles text under name and renders it against model.
func (e *Engine) CompileAndRun(name, text string, model any) (string, error) {
	tmpl, err := e.Compile(name, text)
	if err != nil {
		return "", err
	}
	return e.Render(tmpl, model)
}

// Render renders tmpl against model with the engine's partials and settings.
func (e *Engine) Render(tmpl *Template, model any) (string, error) {
	if tmpl == nil {
		return "", NewRenderError("", "nil template", nil)
	}
	return tmpl.RenderWithOptions(model, RenderOptions{
		Partials:    e.resolver,
		MaxDepth:    e.config.MaxRenderDepth,
		SanitizeRaw: e.config.SanitizeRaw,
		Logger:      e.logger,
	})
}

// RegisterPartial registers partial source text under name. It is compiled
// the first time a template references it.
func (e *Engine) RegisterPartial(name, text string) error {
	return e.partials.Register(name, text)
}

// RegisterPartialTemplate registers an already compiled partial under its
// own name.
func (e *Engine) RegisterPartialTemplate(tmpl *Template) error {
	return e.partials.RegisterTemplate(tmpl)
}

// Partials returns the engine's partial registry.
func (e *Engine) Partials() *PartialRegistry {
	return e.partials
}

// Remove evicts the template stored under name.
func (e *Engine) Remove(name string) {
	e.cache.Remove(name)
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// ClearCache removes all compiled templates.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}

// chainResolver tries each resolver in order, moving on only when a partial
// is not found.
type chainResolver []PartialResolver

func (c chainResolver) ResolvePartial(name string) (*Template, error) {
	var lastErr error
	for _, r := range c {
		if r == nil {
			continue
		}
		tmpl, err := r.ResolvePartial(name)
		if err == nil && tmpl == nil {
			err = fmt.Errorf("%w: %q", ErrPartialNotFound, name)
		}
		if err == nil {
			return tmpl, nil
		}
		if !IsPartialNotFound(err) {
			return nil, err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: %q", ErrPartialNotFound, name)
	}
	return nil, lastErr
}

// DefaultEngine is the global default engine instance.
var DefaultEngine = New()

// Module-level convenience functions that use the default engine.

// CompileNamed compiles text and stores it on the default engine under name.
func CompileNamed(name, text string) (*Template, error) {
	return DefaultEngine.Compile(name, text)
}

// Run renders a template compiled on the default engine.
func Run(name string, model any) (string, error) {
	return DefaultEngine.Run(name, model)
}

// CompileAndRun compiles and renders text with the default engine.
func CompileAndRun(name, text string, model any) (string, error) {
	return DefaultEngine.CompileAndRun(name, text, model)
}

// RegisterPartial registers a partial on the default engine.
func RegisterPartial(name, text string) error {
	return DefaultEngine.RegisterPartial(name, text)
}

// ClearCache clears the default engine's compiled templates.
func ClearCache() {
	DefaultEngine.ClearCache()
}
