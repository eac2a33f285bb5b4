package handlebars

import (
	"fmt"
	"strings"
)

// RenderOptions controls a single render.
type RenderOptions struct {
	// Partials resolves {{> name}} references. Nil means no partials exist.
	Partials PartialResolver
	// MaxDepth bounds partial nesting. Zero uses the global configuration.
	MaxDepth int
	// SanitizeRaw passes unescaped {{{output}}} through SanitizeHTML.
	SanitizeRaw bool
	// Logger receives debug output. Nil uses the global logger.
	Logger *Logger
}

// renderer holds the per-render state. It is never shared between renders.
type renderer struct {
	out      strings.Builder
	opts     RenderOptions
	depth    int
	logger   *Logger
	debugLog bool
}

// Render renders the template against model, resolving partials through
// partials (which may be nil).
func (t *Template) Render(model any, partials PartialResolver) (string, error) {
	config := GetGlobalConfig()
	return t.RenderWithOptions(model, RenderOptions{
		Partials:    partials,
		MaxDepth:    config.MaxRenderDepth,
		SanitizeRaw: config.SanitizeRaw,
	})
}

// RenderWithOptions renders the template against model.
func (t *Template) RenderWithOptions(model any, opts RenderOptions) (result string, err error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = GetGlobalConfig().MaxRenderDepth
	}
	r := &renderer{opts: opts, logger: opts.Logger}
	if r.logger == nil {
		r.logger = GetLogger()
	}
	r.debugLog = r.logger.IsDebugMode()

	defer func() {
		if rec := recover(); rec != nil {
			result = ""
			err = NewRenderError(t.name, "", RecoverError(rec))
		}
	}()

	if r.debugLog {
		r.logger.WithFields(Fields{
			"template": t.name,
			"shape":    ShapeOf(model).String(),
		}).Debug("Starting render")
	}

	if err := r.renderNodes(t, t.nodes, NewRootFrame(model)); err != nil {
		return "", err
	}
	return r.out.String(), nil
}

// Render is a convenience wrapper around (*Template).Render.
func Render(tmpl *Template, model any, partials PartialResolver) (string, error) {
	if tmpl == nil {
		return "", NewRenderError("", "nil template", nil)
	}
	return tmpl.Render(model, partials)
}

func (r *renderer) renderNodes(tmpl *Template, nodes []Node, frame *Frame) error {
	for _, node := range nodes {
		if err := r.renderNode(tmpl, node, frame); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) renderNode(tmpl *Template, node Node, frame *Frame) error {
	switch n := node.(type) {
	case *TextNode:
		r.out.WriteString(n.Content)

	case *ExpressionNode:
		value, ok := Resolve(frame, n.Path)
		if !ok {
			r.miss(tmpl, n.Path)
			return nil
		}
		r.writeValue(value, n.Escape)

	case *WithBlock:
		value, ok := Resolve(frame, n.Path)
		if !ok || isAbsent(value) {
			r.miss(tmpl, n.Path)
			return r.renderNodes(tmpl, n.Inverse, frame)
		}
		return r.renderNodes(tmpl, n.Body, frame.Push(value))

	case *EachBlock:
		var items []any
		value, ok := Resolve(frame, n.Path)
		if ok {
			items, ok = toSlice(value)
		}
		if !ok || len(items) == 0 {
			r.miss(tmpl, n.Path)
			return r.renderNodes(tmpl, n.Inverse, frame)
		}
		for i, item := range items {
			if err := r.renderNodes(tmpl, n.Body, frame.PushIteration(item, i, len(items))); err != nil {
				return err
			}
		}

	case *PartialNode:
		return r.renderPartial(tmpl, n, frame)

	default:
		line, column := node.Pos()
		return &RenderError{
			Template: tmpl.name,
			Message:  fmt.Sprintf("unsupported node %s", node),
			Line:     line,
			Column:   column,
		}
	}
	return nil
}

func (r *renderer) renderPartial(tmpl *Template, n *PartialNode, frame *Frame) error {
	fail := func(message string, cause error) error {
		return &RenderError{
			Template: tmpl.name,
			Message:  message,
			Line:     n.Line,
			Column:   n.Column,
			Cause:    cause,
		}
	}

	if r.depth >= r.opts.MaxDepth {
		return fail(fmt.Sprintf("partial %q nested more than %d levels", n.Name, r.opts.MaxDepth), ErrMaxDepthExceeded)
	}
	if r.opts.Partials == nil {
		return fail(fmt.Sprintf("partial %q", n.Name), ErrPartialNotFound)
	}
	partial, err := r.opts.Partials.ResolvePartial(n.Name)
	if err != nil {
		return fail(fmt.Sprintf("partial %q", n.Name), err)
	}
	if partial == nil {
		return fail(fmt.Sprintf("partial %q resolved to no template", n.Name), ErrPartialNotFound)
	}

	context := frame.Current()
	if n.Context != nil {
		context, _ = Resolve(frame, *n.Context)
	}

	if r.debugLog {
		r.logger.WithFields(Fields{
			"template": tmpl.name,
			"partial":  n.Name,
			"depth":    r.depth + 1,
			"frames":   frame.Depth(),
		}).Debug("Rendering partial")
	}

	r.depth++
	defer func() { r.depth-- }()
	return r.renderNodes(partial, partial.nodes, frame.Push(context))
}

func (r *renderer) writeValue(value any, escape bool) {
	text := FormatValue(value)
	if _, safe := value.(SafeString); safe {
		r.out.WriteString(text)
		return
	}
	switch {
	case escape:
		text = EscapeHTML(text)
	case r.opts.SanitizeRaw:
		text = SanitizeHTML(text)
	}
	r.out.WriteString(text)
}

func (r *renderer) miss(tmpl *Template, path Path) {
	if r.debugLog {
		r.logger.WithFields(Fields{
			"template": tmpl.name,
			"path":     path.String(),
		}).Debug("Path did not resolve")
	}
}
