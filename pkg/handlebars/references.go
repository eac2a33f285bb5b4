package handlebars

import (
	"sort"
)

// ReferenceKind tells how a template uses a path
type ReferenceKind string

const (
	ReferenceVariable ReferenceKind = "variable"
	ReferenceWith     ReferenceKind = "with"
	ReferenceEach     ReferenceKind = "each"
	ReferencePartial  ReferenceKind = "partial"
)

// Reference is one path or partial a template refers to.
type Reference struct {
	Kind ReferenceKind
	// Path is the referenced path. For ReferencePartial it is the partial's
	// context argument, if any.
	Path Path
	// Partial is the partial name for ReferencePartial.
	Partial string
	// Escaped is false for {{{raw}}} variables.
	Escaped bool
	// BlockDepth is the number of enclosing #with/#each blocks.
	BlockDepth int
	Line       int
	Column     int
}

// ExtractReferences lists every path expression and partial reference in
// tmpl, ordered by position in the source.
func ExtractReferences(tmpl *Template) []Reference {
	var refs []Reference
	collectReferences(tmpl.nodes, 0, &refs)
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].Line != refs[j].Line {
			return refs[i].Line < refs[j].Line
		}
		return refs[i].Column < refs[j].Column
	})
	return refs
}

func collectReferences(nodes []Node, depth int, refs *[]Reference) {
	for _, node := range nodes {
		line, column := node.Pos()
		ref := Reference{BlockDepth: depth, Line: line, Column: column}
		switch n := node.(type) {
		case *ExpressionNode:
			ref.Kind = ReferenceVariable
			ref.Path = n.Path
			ref.Escaped = n.Escape
		case *WithBlock:
			ref.Kind = ReferenceWith
			ref.Path = n.Path
			*refs = append(*refs, ref)
			collectReferences(n.Body, depth+1, refs)
			collectReferences(n.Inverse, depth, refs)
			continue
		case *EachBlock:
			ref.Kind = ReferenceEach
			ref.Path = n.Path
			*refs = append(*refs, ref)
			collectReferences(n.Body, depth+1, refs)
			collectReferences(n.Inverse, depth, refs)
			continue
		case *PartialNode:
			ref.Kind = ReferencePartial
			ref.Partial = n.Name
			if n.Context != nil {
				ref.Path = *n.Context
			}
		default:
			continue
		}
		*refs = append(*refs, ref)
	}
}

// TopLevelVariables returns the distinct first segments of the relative and
// root paths that resolve against the render's model: relative paths outside
// any block and every @root path. They are the names a model must provide.
func TopLevelVariables(tmpl *Template) []string {
	seen := make(map[string]bool)
	var names []string
	for _, ref := range ExtractReferences(tmpl) {
		if len(ref.Path.Segments) == 0 {
			continue
		}
		switch {
		case ref.Path.Scope == ScopeRoot:
		case ref.Path.Scope == ScopeRelative && ref.BlockDepth == 0 && ref.Path.Depth == 0:
		default:
			continue
		}
		name := ref.Path.Segments[0]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// ScalarVariables returns the top-level variables that the template only
// ever prints as single-segment paths, such as {{title}} or {{@root.title}}.
// A plain string answers each of them. Names that open a block, are passed
// to a partial or are walked into (person.name) are left out.
func ScalarVariables(tmpl *Template) []string {
	structured := make(map[string]bool)
	var candidates []string
	for _, ref := range ExtractReferences(tmpl) {
		if len(ref.Path.Segments) == 0 {
			continue
		}
		switch {
		case ref.Path.Scope == ScopeRoot:
		case ref.Path.Scope == ScopeRelative && ref.BlockDepth == 0 && ref.Path.Depth == 0:
		default:
			continue
		}
		name := ref.Path.Segments[0]
		if ref.Kind != ReferenceVariable || len(ref.Path.Segments) > 1 {
			structured[name] = true
			continue
		}
		candidates = append(candidates, name)
	}

	seen := make(map[string]bool)
	var names []string
	for _, name := range candidates {
		if structured[name] || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
