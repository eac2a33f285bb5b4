package handlebars

import (
	"fmt"
	"strings"
)

// PathScope qualifies where path resolution starts.
type PathScope int

const (
	// ScopeRelative resolves against the current context (or an ancestor
	// when Depth > 0).
	ScopeRelative PathScope = iota
	// ScopeRoot resolves against the root context of the render.
	ScopeRoot
	// ScopeThis is the current context itself.
	ScopeThis
	// ScopeData resolves a private data variable such as @index.
	ScopeData
)

func (s PathScope) String() string {
	switch s {
	case ScopeRelative:
		return "Relative"
	case ScopeRoot:
		return "Root"
	case ScopeThis:
		return "This"
	case ScopeData:
		return "Data"
	default:
		return "Unknown"
	}
}

// Path is a parsed path expression.
//
// A ScopeThis path never has segments; "this.name" parses to a relative path.
// Depth counts the "../" prefixes. Data names the @-variable of a ScopeData
// path.
type Path struct {
	Scope    PathScope
	Depth    int
	Segments []string
	Data     string
}

func (p Path) String() string {
	var b strings.Builder
	for i := 0; i < p.Depth; i++ {
		b.WriteString("../")
	}
	switch p.Scope {
	case ScopeThis:
		b.WriteString("this")
		return b.String()
	case ScopeRoot:
		b.WriteString("@root")
		if len(p.Segments) > 0 {
			b.WriteString(".")
		}
	case ScopeData:
		b.WriteString("@" + p.Data)
		if len(p.Segments) > 0 {
			b.WriteString(".")
		}
	}
	b.WriteString(strings.Join(p.Segments, "."))
	return b.String()
}

// Node is a node of a compiled template.
type Node interface {
	String() string
	// Pos reports the line and column the node starts at.
	Pos() (int, int)
}

// Position is the line and column a node starts at.
type Position struct {
	Line   int
	Column int
}

func (p Position) Pos() (int, int) {
	return p.Line, p.Column
}

// TextNode represents verbatim template text
type TextNode struct {
	Position
	Content string
}

func (n *TextNode) String() string {
	return fmt.Sprintf("Text(%q)", n.Content)
}

// ExpressionNode outputs the value of a path, HTML-escaped unless Escape is false
type ExpressionNode struct {
	Position
	Path   Path
	Escape bool
}

func (n *ExpressionNode) String() string {
	if n.Escape {
		return fmt.Sprintf("Expression(%s)", n.Path)
	}
	return fmt.Sprintf("Raw(%s)", n.Path)
}

// WithBlock renders Body with the resolved path as the new context, or
// Inverse when the path misses.
type WithBlock struct {
	Position
	Path    Path
	Body    []Node
	Inverse []Node
}

func (n *WithBlock) String() string {
	return fmt.Sprintf("With(%s)", n.Path)
}

// EachBlock renders Body once per element of the resolved sequence, or
// Inverse when there is nothing to iterate.
type EachBlock struct {
	Position
	Path    Path
	Body    []Node
	Inverse []Node
}

func (n *EachBlock) String() string {
	return fmt.Sprintf("Each(%s)", n.Path)
}

// PartialNode renders a named partial. A nil Context keeps the current context.
type PartialNode struct {
	Position
	Name    string
	Context *Path
}

func (n *PartialNode) String() string {
	if n.Context != nil {
		return fmt.Sprintf("Partial(%s, %s)", n.Name, *n.Context)
	}
	return fmt.Sprintf("Partial(%s)", n.Name)
}

// Walk calls fn for every node in nodes, depth first, including the bodies of
// blocks. Walking stops early when fn returns false.
func Walk(nodes []Node, fn func(Node) bool) bool {
	for _, n := range nodes {
		if !fn(n) {
			return false
		}
		switch b := n.(type) {
		case *WithBlock:
			if !Walk(b.Body, fn) || !Walk(b.Inverse, fn) {
				return false
			}
		case *EachBlock:
			if !Walk(b.Body, fn) || !Walk(b.Inverse, fn) {
				return false
			}
		}
	}
	return true
}
