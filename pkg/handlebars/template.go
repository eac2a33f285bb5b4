package handlebars

import (
	"strings"
)

// TemplateData is a convenient map-shaped model.
//
// Example:
//
//	data := TemplateData{
//	    "name": "John Doe",
//	    "items": []TemplateData{
//	        {"product": "Widget"},
//	        {"product": "Gadget"},
//	    },
//	}
type TemplateData map[string]interface{}

// Template is a compiled template. It is never modified after Compile
// returns, so one Template can be rendered by many goroutines at once.
type Template struct {
	name     string
	source   string
	nodes    []Node
	partials []string
}

// Compile lexes and parses text into a Template called name. It returns
// either a complete template or a *CompileError.
func Compile(name, text string) (*Template, error) {
	nodes, err := Parse(name, Tokenize(text))
	if err != nil {
		return nil, err
	}

	tmpl := &Template{
		name:   name,
		source: text,
		nodes:  nodes,
	}
	seen := make(map[string]bool)
	Walk(nodes, func(n Node) bool {
		if p, ok := n.(*PartialNode); ok && !seen[p.Name] {
			seen[p.Name] = true
			tmpl.partials = append(tmpl.partials, p.Name)
		}
		return true
	})

	logger := GetLogger()
	if logger.IsDebugMode() {
		logger.WithFields(Fields{
			"template": name,
			"nodes":    len(nodes),
			"partials": len(tmpl.partials),
		}).Debug("Template compiled")
	}
	return tmpl, nil
}

// MustCompile is like Compile but panics if the template cannot be compiled.
func MustCompile(name, text string) *Template {
	tmpl, err := Compile(name, text)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// Name returns the name the template was compiled with.
func (t *Template) Name() string {
	return t.name
}

// Source returns the template text.
func (t *Template) Source() string {
	return t.source
}

// Nodes returns the top-level nodes. Callers must not modify them.
func (t *Template) Nodes() []Node {
	return t.nodes
}

// Partials returns the names of the partials the template references, in
// order of first appearance.
func (t *Template) Partials() []string {
	out := make([]string, len(t.partials))
	copy(out, t.partials)
	return out
}

// String returns a debug representation of the node tree.
func (t *Template) String() string {
	var b strings.Builder
	writeNodes(&b, t.nodes, 0)
	return b.String()
}

func writeNodes(b *strings.Builder, nodes []Node, indent int) {
	for _, n := range nodes {
		b.WriteString(strings.Repeat("  ", indent))
		b.WriteString(n.String())
		b.WriteByte('\n')
		switch block := n.(type) {
		case *WithBlock:
			writeNodes(b, block.Body, indent+1)
			writeInverse(b, block.Inverse, indent)
		case *EachBlock:
			writeNodes(b, block.Body, indent+1)
			writeInverse(b, block.Inverse, indent)
		}
	}
}

func writeInverse(b *strings.Builder, nodes []Node, indent int) {
	if len(nodes) == 0 {
		return
	}
	b.WriteString(strings.Repeat("  ", indent))
	b.WriteString("Else\n")
	writeNodes(b, nodes, indent+1)
}
