package handlebars

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func parseText(t *testing.T, text string) []Node {
	t.Helper()
	nodes, err := Parse("test", Tokenize(text))
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", text, err)
	}
	return nodes
}

func TestParse_Tree(t *testing.T) {
	got := parseText(t, "Hi {{#with person}}{{name}}{{else}}-{{/with}}{{#each items}}{{{this}}}{{/each}}{{> footer @root.meta}}")

	want := []Node{
		&TextNode{Position: Position{1, 1}, Content: "Hi "},
		&WithBlock{
			Position: Position{1, 4},
			Path:     Path{Scope: ScopeRelative, Segments: []string{"person"}},
			Body: []Node{
				&ExpressionNode{Position: Position{1, 20}, Path: Path{Segments: []string{"name"}}, Escape: true},
			},
			Inverse: []Node{
				&TextNode{Position: Position{1, 36}, Content: "-"},
			},
		},
		&EachBlock{
			Position: Position{1, 46},
			Path:     Path{Segments: []string{"items"}},
			Body: []Node{
				&ExpressionNode{Position: Position{1, 61}, Path: Path{Scope: ScopeThis}},
			},
		},
		&PartialNode{
			Position: Position{1, 80},
			Name:     "footer",
			Context:  &Path{Scope: ScopeRoot, Segments: []string{"meta"}},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Paths(t *testing.T) {
	tests := []struct {
		text string
		want Path
	}{
		{"name", Path{Segments: []string{"name"}}},
		{"person.job.title", Path{Segments: []string{"person", "job", "title"}}},
		{"person/job/title", Path{Segments: []string{"person", "job", "title"}}},
		{"this", Path{Scope: ScopeThis}},
		{".", Path{Scope: ScopeThis}},
		{"this.name", Path{Segments: []string{"name"}}},
		{"./name", Path{Segments: []string{"name"}}},
		{"@root", Path{Scope: ScopeRoot}},
		{"@root.person.name", Path{Scope: ScopeRoot, Segments: []string{"person", "name"}}},
		{"@index", Path{Scope: ScopeData, Data: "index"}},
		{"../label", Path{Depth: 1, Segments: []string{"label"}}},
		{"../../label", Path{Depth: 2, Segments: []string{"label"}}},
		{"..", Path{Scope: ScopeThis, Depth: 1}},
		{"../this", Path{Scope: ScopeThis, Depth: 1}},
		{"items.0.name", Path{Segments: []string{"items", "0", "name"}}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			nodes := parseText(t, "{{"+tt.text+"}}")
			expr, ok := nodes[0].(*ExpressionNode)
			if !ok {
				t.Fatalf("expected *ExpressionNode, got %T", nodes[0])
			}
			if diff := cmp.Diff(tt.want, expr.Path); diff != "" {
				t.Errorf("path mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_PathString(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"name", "name"},
		{"person/job", "person.job"},
		{"../../x", "../../x"},
		{"@root.a", "@root.a"},
		{"@index", "@index"},
		{"this", "this"},
	}
	for _, tt := range tests {
		nodes := parseText(t, "{{"+tt.text+"}}")
		if got := nodes[0].(*ExpressionNode).Path.String(); got != tt.want {
			t.Errorf("Path(%q).String() = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestParse_WhitespaceControl(t *testing.T) {
	got := parseText(t, "a  \n{{~#each items~}}\n  {{this}}\n{{~/each}}  b")
	each, ok := got[1].(*EachBlock)
	if !ok {
		t.Fatalf("expected *EachBlock, got %T", got[1])
	}
	if text := got[0].(*TextNode).Content; text != "a" {
		t.Errorf("leading text = %q, want %q", text, "a")
	}
	if len(each.Body) != 1 {
		t.Fatalf("expected the trimmed whitespace-only text to be dropped, body = %v", each.Body)
	}
	if text := got[2].(*TextNode).Content; text != "  b" {
		t.Errorf("trailing text = %q, want %q", text, "  b")
	}
}

func TestParse_CommentsDropped(t *testing.T) {
	got := parseText(t, "a{{! note }}b{{!-- {{name}} --}}c")
	want := []Node{
		&TextNode{Position: Position{1, 1}, Content: "a"},
		&TextNode{Position: Position{1, 13}, Content: "b"},
		&TextNode{Position: Position{1, 33}, Content: "c"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		line    int
		column  int
		message string
	}{
		{"unterminated block", "x\n{{#with a}}", 2, 1, "unterminated block {{#with}}"},
		{"mismatched block", "{{#with a}}{{/each}}", 1, 12, "mismatched block"},
		{"close without open", "{{/with}}", 1, 1, "without matching"},
		{"else outside block", "{{else}}", 1, 1, "outside of a block"},
		{"duplicate else", "{{#each a}}{{else}}{{else}}{{/each}}", 1, 20, "duplicate {{else}}"},
		{"unknown block", "{{#if a}}x{{/if}}", 1, 1, "unknown block kind \"if\""},
		{"block without path", "{{#each}}{{/each}}", 1, 1, "requires a path"},
		{"unclosed tag", "Hello {{name", 1, 7, "unclosed expression"},
		{"empty tag", "{{}}", 1, 1, "malformed expression"},
		{"helper call", "{{upper name}}", 1, 1, "helpers and parameters are not supported"},
		{"bad path", "{{a..b}}", 1, 1, "invalid path"},
		{"trailing dot", "{{a.}}", 1, 1, "invalid path"},
		{"data after parent", "{{../@index}}", 1, 1, "data variables cannot follow"},
		{"this mid path", "{{a.this}}", 1, 1, "must come first"},
		{"empty partial", "{{>}}", 1, 1, "requires a name"},
		{"invalid partial name", "{{> a*b}}", 1, 1, "invalid partial name"},
		{"quadruple stash", "{{{{raw}}}}", 1, 1, "unexpected character"},
		{"hash argument", "{{> p a=b}}", 1, 1, "unexpected character"},
		{"stray brace", "{{a}b}}", 1, 1, "unexpected character"},
		{"subexpression", "{{#with (a)}}{{/with}}", 1, 1, "unexpected character"},
		{"quoted literal", `{{"a"}}`, 1, 1, "unexpected character"},
		{"pipe", "{{a|b}}", 1, 1, "unexpected character"},
		{"empty data name", "{{@.a}}", 1, 1, "invalid path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile("broken", tt.text)
			if err == nil {
				t.Fatalf("expected error for %q", tt.text)
			}
			var ce *CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *CompileError, got %T: %v", err, err)
			}
			if ce.Template != "broken" {
				t.Errorf("Template = %q", ce.Template)
			}
			if ce.Line != tt.line || ce.Column != tt.column {
				t.Errorf("position = %d:%d, want %d:%d", ce.Line, ce.Column, tt.line, tt.column)
			}
			if !strings.Contains(ce.Message, tt.message) {
				t.Errorf("message %q does not contain %q", ce.Message, tt.message)
			}
		})
	}
}

func TestTemplate_String(t *testing.T) {
	tmpl := MustCompile("tree", "{{#each items}}{{name}}{{else}}none{{/each}}")
	want := "Each(items)\n" +
		"  Expression(name)\n" +
		"Else\n" +
		"  Text(\"none\")\n"
	if diff := cmp.Diff(want, tmpl.String()); diff != "" {
		t.Errorf("String mismatch (-want +got):\n%s", diff)
	}
}

func TestTemplate_Partials(t *testing.T) {
	tmpl := MustCompile("p", "{{> a}}{{#with x}}{{> b}}{{else}}{{> a}}{{/with}}")
	if diff := cmp.Diff([]string{"a", "b"}, tmpl.Partials()); diff != "" {
		t.Errorf("Partials mismatch (-want +got):\n%s", diff)
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected MustCompile to panic")
		}
	}()
	MustCompile("bad", "{{#with a}}")
}
