package handlebars

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"testing"
)

type job struct {
	Title string `json:"title"`
}

type employee struct {
	Name     string `handlebars:"name"`
	Job      *job   `json:"job"`
	Tags     []string
	internal string
}

func (e employee) Greeting() string {
	return "Hello, " + e.Name
}

func (e *employee) Initial() (string, error) {
	if e.Name == "" {
		return "", errors.New("no name")
	}
	return e.Name[:1], nil
}

type counter struct{ n int }

func (c counter) Each(yield func(any) bool) {
	for i := 1; i <= c.n; i++ {
		if !yield(i) {
			return
		}
	}
}

func TestRender_Expressions(t *testing.T) {
	model := TemplateData{
		"name":   "Ada",
		"html":   "<b>bold</b> & 'q'",
		"safe":   SafeString("<i>trusted</i>"),
		"count":  42,
		"ratio":  0.25,
		"flag":   true,
		"absent": nil,
		"list":   []string{"a", "b"},
		"mixed":  []any{1, nil, 2.5, "<x>"},
		"emp":    employee{Name: "Grace", Job: &job{Title: "Admiral"}, internal: "hidden"},
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "Hi {{name}}", "Hi Ada"},
		{"escaped", "{{html}}", "&lt;b&gt;bold&lt;/b&gt; &amp; &#x27;q&#x27;"},
		{"triple stash", "{{{html}}}", "<b>bold</b> & 'q'"},
		{"ampersand", "{{& html}}", "<b>bold</b> & 'q'"},
		{"safe string", "{{safe}}", "<i>trusted</i>"},
		{"integer", "{{count}}", "42"},
		{"float", "{{ratio}}", "0.25"},
		{"bool", "{{flag}}", "true"},
		{"nil", "[{{absent}}]", "[]"},
		{"index segment", "{{list.1}}", "b"},
		{"sequence", "{{list}}", "a,b"},
		{"mixed sequence", "{{mixed}}", "1,,2.5,&lt;x&gt;"},
		{"raw sequence", "{{{mixed}}}", "1,,2.5,<x>"},
		{"struct tag", "{{emp.name}}", "Grace"},
		{"go field name", "{{emp.Name}}", "Grace"},
		{"json tag through pointer", "{{emp.job.title}}", "Admiral"},
		{"slash separator", "{{emp/Job/Title}}", "Admiral"},
		{"method", "{{emp.Greeting}}", "Hello, Grace"},
		{"unexported field", "[{{emp.internal}}]", "[]"},
		{"this", "{{#with name}}{{this}}{{/with}}", "Ada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustRender(t, tt.text, model, nil); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_PointerReceiverMethod(t *testing.T) {
	emp := &employee{Name: "Grace"}
	if got := mustRender(t, "{{Initial}}", emp, nil); got != "G" {
		t.Errorf("got %q, want %q", got, "G")
	}
	// A getter returning an error is a miss.
	if got := mustRender(t, "[{{Initial}}]", &employee{}, nil); got != "[]" {
		t.Errorf("got %q, want %q", got, "[]")
	}
}

type ticker struct{ n int }

func (t *ticker) Next() int {
	t.n++
	return t.n
}

func TestRender_MethodsCalledPerReference(t *testing.T) {
	tick := &ticker{}
	if got := mustRender(t, "{{Next}}{{Next}}", tick, nil); got != "12" {
		t.Errorf("got %q, want %q", got, "12")
	}
	if tick.n != 2 {
		t.Errorf("n = %d, want 2", tick.n)
	}
}

func TestEscapeHTML(t *testing.T) {
	got := EscapeHTML("<a href=\"x\">`it's` & more</a>")
	want := "&lt;a href&#x3D;&quot;x&quot;&gt;&#x60;it&#x27;s&#x60; &amp; more&lt;/a&gt;"
	if got != want {
		t.Errorf("EscapeHTML = %q, want %q", got, want)
	}
}

func TestRender_SanitizeRaw(t *testing.T) {
	tmpl := MustCompile("raw", "{{{html}}}|{{html}}")
	model := TemplateData{"html": `<p onclick="steal()">ok<script>alert(1)</script></p>`}

	got, err := tmpl.RenderWithOptions(model, RenderOptions{SanitizeRaw: true})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	raw, escaped, _ := strings.Cut(got, "|")
	if raw != "<p>ok</p>" {
		t.Errorf("sanitized raw output = %q", raw)
	}
	if !strings.HasPrefix(escaped, "&lt;p onclick") {
		t.Errorf("escaped output = %q", escaped)
	}
}

func TestRender_WithBlock(t *testing.T) {
	model := TemplateData{
		"label":  "outer",
		"person": TemplateData{"name": "Ada", "label": "inner"},
		"empty":  "",
		"none":   nil,
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{"pushes context", "{{#with person}}{{name}}{{/with}}", "Ada"},
		{"shadowing", "{{#with person}}{{label}}{{/with}}", "inner"},
		{"parent path", "{{#with person}}{{../label}}{{/with}}", "outer"},
		{"parent this", "{{#with person}}{{#with ..}}{{label}}{{/with}}{{/with}}", "outer"},
		{"inverse on miss", "{{#with missing}}yes{{else}}no{{/with}}", "no"},
		{"inverse on nil", "{{#with none}}yes{{^}}no{{/with}}", "no"},
		{"empty string still renders", "{{#with empty}}[{{this}}]{{/with}}", "[]"},
		{"nested", "{{#with person}}{{#with name}}{{this}}-{{../label}}-{{../../label}}{{/with}}{{/with}}", "Ada-inner-outer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustRender(t, tt.text, model, nil); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_EachBlock(t *testing.T) {
	seq := iter.Seq[any](func(yield func(any) bool) {
		for _, s := range []string{"x", "y"} {
			if !yield(s) {
				return
			}
		}
	})

	model := TemplateData{
		"title":  "T",
		"items":  []string{"a", "b", "c"},
		"people": []employee{{Name: "Ada"}, {Name: "Grace"}},
		"matrix": [][]int{{1, 2}, {3}},
		"seq":    seq,
		"count":  counter{n: 3},
		"object": TemplateData{"k": "v"},
		"none":   []int{},
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{"strings", "{{#each items}}{{this}},{{/each}}", "a,b,c,"},
		{"index", "{{#each items}}{{@index}}={{this}} {{/each}}", "0=a 1=b 2=c "},
		{"first and last", "{{#each items}}{{@first}}/{{@last}} {{/each}}", "true/false false/false false/true "},
		{"structs", "{{#each people}}<{{name}}>{{/each}}", "<Ada><Grace>"},
		{"parent from item", "{{#each items}}{{../title}}{{this}}{{/each}}", "TaTbTc"},
		{"root from item", "{{#each people}}{{@root.title}}{{/each}}", "TT"},
		{"nested", "{{#each matrix}}[{{#each this}}{{this}}{{/each}}]{{/each}}", "[12][3]"},
		{"nested index", "{{#each matrix}}{{#each this}}{{@index}}{{/each}}|{{/each}}", "01|0|"},
		{"iter.Seq", "{{#each seq}}{{this}}{{/each}}", "xy"},
		{"enumerable", "{{#each count}}{{this}}{{/each}}", "123"},
		{"empty renders inverse", "{{#each none}}x{{else}}empty{{/each}}", "empty"},
		{"map is not iterated", "{{#each object}}x{{else}}no{{/each}}", "no"},
		{"miss renders inverse", "{{#each missing}}x{{else}}no{{/each}}", "no"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustRender(t, tt.text, model, nil); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_WhitespaceAndComments(t *testing.T) {
	text := "<ul>\n  {{~#each items~}}\n    <li>{{this}}</li>\n  {{~/each~}}\n</ul>{{! done }}"
	got := mustRender(t, text, TemplateData{"items": []int{1, 2}}, nil)
	if want := "<ul><li>1</li><li>2</li></ul>"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_Partials(t *testing.T) {
	registry := NewPartialRegistry()
	mustRegister(t, registry, "item", "<{{name}}>")
	mustRegister(t, registry, "title", "{{@root.title}}")
	mustRegister(t, registry, "parent", "{{../name}}")

	model := TemplateData{
		"title":  "Root",
		"name":   "top",
		"people": []TemplateData{{"name": "Ada"}, {"name": "Grace"}},
		"boss":   TemplateData{"name": "Lin"},
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{"current context", "{{#each people}}{{> item}}{{/each}}", "<Ada><Grace>"},
		{"explicit context", "{{> item boss}}", "<Lin>"},
		{"root inside partial", "{{#with boss}}{{> title}}{{/with}}", "Root"},
		{"parent of partial frame", "{{> parent boss}}", "top"},
		{"missing context arg", "[{{> item nothing}}]", "[<>]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustRender(t, tt.text, model, registry); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_PartialErrors(t *testing.T) {
	tmpl := MustCompile("main", "line\n  {{> missing}}")

	_, err := tmpl.Render(nil, NewPartialRegistry())
	if !IsPartialNotFound(err) {
		t.Fatalf("expected ErrPartialNotFound, got %v", err)
	}
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RenderError, got %T", err)
	}
	if re.Template != "main" || re.Line != 2 || re.Column != 3 {
		t.Errorf("error location = %q %d:%d", re.Template, re.Line, re.Column)
	}

	// No resolver at all.
	if _, err := tmpl.Render(nil, nil); !errors.Is(err, ErrPartialNotFound) {
		t.Errorf("expected ErrPartialNotFound without resolver, got %v", err)
	}

	// A failing resolver error is passed through.
	boom := errors.New("boom")
	_, err = tmpl.Render(nil, PartialResolverFunc(func(string) (*Template, error) { return nil, boom }))
	if !errors.Is(err, boom) {
		t.Errorf("expected resolver error, got %v", err)
	}

	// A resolver returning no template and no error is a not-found.
	_, err = tmpl.Render(nil, PartialResolverFunc(func(string) (*Template, error) { return nil, nil }))
	if !IsPartialNotFound(err) {
		t.Fatalf("expected ErrPartialNotFound for a nil template, got %v", err)
	}
	if !errors.As(err, &re) || re.Line != 2 || re.Column != 3 {
		t.Errorf("expected a located RenderError, got %v", err)
	}
}

func TestRender_RecursivePartialDepth(t *testing.T) {
	registry := NewPartialRegistry()
	mustRegister(t, registry, "tree", "{{name}}{{#each children}}({{> tree}}){{/each}}")

	model := TemplateData{
		"name": "a",
		"children": []TemplateData{
			{"name": "b", "children": []TemplateData{{"name": "c"}}},
		},
	}
	tmpl := MustCompile("root", "{{> tree}}")
	got, err := tmpl.RenderWithOptions(model, RenderOptions{Partials: registry, MaxDepth: 10})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "a(b(c))" {
		t.Errorf("got %q", got)
	}

	mustRegister(t, registry, "loop", "{{> loop}}")
	loop := MustCompile("loop-root", "{{> loop}}")
	_, err = loop.RenderWithOptions(nil, RenderOptions{Partials: registry, MaxDepth: 5})
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("expected ErrMaxDepthExceeded, got %v", err)
	}
}

type panicky struct{}

func (panicky) ResolveMember(name string) (any, bool) {
	panic("resolver exploded")
}

type explodingStringer struct{}

func (explodingStringer) String() string {
	panic("stringer exploded")
}

func TestRender_PanicsAreContained(t *testing.T) {
	// A panicking member resolver is treated as a miss.
	if got := mustRender(t, "[{{x}}]", panicky{}, nil); got != "[]" {
		t.Errorf("got %q", got)
	}

	// A panic while formatting output becomes a RenderError.
	tmpl := MustCompile("boom", "{{value}}")
	_, err := tmpl.Render(TemplateData{"value": explodingStringer{}}, nil)
	if !IsRenderError(err) {
		t.Fatalf("expected RenderError, got %v", err)
	}
	if !strings.Contains(err.Error(), "stringer exploded") {
		t.Errorf("error %q does not mention the panic", err)
	}
}

func TestRender_NilTemplate(t *testing.T) {
	if _, err := Render(nil, nil, nil); !IsRenderError(err) {
		t.Errorf("expected RenderError, got %v", err)
	}
}

func TestRender_ConcurrentUse(t *testing.T) {
	tmpl := MustCompile("concurrent", "{{#each items}}{{@index}}:{{name}};{{/each}}")
	done := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func(i int) {
			model := TemplateData{"items": []TemplateData{{"name": fmt.Sprint(i)}, {"name": "x"}}}
			got, err := tmpl.Render(model, nil)
			if err == nil && got != fmt.Sprintf("0:%d;1:x;", i) {
				err = fmt.Errorf("goroutine %d got %q", i, got)
			}
			done <- err
		}(i)
	}
	for i := 0; i < 20; i++ {
		if err := <-done; err != nil {
			t.Error(err)
		}
	}
}

func mustRegister(t *testing.T, r *PartialRegistry, name, text string) {
	t.Helper()
	if err := r.Register(name, text); err != nil {
		t.Fatalf("Register(%q) failed: %v", name, err)
	}
}
