// Package handlebars is a Handlebars-family template engine.
//
// Templates are compiled once into an immutable node tree and rendered any
// number of times, from any number of goroutines, against models of any
// shape: structs, anonymous structs, maps, slices and dynamic objects that
// implement MemberResolver.
//
// # Quick Start
//
//	tmpl, err := handlebars.Compile("greeting", "{{Forename}} {{Surname}} is {{Age}} years old")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := tmpl.Render(person, nil)
//
// The Engine keeps templates and partials by name:
//
//	engine := handlebars.New()
//	engine.RegisterPartial("person_name", "{{@root.person.forename}} {{@root.person.surname}}")
//	engine.Compile("hello", "Your name is {{> person_name}}")
//	out, err := engine.Run("hello", model)
//
// # Template Syntax
//
//	{{name}}                    - Escaped output of a path
//	{{person.job.title}}        - Nested member access (person/job/title also works)
//	{{{html}}} or {{& html}}    - Unescaped output
//	{{this}}                    - The current context
//	{{@root.title}}             - Lookup from the outermost model
//	{{../label}}                - Lookup from the enclosing context
//	{{#with person}}...{{/with}}          - Render with person as the context
//	{{#each items}}...{{else}}...{{/each}} - Iterate, with @index, @first, @last
//	{{> partial}} {{> partial context}}   - Render a registered partial
//	{{! comment }} {{!-- comment --}}     - Comments
//	{{~name~}}                  - Trim whitespace around a tag
//
// # Member Lookup
//
// Each path segment is looked up on the current value: map keys first, then
// exported struct fields (by Go name, then `handlebars` and `json` tag names)
// and niladic methods, then MemberResolver. A lookup that finds nothing is
// not an error: the expression renders as empty and blocks render their
// {{else}} section.
//
// Methods, including pointer-receiver methods, are called each time a
// template references them. Rendering never writes to the model itself, so
// keep such methods free of side effects.
//
// A sequence rendered directly, as in {{items}}, prints its elements joined
// by commas.
//
// # Error Handling
//
//   - CompileError: unterminated or mismatched blocks, unknown block kinds,
//     malformed tags. Carries the template name, line and column.
//   - RenderError: a missing partial (wraps ErrPartialNotFound) or partials
//     nested deeper than MaxRenderDepth (wraps ErrMaxDepthExceeded).
//
// # Thread Safety
//
// Template, Engine and PartialRegistry are safe for concurrent use. Partials
// registered as text are compiled exactly once, on first use.
package handlebars
