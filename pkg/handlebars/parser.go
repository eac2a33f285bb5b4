package handlebars

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	blockWith = "with"
	blockEach = "each"
)

// openBlock is an entry of the parser's block stack
type openBlock struct {
	token   Token
	node    Node
	body    []Node
	inverse []Node
	inElse  bool
}

// Parser builds a node tree from template tokens
type Parser struct {
	name   string
	tokens []Token
	pos    int
	root   []Node
	stack  []*openBlock
}

// Parse parses tokens into the node tree of the template called name.
func Parse(name string, tokens []Token) ([]Node, error) {
	p := &Parser{
		name:   name,
		tokens: applyWhitespaceControl(tokens),
	}
	return p.parse()
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenText, Value: ""}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *Parser) errorf(tok Token, format string, args ...interface{}) error {
	return NewCompileError(p.name, fmt.Sprintf(format, args...), tok.Line, tok.Column)
}

// emit appends n to the innermost open block, or to the top level.
func (p *Parser) emit(n Node) {
	if len(p.stack) == 0 {
		p.root = append(p.root, n)
		return
	}
	top := p.stack[len(p.stack)-1]
	if top.inElse {
		top.inverse = append(top.inverse, n)
		return
	}
	top.body = append(top.body, n)
}

func (p *Parser) parse() ([]Node, error) {
	for p.pos < len(p.tokens) {
		token := p.current()

		switch token.Type {
		case TokenText:
			if token.Value != "" {
				p.emit(&TextNode{Position: pos(token), Content: token.Value})
			}

		case TokenComment:
			// dropped

		case TokenExpression, TokenRawExpression:
			path, err := p.parsePath(token, token.Value)
			if err != nil {
				return nil, err
			}
			p.emit(&ExpressionNode{
				Position: pos(token),
				Path:     path,
				Escape:   token.Type == TokenExpression,
			})

		case TokenBlockStart:
			if err := p.openBlock(token); err != nil {
				return nil, err
			}

		case TokenElse:
			if len(p.stack) == 0 {
				return nil, p.errorf(token, "{{else}} outside of a block")
			}
			top := p.stack[len(p.stack)-1]
			if top.inElse {
				return nil, p.errorf(token, "duplicate {{else}} in {{#%s}}", top.token.Kind)
			}
			top.inElse = true

		case TokenBlockEnd:
			if err := p.closeBlock(token); err != nil {
				return nil, err
			}

		case TokenPartial:
			node, err := p.parsePartial(token)
			if err != nil {
				return nil, err
			}
			p.emit(node)

		case TokenInvalid:
			if !strings.HasSuffix(token.Value, closeDelim) {
				return nil, p.errorf(token, "unclosed expression %q", abbreviate(token.Value))
			}
			return nil, p.errorf(token, "malformed expression %q", abbreviate(token.Value))

		default:
			return nil, p.errorf(token, "unexpected token type: %v", token.Type)
		}
		p.advance()
	}

	if len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1]
		return nil, p.errorf(top.token, "unterminated block {{#%s}}", top.token.Kind)
	}
	return p.root, nil
}

func (p *Parser) openBlock(token Token) error {
	if token.Kind != blockWith && token.Kind != blockEach {
		return p.errorf(token, "unknown block kind %q", token.Kind)
	}
	if token.Value == "" {
		return p.errorf(token, "block {{#%s}} requires a path", token.Kind)
	}
	path, err := p.parsePath(token, token.Value)
	if err != nil {
		return err
	}

	var node Node
	if token.Kind == blockWith {
		node = &WithBlock{Position: pos(token), Path: path}
	} else {
		node = &EachBlock{Position: pos(token), Path: path}
	}
	p.stack = append(p.stack, &openBlock{token: token, node: node})
	return nil
}

func (p *Parser) closeBlock(token Token) error {
	if len(p.stack) == 0 {
		return p.errorf(token, "unexpected {{/%s}} without matching {{#%s}}", token.Kind, token.Kind)
	}
	top := p.stack[len(p.stack)-1]
	if top.token.Kind != token.Kind {
		return p.errorf(token, "mismatched block: {{/%s}} closes {{#%s}} opened at line %d, column %d",
			token.Kind, top.token.Kind, top.token.Line, top.token.Column)
	}
	switch n := top.node.(type) {
	case *WithBlock:
		n.Body, n.Inverse = top.body, top.inverse
	case *EachBlock:
		n.Body, n.Inverse = top.body, top.inverse
	}
	p.stack = p.stack[:len(p.stack)-1]
	p.emit(top.node)
	return nil
}

func (p *Parser) parsePartial(token Token) (Node, error) {
	if token.Value == "" {
		return nil, p.errorf(token, "partial reference requires a name")
	}
	for _, r := range token.Value {
		if !isPartialNameRune(r) {
			return nil, p.errorf(token, "invalid partial name %q", token.Value)
		}
	}
	node := &PartialNode{Position: pos(token), Name: token.Value}
	if token.Arg != "" {
		path, err := p.parsePath(token, token.Arg)
		if err != nil {
			return nil, err
		}
		node.Context = &path
	}
	return node, nil
}

func isPartialNameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_-./", r)
}

// parsePath parses path text such as "person.name", "@root.title",
// "../label" or "this".
func (p *Parser) parsePath(token Token, text string) (Path, error) {
	var path Path
	if text == "" {
		return path, p.errorf(token, "empty path")
	}
	if strings.ContainsAny(text, " \t\r\n") {
		return path, p.errorf(token, "unsupported expression %q: helpers and parameters are not supported", text)
	}

	for strings.HasPrefix(text, "../") {
		path.Depth++
		text = text[3:]
	}
	if text == ".." {
		path.Depth++
		text = ""
	}
	text = strings.TrimPrefix(text, "./")

	if text == "" || text == "this" || text == "." {
		path.Scope = ScopeThis
		return path, nil
	}

	segments := strings.FieldsFunc(text, func(r rune) bool { return r == '.' || r == '/' })
	if len(segments) == 0 || strings.Contains(text, "..") || strings.Contains(text, "//") ||
		strings.HasSuffix(text, ".") || strings.HasSuffix(text, "/") {
		return path, p.errorf(token, "invalid path %q", text)
	}

	if strings.HasPrefix(segments[0], "@") {
		if path.Depth > 0 {
			return path, p.errorf(token, "invalid path %q: data variables cannot follow ../", text)
		}
		name := segments[0][1:]
		if !validSegment(name) {
			return path, p.errorf(token, "invalid path %q", text)
		}
		if name == "root" {
			path.Scope = ScopeRoot
		} else {
			path.Scope = ScopeData
			path.Data = name
		}
		segments = segments[1:]
	} else if segments[0] == "this" {
		segments = segments[1:]
	}

	for _, seg := range segments {
		if seg == "this" || strings.HasPrefix(seg, "@") {
			return path, p.errorf(token, "invalid path %q: %q must come first", text, seg)
		}
		if !validSegment(seg) {
			return path, p.errorf(token, "invalid path %q: unexpected character in %q", text, seg)
		}
	}
	if len(segments) > 0 {
		path.Segments = segments
	}
	return path, nil
}

// validSegment reports whether seg is a usable identifier: non-empty and free
// of delimiter, operator and quoting characters.
func validSegment(seg string) bool {
	return seg != "" && !strings.ContainsAny(seg, invalidSegmentChars)
}

const invalidSegmentChars = "!\"#%&'()*+,;<=>@[\\]^`{|}~ \t\r\n"

// applyWhitespaceControl returns a copy of tokens with "~" trimming applied to
// the neighbouring text tokens.
func applyWhitespaceControl(tokens []Token) []Token {
	out := make([]Token, len(tokens))
	copy(out, tokens)
	for i, tok := range out {
		if tok.Type == TokenText {
			continue
		}
		if tok.TrimLeft && i > 0 && out[i-1].Type == TokenText {
			out[i-1].Value = strings.TrimRightFunc(out[i-1].Value, unicode.IsSpace)
		}
		if tok.TrimRight && i+1 < len(out) && out[i+1].Type == TokenText {
			out[i+1].Value = strings.TrimLeftFunc(out[i+1].Value, unicode.IsSpace)
		}
	}
	return out
}

func pos(tok Token) Position {
	return Position{Line: tok.Line, Column: tok.Column}
}

func abbreviate(s string) string {
	const limit = 40
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
