package handlebars

import (
	"strings"
)

// TokenType represents the type of a template token
type TokenType int

const (
	TokenText TokenType = iota
	TokenExpression
	TokenRawExpression
	TokenBlockStart
	TokenBlockEnd
	TokenElse
	TokenPartial
	TokenComment
	TokenInvalid
)

func (t TokenType) String() string {
	switch t {
	case TokenText:
		return "Text"
	case TokenExpression:
		return "Expression"
	case TokenRawExpression:
		return "RawExpression"
	case TokenBlockStart:
		return "BlockStart"
	case TokenBlockEnd:
		return "BlockEnd"
	case TokenElse:
		return "Else"
	case TokenPartial:
		return "Partial"
	case TokenComment:
		return "Comment"
	case TokenInvalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// Token represents a lexed template token.
//
// Value holds the verbatim text for TokenText, the path text for expressions
// and block starts, the partial name for TokenPartial and the offending source
// for TokenInvalid. Kind is the block kind ("each", "with") and Arg the
// optional context path of a partial.
type Token struct {
	Type      TokenType
	Value     string
	Kind      string
	Arg       string
	TrimLeft  bool
	TrimRight bool
	Line      int
	Column    int
}

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

type lexer struct {
	input  string
	pos    int
	line   int
	column int
	tokens []Token
}

// Tokenize splits template text into tokens. It never fails: malformed tags
// are emitted as TokenInvalid and reported by the parser.
func Tokenize(input string) []Token {
	logger := GetLogger()
	if logger.IsDebugMode() {
		logger.WithField("input_length", len(input)).Debug("Starting tokenization")
	}

	l := &lexer{input: input, line: 1, column: 1}
	l.run()

	if logger.IsDebugMode() {
		logger.WithField("token_count", len(l.tokens)).Debug("Tokenization complete")
	}
	return l.tokens
}

func (l *lexer) run() {
	for l.pos < len(l.input) {
		idx := strings.Index(l.input[l.pos:], openDelim)
		if idx < 0 {
			l.emitText(len(l.input))
			return
		}
		start := l.pos + idx
		if start > l.pos {
			l.emitText(start)
		}
		line, column := l.line, l.column
		tok, end, ok := l.lexTag(start)
		tok.Line, tok.Column = line, column
		if !ok {
			tok = Token{Type: TokenInvalid, Value: l.input[start:], Line: line, Column: column}
			end = len(l.input)
		}
		l.tokens = append(l.tokens, tok)
		l.advanceTo(end)
	}
}

func (l *lexer) emitText(end int) {
	l.tokens = append(l.tokens, Token{
		Type:   TokenText,
		Value:  l.input[l.pos:end],
		Line:   l.line,
		Column: l.column,
	})
	l.advanceTo(end)
}

// advanceTo moves the cursor to offset, keeping line and column in step.
func (l *lexer) advanceTo(offset int) {
	for _, r := range l.input[l.pos:offset] {
		if r == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
	}
	l.pos = offset
}

// lexTag lexes the tag opening at start and returns the token and the offset
// just past its closing delimiter.
func (l *lexer) lexTag(start int) (Token, int, bool) {
	i := start + len(openDelim)
	var tok Token
	if strings.HasPrefix(l.input[i:], "~") {
		tok.TrimLeft = true
		i++
	}

	rest := l.input[i:]
	switch {
	case strings.HasPrefix(rest, "{"):
		end, trim, ok := findClose(l.input, i+1, "}"+closeDelim, "}~"+closeDelim)
		if !ok {
			return tok, 0, false
		}
		tok.Type = TokenRawExpression
		tok.Value = strings.TrimSpace(l.input[i+1 : end.content])
		tok.TrimRight = trim
		return tok, end.next, true

	case strings.HasPrefix(rest, "!--"):
		end, trim, ok := findClose(l.input, i+3, "--"+closeDelim, "--~"+closeDelim)
		if !ok {
			return tok, 0, false
		}
		tok.Type = TokenComment
		tok.Value = l.input[i+3 : end.content]
		tok.TrimRight = trim
		return tok, end.next, true
	}

	end, trim, ok := findClose(l.input, i, closeDelim, "~"+closeDelim)
	if !ok {
		return tok, 0, false
	}
	tok.TrimRight = trim
	classify(&tok, strings.TrimSpace(l.input[i:end.content]), l.input[start:end.next])
	return tok, end.next, true
}

type closing struct {
	content int // offset where the tag content ends
	next    int // offset just past the closing delimiter
}

// findClose finds the earliest of the plain or trimming closing delimiter
// at or after from.
func findClose(input string, from int, plain, trimming string) (closing, bool, bool) {
	p := strings.Index(input[from:], plain)
	t := strings.Index(input[from:], trimming)
	switch {
	case t >= 0 && (p < 0 || t < p):
		return closing{content: from + t, next: from + t + len(trimming)}, true, true
	case p >= 0:
		return closing{content: from + p, next: from + p + len(plain)}, false, true
	default:
		return closing{}, false, false
	}
}

// classify determines the token type from the tag content.
func classify(tok *Token, content, source string) {
	if content == "" {
		tok.Type = TokenInvalid
		tok.Value = source
		return
	}

	switch content[0] {
	case '!':
		tok.Type = TokenComment
		tok.Value = content[1:]
	case '#':
		tok.Type = TokenBlockStart
		kind, path := splitFirst(content[1:])
		tok.Kind = kind
		tok.Value = path
	case '/':
		tok.Type = TokenBlockEnd
		tok.Kind = strings.TrimSpace(content[1:])
	case '>':
		tok.Type = TokenPartial
		name, arg := splitFirst(content[1:])
		tok.Value = name
		tok.Arg = arg
	case '&':
		tok.Type = TokenRawExpression
		tok.Value = strings.TrimSpace(content[1:])
	case '^':
		if strings.TrimSpace(content[1:]) == "" {
			tok.Type = TokenElse
			return
		}
		tok.Type = TokenInvalid
		tok.Value = source
	default:
		if content == "else" {
			tok.Type = TokenElse
			return
		}
		tok.Type = TokenExpression
		tok.Value = content
	}
}

// splitFirst splits s into its first whitespace-separated word and the
// trimmed remainder.
func splitFirst(s string) (string, string) {
	s = strings.TrimSpace(s)
	idx := strings.IndexAny(s, " \t\r\n")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx:])
}
