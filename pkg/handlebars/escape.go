package handlebars

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// SafeString is text that is already safe to embed in HTML. It is written
// out verbatim even by escaping {{expressions}}.
type SafeString string

func (s SafeString) String() string {
	return string(s)
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"`", "&#x60;",
	"=", "&#x3D;",
)

// EscapeHTML escapes the characters & < > " ' ` = the way {{expression}}
// output is escaped.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// FormatValue converts a value to its string representation
func FormatValue(value interface{}) string {
	if isAbsent(value) {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case SafeString:
		return string(v)
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", v)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', 10, 32)
	case float64:
		// 'g' with precision 15 drops trailing zeros and float noise
		return strconv.FormatFloat(v, 'g', 15, 64)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	}

	// Sequences render as their elements joined by commas.
	if items, ok := toSlice(value); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = FormatValue(item)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprintf("%v", value)
}

var (
	rawPolicyOnce sync.Once
	rawPolicy     *bluemonday.Policy
)

// SanitizeHTML strips scripts, event handlers and other unsafe markup from
// unescaped output while keeping ordinary formatting tags.
func SanitizeHTML(raw string) string {
	rawPolicyOnce.Do(func() {
		rawPolicy = bluemonday.UGCPolicy()
	})
	return rawPolicy.Sanitize(raw)
}
