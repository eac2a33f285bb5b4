package handlebars

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPartialNotFound is wrapped by the RenderError returned when a
	// {{> name}} reference cannot be resolved.
	ErrPartialNotFound = errors.New("partial not found")
	// ErrTemplateNotFound is returned when running a template name that was
	// never compiled.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrMaxDepthExceeded is returned when partials nest deeper than the
	// configured MaxRenderDepth.
	ErrMaxDepthExceeded = errors.New("maximum render depth exceeded")
)

// CompileError represents an error in the template structure or syntax
type CompileError struct {
	Template string
	Message  string
	Line     int
	Column   int
}

func (e *CompileError) Error() string {
	prefix := "compile error"
	if e.Template != "" {
		prefix = fmt.Sprintf("compile error in %q", e.Template)
	}
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("%s at line %d, column %d: %s", prefix, e.Line, e.Column, e.Message)
	} else if e.Line > 0 {
		return fmt.Sprintf("%s at line %d: %s", prefix, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// NewCompileError creates a new compile error with position information
func NewCompileError(template, message string, line, column int) error {
	return &CompileError{
		Template: template,
		Message:  message,
		Line:     line,
		Column:   column,
	}
}

// RenderError represents an error during rendering
type RenderError struct {
	Template string
	Message  string
	Line     int
	Column   int
	Cause    error
}

func (e *RenderError) Error() string {
	var b strings.Builder
	b.WriteString("render error")
	if e.Template != "" {
		fmt.Fprintf(&b, " in %q", e.Template)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d, column %d", e.Line, e.Column)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// NewRenderError creates a new render error
func NewRenderError(template, message string, cause error) error {
	return &RenderError{
		Template: template,
		Message:  message,
		Cause:    cause,
	}
}

// MultiError collects multiple errors
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// Len returns the number of errors
func (m *MultiError) Len() int {
	return len(m.errors)
}

// Err returns the multi-error or nil if empty
func (m *MultiError) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	if len(m.errors) == 1 {
		return m.errors[0]
	}
	return m
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.errors
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}

	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d errors occurred:", len(m.errors)))
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// RecoverError converts a panic recovery value to an error
func RecoverError(r interface{}) error {
	switch v := r.(type) {
	case error:
		return fmt.Errorf("panic recovered: %w", v)
	case string:
		return fmt.Errorf("panic recovered: %s", v)
	default:
		return fmt.Errorf("panic recovered: %v", v)
	}
}

// IsCompileError checks if an error is a compile error
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// IsRenderError checks if an error is a render error
func IsRenderError(err error) bool {
	var re *RenderError
	return errors.As(err, &re)
}

// IsPartialNotFound checks if an error reports a missing partial
func IsPartialNotFound(err error) bool {
	return errors.Is(err, ErrPartialNotFound)
}
