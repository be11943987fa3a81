package parser

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// ErrorContext indicates the environment where parser errors will be displayed
type ErrorContext string

const (
	// ErrorContextTerminal indicates errors will be displayed in terminal with ANSI colors
	ErrorContextTerminal ErrorContext = "terminal"
	// ErrorContextPlain indicates errors will be displayed without ANSI codes (logs, APIs)
	ErrorContextPlain ErrorContext = "plain"
)

// ErrorKind categorizes parser errors for programmatic handling
type ErrorKind string

const (
	KindSyntax     ErrorKind = "syntax"     // malformed statement structure
	KindUnknownOp  ErrorKind = "unknown_op" // unrecognized operator or copula token
	KindArity      ErrorKind = "arity"      // wrong component count for an operator
	KindTruthRange ErrorKind = "truth"      // truth literal component out of range
	KindTrailing   ErrorKind = "trailing"   // non-whitespace input after a complete statement
)

// ParseError represents a structured parser error with source position metadata.
type ParseError struct {
	Err         error     // Underlying error (term construction, strconv)
	Kind        ErrorKind // Error category
	Message     string    // Human-readable message
	Pos         Position  // Source position where the error occurred
	Found       string    // The offending token text, if any
	Suggestions []string  // Possible fixes
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return e.FormatError(ErrorContextPlain)
}

// FormatError generates a context-appropriate error message.
func (e *ParseError) FormatError(ctx ErrorContext) string {
	if ctx == ErrorContextTerminal {
		return e.formatTerminalError()
	}
	return e.formatPlainError()
}

// formatPlainError creates a concise single-line error for logs and APIs.
func (e *ParseError) formatPlainError() string {
	msg := fmt.Sprintf("%s (line %d, column %d)", e.Message, e.Pos.Line, e.Pos.Character)
	if e.Found != "" {
		msg += fmt.Sprintf(", found %q", e.Found)
	}
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(". Suggestions: %s", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

// formatTerminalError creates a colored multi-line error for terminal use.
func (e *ParseError) formatTerminalError() string {
	var b strings.Builder
	b.WriteString(pterm.Red(e.Message))
	b.WriteString(fmt.Sprintf("\n\n%s", pterm.LightCyan("Context:")))
	b.WriteString(fmt.Sprintf("\n  %s line %d, column %d",
		pterm.Yellow("Position:"), e.Pos.Line, e.Pos.Character))
	if e.Found != "" {
		b.WriteString(fmt.Sprintf("\n  %s %q", pterm.Yellow("Found:"), e.Found))
	}
	if len(e.Suggestions) > 0 {
		b.WriteString(fmt.Sprintf("\n\n%s", pterm.Green("Suggestions:")))
		for _, s := range e.Suggestions {
			b.WriteString("\n  - " + s)
		}
	}
	return b.String()
}

// Unwrap for errors.Is/As compatibility
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Builder pattern for constructing ParseErrors

// NewParseError creates a new ParseError with the given kind and message
func NewParseError(kind ErrorKind, message string) *ParseError {
	return &ParseError{Kind: kind, Message: message}
}

// WithPosition sets the source position where the error occurred
func (e *ParseError) WithPosition(pos Position) *ParseError {
	e.Pos = pos
	return e
}

// WithFound sets the offending token text
func (e *ParseError) WithFound(found string) *ParseError {
	e.Found = found
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ParseError) WithSuggestion(suggestion string) *ParseError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithUnderlying sets the underlying error
func (e *ParseError) WithUnderlying(err error) *ParseError {
	e.Err = err
	return e
}
