package errors

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryScan       Category = "scan"
	CategoryValidation Category = "validation"
	CategoryArtifact   Category = "artifact"
	CategoryOutput     Category = "output"
	CategoryCLI        Category = "cli"
)

// Location represents a source code location.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	switch {
	case l.Line <= 0:
		return l.File
	case l.Column > 0:
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	default:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
}

// KobgenError is a structured error with a code, source location and a hint
// on how to fix it.
type KobgenError struct {
	// Code is a unique error identifier (e.g., "K301").
	Code string

	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	Location *Location

	// Context contains source lines around Location, starting at
	// ContextStart.
	Context      []string
	ContextStart int

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *KobgenError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *KobgenError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a source location to the error, along with the lines
// around it when the file can be read.
func (e *KobgenError) WithLocation(file string, line, column int) *KobgenError {
	e.Location = &Location{File: file, Line: line, Column: column}
	if line > 0 {
		e.Context, e.ContextStart = readContextLines(file, line, 5)
	}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *KobgenError) WithSuggestion(s string) *KobgenError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *KobgenError) WithDetail(d string) *KobgenError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *KobgenError) Wrap(err error) *KobgenError {
	e.Wrapped = err
	return e
}

// readContextLines reads up to contextSize lines centered on targetLine and
// returns them with the number of the first one.
func readContextLines(filename string, targetLine, contextSize int) ([]string, int) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	startLine := max(targetLine-contextSize/2, 1)
	endLine := targetLine + contextSize/2

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}
	if len(lines) == 0 {
		return nil, 0
	}
	return lines, startLine
}

// New creates a KobgenError from a registered error code.
func New(code string) *KobgenError {
	template, ok := registry[code]
	if !ok {
		return &KobgenError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &KobgenError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new KobgenError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *KobgenError {
	return &KobgenError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in a KobgenError with code, unless err already carries
// one.
func FromError(err error, code string) *KobgenError {
	if err == nil {
		return nil
	}
	var ke *KobgenError
	if errors.As(err, &ke) {
		return ke
	}
	return New(code).Wrap(err)
}
