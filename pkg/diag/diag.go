// Package diag holds the diagnostics reported while processing sources.
//
// A diagnostic renders as "<absolute file path>:<line>: <message>". Errors
// fail the pass once every file has been scanned; warnings are only reported.
package diag

import (
	"fmt"
	"sort"
)

// Severity ranks a diagnostic.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Location is a position in a source file. Line is 1-based; 0 means the whole
// file.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	if l.Line > 0 {
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
	return l.File
}

// Diagnostic is one reported problem.
type Diagnostic struct {
	Severity Severity
	Location
	Message string
}

func (d Diagnostic) String() string {
	if d.File == "" {
		return d.Message
	}
	return d.Location.String() + ": " + d.Message
}

// Errorf returns an error diagnostic at loc.
func Errorf(loc Location, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Error, Location: loc, Message: fmt.Sprintf(format, args...)}
}

// Warnf returns a warning diagnostic at loc.
func Warnf(loc Location, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Warning, Location: loc, Message: fmt.Sprintf(format, args...)}
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

// HasErrors reports whether any diagnostic is an error.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Errors returns only the error diagnostics.
func (l List) Errors() List {
	return l.filter(Error)
}

// Warnings returns only the warning diagnostics.
func (l List) Warnings() List {
	return l.filter(Warning)
}

func (l List) filter(s Severity) List {
	var out List
	for _, d := range l {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

// Sort orders the list by file, line and message so output is stable across
// parallel scans.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		a, b := l[i], l[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Message < b.Message
	})
}

// Err returns an error summarizing the error diagnostics, or nil if there are
// none.
func (l List) Err() error {
	errs := l.Errors()
	if len(errs) == 0 {
		return nil
	}
	return &ListError{Diagnostics: errs}
}

// ListError is returned when a pass records error diagnostics.
type ListError struct {
	Diagnostics List
}

func (e *ListError) Error() string {
	if len(e.Diagnostics) == 1 {
		return e.Diagnostics[0].String()
	}
	return fmt.Sprintf("%s (and %d more errors)", e.Diagnostics[0].String(), len(e.Diagnostics)-1)
}
