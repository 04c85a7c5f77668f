// Package validate checks SQL identifiers and STIX object paths before they
// are ever interpolated into SQL text. Values bound as query parameters do
// not pass through here; everything that becomes part of a statement does.
package validate

import (
	"fmt"
	"regexp"
)

var (
	nameRe = regexp.MustCompile(`^[\w-]*$`)
	pathRe = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9-]*:)?[\w.'-]+(\[\*\])?[\w.'-]*$`)
)

// InvalidNameError reports a table, view, column, or alias name that is not
// a valid identifier.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid identifier: %q", e.Name)
}

// InvalidPathError reports a malformed STIX object path, or a reference
// segment with no resolvable target type.
type InvalidPathError struct {
	Path string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid STIX path: %q", e.Path)
}

// Name returns an error unless s is a valid SQL identifier: word characters
// and hyphens only. The empty string is allowed.
func Name(s string) error {
	if !nameRe.MatchString(s) {
		return &InvalidNameError{Name: s}
	}
	return nil
}

// Path returns an error unless s is a valid STIX object path or property
// name: an optional `type:` prefix, dot-separated word/hyphen/quote
// segments, and an optional trailing `[*]` list marker.
func Path(s string) error {
	if !pathRe.MatchString(s) {
		return &InvalidPathError{Path: s}
	}
	return nil
}
