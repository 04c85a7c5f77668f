package stixpat

import "fmt"

// PatternError reports a STIX pattern that could not be parsed or compiled.
// It always carries the offending pattern text.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid STIX pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// UnsupportedOperatorError reports an operator that is legal in general but
// not for the given object type, e.g. ISSUBSET on a non-address property.
type UnsupportedOperatorError struct {
	Op      string
	ScoType string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("%s not supported for SCO type %s", e.Op, e.ScoType)
}
