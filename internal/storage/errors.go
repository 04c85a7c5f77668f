package storage

import "fmt"

// UnknownViewError indicates a table or view name that does not exist in
// the store.
type UnknownViewError struct {
	Name string
}

func (e *UnknownViewError) Error() string {
	return fmt.Sprintf("unknown view or table %q", e.Name)
}

// InvalidAttrError indicates a column or property that does not exist on
// the referenced table or view.
type InvalidAttrError struct {
	Name string
}

func (e *InvalidAttrError) Error() string {
	return fmt.Sprintf("invalid attribute %q", e.Name)
}

// IncompatibleTypeError indicates an attempt to combine views over
// different object types.
type IncompatibleTypeError struct {
	View string
	Have string
	Want string
}

func (e *IncompatibleTypeError) Error() string {
	return fmt.Sprintf("view %q has type %q; cannot assign type %q", e.View, e.Have, e.Want)
}

// InvalidObjectError indicates an object that cannot be loaded.
type InvalidObjectError struct {
	Reason string
}

func (e *InvalidObjectError) Error() string {
	return "invalid object: " + e.Reason
}
