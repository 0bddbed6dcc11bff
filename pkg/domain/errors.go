package domain

import "fmt"

// MissingFieldError reports a raw row lacking a required field.
type MissingFieldError struct {
	Row    int
	Person string
	Field  string
}

func (e MissingFieldError) Error() string {
	if e.Person == "" {
		return fmt.Sprintf("row %d: missing field %s", e.Row, e.Field)
	}
	return fmt.Sprintf("row %d (%s): missing field %s", e.Row, e.Person, e.Field)
}

// DuplicatePersonError reports two rows sharing a name.
type DuplicatePersonError struct {
	Name string
}

func (e DuplicatePersonError) Error() string {
	return fmt.Sprintf("duplicate person %q", e.Name)
}

// ConfigurationError reports a field whose value is outside its accepted range.
type ConfigurationError struct {
	Person string
	Field  string
	Value  any
	Reason string
}

func (e ConfigurationError) Error() string {
	if e.Person == "" {
		return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s: invalid %s %v: %s", e.Person, e.Field, e.Value, e.Reason)
}

// ErrNotFound is returned when a referenced record does not exist.
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
