package xmlbind

import (
	"errors"
	"fmt"
	"reflect"
)

// Error classes. Every error returned by this package wraps exactly one of
// these, so callers can branch with errors.Is.
var (
	// ErrSchema is wrapped by configuration problems found while declaring
	// a schema. It is never produced while binding a document.
	ErrSchema = errors.New("schema configuration error")
	// ErrDocument is wrapped by failures of the document tree provider.
	ErrDocument = errors.New("document error")
	// ErrCoercion is wrapped when matched text cannot be converted to the
	// declared scalar type.
	ErrCoercion = errors.New("coercion error")
	// ErrRootNotFound is returned by Decoder.Decode when the document does
	// not contain the element the root type is declared for.
	ErrRootNotFound = errors.New("root element not found")
)

// SchemaError reports an invalid declaration.
type SchemaError struct {
	Schema string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s: %s", ErrSchema, e.Schema, e.Reason)
	}
	return fmt.Sprintf("%s: %s.%s: %s", ErrSchema, e.Schema, e.Field, e.Reason)
}

// Unwrap returns ErrSchema.
func (e *SchemaError) Unwrap() error { return ErrSchema }

func schemaErrorf(schema, field, format string, args ...any) error {
	return &SchemaError{Schema: schema, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// DocumentError wraps an error from the document tree provider.
type DocumentError struct {
	Err error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", ErrDocument, e.Err)
}

// Unwrap returns both ErrDocument and the provider's error.
func (e *DocumentError) Unwrap() []error { return []error{ErrDocument, e.Err} }

// CoercionError reports text that could not be converted to a scalar type.
// Path locates the offending value, e.g. "/address/country/@code".
type CoercionError struct {
	Path string
	Text string
	Type reflect.Type
	Err  error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s: %s: cannot convert %q to %v: %v", ErrCoercion, e.Path, e.Text, e.Type, e.Err)
}

// Unwrap returns both ErrCoercion and the underlying conversion error.
func (e *CoercionError) Unwrap() []error { return []error{ErrCoercion, e.Err} }
