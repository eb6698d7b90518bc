package params

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRequiredParameter aborts a resolution pass: the parameter has
	// neither a stored value nor a default.
	ErrMissingRequiredParameter = errors.New("params: missing required parameter")
	// ErrUnknownParameter rejects a snapshot naming a field the host lacks.
	ErrUnknownParameter = errors.New("params: unknown parameter")
	// ErrTypeMismatch marks a raw value that cannot be coerced to the declared type.
	ErrTypeMismatch = errors.New("params: type mismatch")
	// ErrOutOfBounds marks a value clamped to a declared bound.
	ErrOutOfBounds = errors.New("params: out of bounds")
	// ErrConstantOverride marks a store value found for a constant parameter.
	ErrConstantOverride = errors.New("params: constant override ignored")
	// ErrNotFound is returned by stores when a key is absent.
	ErrNotFound = errors.New("params: key not found")
	// ErrUnknownField is returned by hosts that do not declare a field.
	ErrUnknownField = errors.New("params: unknown host field")
)

var (
	ErrDescriptorName         = errors.New("params: descriptor name must be provided")
	ErrDuplicateParameter     = errors.New("params: descriptor names must be unique")
	ErrConstantWithoutDefault = errors.New("params: constant parameter requires a default")
	ErrInvalidType            = errors.New("params: invalid descriptor type")
	ErrInvalidBounds          = errors.New("params: invalid descriptor bounds")
	ErrInvalidDefault         = errors.New("params: default does not match declared type")
)

// MissingParameterError reports a required parameter without a stored value.
type MissingParameterError struct {
	Name string
	Key  string
}

func (e *MissingParameterError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("params: parameter %s (%s) is neither set in the store nor has a default value", e.Name, e.Key)
}

func (e *MissingParameterError) Unwrap() error {
	return ErrMissingRequiredParameter
}

// UnknownParameterError reports a snapshot key with no matching host field.
type UnknownParameterError struct {
	Name string
}

func (e *UnknownParameterError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("params: element %s of snapshot is not part of parameters", e.Name)
}

func (e *UnknownParameterError) Unwrap() error {
	return ErrUnknownParameter
}

// TypeMismatchError captures why a raw value failed coercion.
type TypeMismatchError struct {
	Name     string
	Expected string
	Value    any
	Err      error
}

func (e *TypeMismatchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("params: parameter %s expects %s, got %T(%v)", e.Name, e.Expected, e.Value, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeMismatchError) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Err == nil {
		return []error{ErrTypeMismatch}
	}
	return []error{ErrTypeMismatch, e.Err}
}

// DescriptorError reports an invalid descriptor found while building a set.
type DescriptorError struct {
	Name   string
	Reason string
	Err    error
}

func (e *DescriptorError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Reason == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Name)
	}
	return fmt.Sprintf("%v: %s: %s", e.Err, e.Name, e.Reason)
}

func (e *DescriptorError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// FieldTypeError is returned by typed host fields rejecting a value.
type FieldTypeError struct {
	Name     string
	Expected string
	Value    any
}

func (e *FieldTypeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("params: field %s expects %s, got %T", e.Name, e.Expected, e.Value)
}

// StoreError wraps a failure reported by the store collaborator.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("params: store %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
