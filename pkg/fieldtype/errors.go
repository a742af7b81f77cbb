// SPDX-License-Identifier: Apache-2.0

package fieldtype

import (
	"errors"
	"fmt"
)

type ErrUnknownType struct {
	Input string
}

func (e ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown field type: %s", e.Input)
}

type ErrInvalidValue struct {
	Type  string
	Value any
}

func (e ErrInvalidValue) Error() string {
	return fmt.Sprintf("value %v (%T) cannot be encoded as %s", e.Value, e.Value, e.Type)
}

// IsUnknownType reports whether the error is (or wraps) an ErrUnknownType.
func IsUnknownType(err error) bool {
	return errors.As(err, &ErrUnknownType{})
}
