// SPDX-License-Identifier: Apache-2.0

package setup

import (
	"errors"
	"fmt"
	"strings"
)

type ErrInvalidDeclaration struct {
	Class  string
	Field  string
	Reason string
}

func (e ErrInvalidDeclaration) Error() string {
	return fmt.Sprintf("invalid declaration for field [%s] on class [%s]: %s", e.Field, e.Class, e.Reason)
}

type ErrNotConfigured struct {
	Class string
}

func (e ErrNotConfigured) Error() string {
	return fmt.Sprintf("class [%s] has no search configuration", e.Class)
}

func newUnknownOptionsErr(class *Class, field string, keys []string) ErrInvalidDeclaration {
	return ErrInvalidDeclaration{
		Class:  class.Name(),
		Field:  field,
		Reason: fmt.Sprintf("unsupported options: %s", strings.Join(keys, ", ")),
	}
}

var (
	errNilClass    = errors.New("class must not be nil")
	errNilResolver = errors.New("virtual field resolver must not be nil")
	errEmptyName   = errors.New("field name must not be empty")
)
