// SPDX-License-Identifier: Apache-2.0

package document

import (
	"errors"
	"fmt"
)

type ErrCardinality struct {
	Class string
	Field string
}

func (e ErrCardinality) Error() string {
	return fmt.Sprintf("field [%s] on class [%s] is single valued but got a sequence", e.Field, e.Class)
}

type ErrFieldValue struct {
	Class string
	Field string
	Err   error
}

func (e ErrFieldValue) Error() string {
	return fmt.Sprintf("field [%s] on class [%s]: %v", e.Field, e.Class, e.Err)
}

func (e ErrFieldValue) Unwrap() error {
	return e.Err
}

var errNilInstance = errors.New("instance must not be nil")
