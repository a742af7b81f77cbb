// SPDX-License-Identifier: Apache-2.0

package fieldtype

import (
	"fmt"
	"sync"
)

// Type is the semantic type of a declared field. It determines the dynamic
// field suffix used by the search engine and how values are serialized.
type Type uint

const (
	StringType Type = iota
	TextType
	IntegerType
	FloatType
	TimeType
	BooleanType
)

// Codec serializes a field value into its engine string representation.
type Codec func(value any) (string, error)

const (
	stringToken  = "string"
	textToken    = "text"
	integerToken = "integer"
	floatToken   = "float"
	timeToken    = "time"
	booleanToken = "boolean"
)

type definition struct {
	token          string
	singleSuffix   string
	multipleSuffix string
	codec          Codec
}

var (
	tableLock sync.RWMutex
	table     = map[Type]definition{
		StringType:  {token: stringToken, singleSuffix: "_s", multipleSuffix: "_sm", codec: encodeString},
		TextType:    {token: textToken, singleSuffix: "_text", multipleSuffix: "_text", codec: encodeString},
		IntegerType: {token: integerToken, singleSuffix: "_i", multipleSuffix: "_im", codec: encodeInteger},
		FloatType:   {token: floatToken, singleSuffix: "_f", multipleSuffix: "_fm", codec: encodeFloat},
		TimeType:    {token: timeToken, singleSuffix: "_d", multipleSuffix: "_dm", codec: encodeTime},
		BooleanType: {token: booleanToken, singleSuffix: "_b", multipleSuffix: "_bm", codec: encodeBoolean},
	}
	tokens = map[string]Type{}
	// next available type for registered extensions
	nextType = BooleanType + 1
)

func init() {
	for t, def := range table {
		tokens[def.token] = t
	}
}

// Register extends the table with a new type. It is expected to be called
// during program initialisation, before any declaration uses the token.
func Register(token, singleSuffix, multipleSuffix string, codec Codec) (Type, error) {
	if token == "" || singleSuffix == "" || multipleSuffix == "" || codec == nil {
		return 0, fmt.Errorf("register field type %q: token, suffixes and codec are required", token)
	}

	tableLock.Lock()
	defer tableLock.Unlock()

	if _, found := tokens[token]; found {
		return 0, fmt.Errorf("register field type %q: token already registered", token)
	}

	t := nextType
	nextType++
	table[t] = definition{
		token:          token,
		singleSuffix:   singleSuffix,
		multipleSuffix: multipleSuffix,
		codec:          codec,
	}
	tokens[token] = t
	return t, nil
}

// Parse returns the type registered under the token on input.
func Parse(token string) (Type, error) {
	tableLock.RLock()
	defer tableLock.RUnlock()

	t, found := tokens[token]
	if !found {
		return 0, ErrUnknownType{Input: token}
	}
	return t, nil
}

// Suffix returns the engine field name suffix for the type and cardinality on
// input.
func Suffix(t Type, multiple bool) (string, error) {
	def, err := lookup(t)
	if err != nil {
		return "", err
	}
	if multiple {
		return def.multipleSuffix, nil
	}
	return def.singleSuffix, nil
}

// CodecFor returns the value codec for the type on input.
func CodecFor(t Type) (Codec, error) {
	def, err := lookup(t)
	if err != nil {
		return nil, err
	}
	return def.codec, nil
}

// Encode serializes a single (scalar) value using the type codec.
func Encode(t Type, value any) (string, error) {
	codec, err := CodecFor(t)
	if err != nil {
		return "", err
	}
	return codec(value)
}

// Validate returns an error if the type is not part of the table.
func Validate(t Type) error {
	_, err := lookup(t)
	return err
}

func (t Type) String() string {
	tableLock.RLock()
	defer tableLock.RUnlock()

	if def, found := table[t]; found {
		return def.token
	}
	return fmt.Sprintf("unknown(%d)", uint(t))
}

func lookup(t Type) (definition, error) {
	tableLock.RLock()
	defer tableLock.RUnlock()

	def, found := table[t]
	if !found {
		return definition{}, ErrUnknownType{Input: fmt.Sprintf("%d", uint(t))}
	}
	return def, nil
}
