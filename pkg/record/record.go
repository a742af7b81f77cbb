// SPDX-License-Identifier: Apache-2.0

package record

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/wikyd/sunspot/internal/json"
	"github.com/wikyd/sunspot/pkg/setup"
)

// Record is an indexable instance backed by a JSON object of the form
//
//	{"class": "Post", "id": 1, "attributes": {"title": "...", "blog": {"id": 4}}}
//
// Field values are read from the attributes object using gjson paths, so a
// declared field name can address nested values ("blog.id").
type Record struct {
	class *setup.Class
	id    string
	raw   []byte
}

// ClassLookup resolves class names to registered classes.
type ClassLookup interface {
	Lookup(name string) (*setup.Class, bool)
}

const (
	ClassKey      = "class"
	IDKey         = "id"
	AttributesKey = "attributes"
)

var (
	errInvalidJSON   = errors.New("record is not valid json")
	errNotAnObject   = errors.New("record must be a json object")
	errMissingClass  = errors.New("record class must not be empty")
	errMissingID     = errors.New("record id must not be empty")
	errNilClass      = errors.New("record class must not be nil")
	errInvalidObject = errors.New("record attributes must be a json object")
)

type ErrUnknownClass struct {
	Name string
}

func (e ErrUnknownClass) Error() string {
	return fmt.Sprintf("unknown record class %q", e.Name)
}

var setOpts = &sjson.Options{
	ReplaceInPlace: true,
}

// New returns a record of the class and id on input with no attributes.
func New(class *setup.Class, id string) (*Record, error) {
	if class == nil {
		return nil, errNilClass
	}
	if id == "" {
		return nil, errMissingID
	}

	raw, err := sjson.SetBytes([]byte(`{}`), ClassKey, class.Name())
	if err != nil {
		return nil, fmt.Errorf("setting record class: %w", err)
	}
	raw, err = sjson.SetBytesOptions(raw, IDKey, id, setOpts)
	if err != nil {
		return nil, fmt.Errorf("setting record id: %w", err)
	}

	return &Record{class: class, id: id, raw: raw}, nil
}

// Parse decodes a single JSON record, resolving its class with the lookup
// on input.
func Parse(lookup ClassLookup, data []byte) (*Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, errInvalidJSON
	}
	return fromResult(lookup, gjson.ParseBytes(data))
}

// ParseMany decodes either a single JSON record or an array of records.
func ParseMany(lookup ClassLookup, data []byte) ([]*Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, errInvalidJSON
	}

	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		r, err := fromResult(lookup, parsed)
		if err != nil {
			return nil, err
		}
		return []*Record{r}, nil
	}

	records := []*Record{}
	var err error
	parsed.ForEach(func(_, value gjson.Result) bool {
		var r *Record
		r, err = fromResult(lookup, value)
		if err != nil {
			err = fmt.Errorf("record %d: %w", len(records), err)
			return false
		}
		records = append(records, r)
		return true
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func fromResult(lookup ClassLookup, result gjson.Result) (*Record, error) {
	if !result.IsObject() {
		return nil, errNotAnObject
	}

	className := result.Get(ClassKey).String()
	if className == "" {
		return nil, errMissingClass
	}
	class, found := lookup.Lookup(className)
	if !found {
		return nil, ErrUnknownClass{Name: className}
	}

	id := result.Get(IDKey).String()
	if id == "" {
		return nil, errMissingID
	}

	if attrs := result.Get(AttributesKey); attrs.Exists() && attrs.Type != gjson.Null && !attrs.IsObject() {
		return nil, errInvalidObject
	}

	return &Record{
		class: class,
		id:    id,
		raw:   []byte(result.Raw),
	}, nil
}

func (r *Record) Class() *setup.Class {
	return r.class
}

func (r *Record) PersistentID() string {
	return r.id
}

// FieldValue returns the attribute at the path on input. Missing attributes
// and JSON nulls are returned as nil. Numbers are returned as json.Number
// literals.
func (r *Record) FieldValue(name string) (any, error) {
	res := gjson.GetBytes(r.raw, AttributesKey+"."+name)
	if !res.Exists() {
		return nil, nil
	}
	return resultValue(res), nil
}

func resultValue(res gjson.Result) any {
	switch {
	case res.Type == gjson.Number:
		return json.Number(res.Raw)
	case res.IsArray():
		items := res.Array()
		values := make([]any, 0, len(items))
		for _, item := range items {
			values = append(values, resultValue(item))
		}
		return values
	default:
		return res.Value()
	}
}

// Set stores the value at the attribute path on input.
func (r *Record) Set(name string, value any) error {
	raw, err := sjson.SetBytesOptions(r.raw, AttributesKey+"."+name, value, setOpts)
	if err != nil {
		return fmt.Errorf("setting attribute %s: %w", name, err)
	}
	r.raw = raw
	return nil
}

// Bytes returns the JSON representation of the record.
func (r *Record) Bytes() []byte {
	return r.raw
}
