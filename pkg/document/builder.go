// SPDX-License-Identifier: Apache-2.0

package document

import (
	"reflect"

	"github.com/wikyd/sunspot/pkg/fieldtype"
	loglib "github.com/wikyd/sunspot/pkg/log"
	"github.com/wikyd/sunspot/pkg/setup"
)

// Builder maps class instances into engine documents using the declarations
// registered for their class.
type Builder struct {
	logger   loglib.Logger
	registry declarationResolver
}

type declarationResolver interface {
	Resolve(class *setup.Class) (*setup.DeclarationSet, error)
	ConfiguredTypes(class *setup.Class) []string
}

type Option func(*Builder)

func NewBuilder(registry *setup.Registry, opts ...Option) *Builder {
	b := &Builder{
		logger:   loglib.NewNoopLogger(),
		registry: registry,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

func WithLogger(l loglib.Logger) Option {
	return func(b *Builder) {
		b.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField: "document_builder",
		})
	}
}

// Build returns the document for the instance on input. It has no side
// effects on the instance or the registry.
func (b *Builder) Build(instance setup.Instance) (*Document, error) {
	if instance == nil {
		return nil, errNilInstance
	}

	class := instance.Class()
	types, err := b.configuredTypes(class)
	if err != nil {
		return nil, err
	}

	set, err := b.registry.Resolve(class)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		ID:     documentID(types, instance),
		Types:  types,
		Fields: make(map[string]any, set.Len()),
	}

	for _, decl := range set.Declarations() {
		if err := b.addField(doc, class, decl, instance); err != nil {
			return nil, err
		}
	}

	b.logger.Trace("document built", loglib.Fields{
		loglib.DocumentField: doc.ID,
		"fields":             len(doc.Fields),
	})

	return doc, nil
}

// DocumentID returns the engine id of the instance without building its
// fields.
func (b *Builder) DocumentID(instance setup.Instance) (string, error) {
	if instance == nil {
		return "", errNilInstance
	}

	types, err := b.configuredTypes(instance.Class())
	if err != nil {
		return "", err
	}
	return documentID(types, instance), nil
}

func (b *Builder) configuredTypes(class *setup.Class) ([]string, error) {
	types := b.registry.ConfiguredTypes(class)
	if len(types) == 0 {
		return nil, setup.ErrNotConfigured{Class: class.Name()}
	}
	return types, nil
}

func (b *Builder) addField(doc *Document, class *setup.Class, decl *setup.Declaration, instance setup.Instance) error {
	fieldErr := func(err error) error {
		return ErrFieldValue{Class: class.Name(), Field: decl.Name, Err: err}
	}

	name, err := decl.IndexedName()
	if err != nil {
		return fieldErr(err)
	}

	value, err := decl.Value(instance)
	if err != nil {
		return fieldErr(err)
	}

	elements, isSequence := sequence(value)
	if !decl.Multiple {
		if isSequence {
			return ErrCardinality{Class: class.Name(), Field: decl.Name}
		}
		if isNil(value) {
			return nil
		}
		encoded, err := fieldtype.Encode(decl.Type, value)
		if err != nil {
			return fieldErr(err)
		}
		doc.Fields[name] = encoded
		return nil
	}

	if !isSequence {
		elements = []any{value}
	}

	encoded := make([]string, 0, len(elements))
	for _, element := range elements {
		if isNil(element) {
			continue
		}
		s, err := fieldtype.Encode(decl.Type, element)
		if err != nil {
			return fieldErr(err)
		}
		encoded = append(encoded, s)
	}

	if len(encoded) == 0 {
		return nil
	}
	doc.Fields[name] = encoded
	return nil
}

func documentID(types []string, instance setup.Instance) string {
	return types[0] + " " + instance.PersistentID()
}

// sequence returns the elements of slice and array values. Byte slices are
// treated as scalars.
func sequence(value any) ([]any, bool) {
	if value == nil {
		return nil, false
	}
	if _, ok := value.([]byte); ok {
		return nil, false
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		elements := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			elements = append(elements, v.Index(i).Interface())
		}
		return elements, true
	default:
		return nil, false
	}
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
