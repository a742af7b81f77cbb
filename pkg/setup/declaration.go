// SPDX-License-Identifier: Apache-2.0

package setup

import (
	"github.com/wikyd/sunspot/pkg/fieldtype"
)

// Declaration describes how a single attribute of a class is indexed.
type Declaration struct {
	Name     string
	Type     fieldtype.Type
	Multiple bool
	Owner    *Class
	// Resolver is set for virtual fields, whose value is computed from the
	// instance rather than read from it.
	Resolver Resolver
}

func (d *Declaration) IsVirtual() bool {
	return d.Resolver != nil
}

// IndexedName returns the dynamic field name used by the search engine.
func (d *Declaration) IndexedName() (string, error) {
	suffix, err := fieldtype.Suffix(d.Type, d.Multiple)
	if err != nil {
		return "", err
	}
	return d.Name + suffix, nil
}

// Value returns the raw value of the declared field for the instance.
func (d *Declaration) Value(instance Instance) (any, error) {
	if d.IsVirtual() {
		return d.Resolver(instance)
	}
	return instance.FieldValue(d.Name)
}

// DeclarationSet is the resolved set of declarations that apply to a class,
// including the ones inherited from its ancestors.
type DeclarationSet struct {
	class        *Class
	declarations []*Declaration
	// declaration position by engine field name
	byName map[string]int
}

func newDeclarationSet(class *Class) *DeclarationSet {
	return &DeclarationSet{
		class:        class,
		declarations: []*Declaration{},
		byName:       map[string]int{},
	}
}

// merge adds the declaration to the set. A declaration with the same engine
// field name replaces the existing one in place, so the same attribute can be
// indexed under several types.
func (s *DeclarationSet) merge(indexedName string, d *Declaration) {
	if i, found := s.byName[indexedName]; found {
		s.declarations[i] = d
		return
	}
	s.byName[indexedName] = len(s.declarations)
	s.declarations = append(s.declarations, d)
}

func (s *DeclarationSet) Class() *Class {
	return s.class
}

// Declarations returns the resolved declarations in resolution order:
// ancestors first, each class in declaration order.
func (s *DeclarationSet) Declarations() []*Declaration {
	declarations := make([]*Declaration, len(s.declarations))
	copy(declarations, s.declarations)
	return declarations
}

// Get returns the declaration indexed under the engine field name on input
// ("title_text", "category_ids_im").
func (s *DeclarationSet) Get(indexedName string) (*Declaration, bool) {
	i, found := s.byName[indexedName]
	if !found {
		return nil, false
	}
	return s.declarations[i], true
}

func (s *DeclarationSet) Len() int {
	return len(s.declarations)
}
