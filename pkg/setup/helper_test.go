// SPDX-License-Identifier: Apache-2.0

package setup

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testInstance struct {
	class  *Class
	id     string
	values map[string]any
}

func (i *testInstance) Class() *Class {
	return i.class
}

func (i *testInstance) PersistentID() string {
	return i.id
}

func (i *testInstance) FieldValue(name string) (any, error) {
	return i.values[name], nil
}

func declarationNames(set *DeclarationSet) []string {
	names := []string{}
	for _, d := range set.Declarations() {
		names = append(names, d.Name)
	}
	return names
}

func indexedNames(t *testing.T, set *DeclarationSet) []string {
	t.Helper()
	names := []string{}
	for _, d := range set.Declarations() {
		name, err := d.IndexedName()
		require.NoError(t, err)
		names = append(names, name)
	}
	return names
}
