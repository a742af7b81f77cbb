// SPDX-License-Identifier: Apache-2.0

package setup

// Class identifies an indexable type of object. The parent link models the
// type hierarchy used for declaration inheritance.
type Class struct {
	name   string
	parent *Class
}

// Instance is an object that can be indexed. FieldValue returns the value
// for a declared attribute name. A nil value is treated as absent.
type Instance interface {
	Class() *Class
	PersistentID() string
	FieldValue(name string) (any, error)
}

// Resolver computes the value of a virtual field from the instance.
type Resolver func(Instance) (any, error)

func NewClass(name string, parent *Class) *Class {
	return &Class{
		name:   name,
		parent: parent,
	}
}

func (c *Class) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

func (c *Class) Parent() *Class {
	if c == nil {
		return nil
	}
	return c.parent
}

// Ancestry returns the class followed by all its ancestors, most specific
// first.
func (c *Class) Ancestry() []*Class {
	ancestry := []*Class{}
	for cls := c; cls != nil; cls = cls.parent {
		ancestry = append(ancestry, cls)
	}
	return ancestry
}

// IsA returns true if the class is other or one of its descendants.
func (c *Class) IsA(other *Class) bool {
	for cls := c; cls != nil; cls = cls.parent {
		if cls == other {
			return true
		}
	}
	return false
}

func (c *Class) String() string {
	return c.Name()
}
