// SPDX-License-Identifier: Apache-2.0

package setup

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DeclarationsFile is the YAML representation of a set of class
// declarations. Parent classes must be listed before their children unless
// they are already registered.
//
//	classes:
//	  - name: Post
//	    parent: BaseClass
//	    fields:
//	      - name: title
//	        type: text
//	      - name: category_ids
//	        type: integer
//	        multiple: true
//	      - name: sort_title
//	        type: string
//	        template: '{{ .title | trimPrefix "The " | lower }}'
//
// A field with a template is virtual, its value is rendered from the
// attributes the template references.
type DeclarationsFile struct {
	Classes []ClassDeclaration `yaml:"classes"`
}

type ClassDeclaration struct {
	Name   string             `yaml:"name"`
	Parent string             `yaml:"parent"`
	Fields []FieldDeclaration `yaml:"fields"`
}

type FieldDeclaration struct {
	Name     string         `yaml:"name"`
	Type     string         `yaml:"type"`
	Multiple bool           `yaml:"multiple"`
	Options  map[string]any `yaml:"options"`
	Template string         `yaml:"template"`
}

var errMissingClassName = errors.New("class name must not be empty")

// LoadDeclarationsFile reads the YAML declarations file on input and
// registers its classes and fields.
func (r *Registry) LoadDeclarationsFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening declarations file: %w", err)
	}
	defer f.Close()

	return r.LoadDeclarations(f)
}

// LoadDeclarations decodes YAML declarations from the reader and registers
// them. Registration stops at the first invalid declaration.
func (r *Registry) LoadDeclarations(reader io.Reader) error {
	file := DeclarationsFile{}
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding declarations: %w", err)
	}

	for _, classDecl := range file.Classes {
		class, err := r.classFor(classDecl)
		if err != nil {
			return err
		}

		if err := r.Setup(class); err != nil {
			return err
		}

		for _, field := range classDecl.Fields {
			if err := r.declareField(class, field); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *Registry) declareField(class *Class, field FieldDeclaration) error {
	if field.Template == "" {
		return r.Declare(class, field.Name, field.Type, field.Multiple, field.Options)
	}

	if err := validateOptions(class, field.Name, field.Options); err != nil {
		return err
	}
	resolver, err := NewTemplateResolver(field.Name, field.Template)
	if err != nil {
		return ErrInvalidDeclaration{Class: class.Name(), Field: field.Name, Reason: err.Error()}
	}
	return r.DeclareVirtual(class, field.Name, field.Type, field.Multiple, resolver)
}

func (r *Registry) classFor(decl ClassDeclaration) (*Class, error) {
	if decl.Name == "" {
		return nil, errMissingClassName
	}

	var parent *Class
	if decl.Parent != "" {
		var found bool
		parent, found = r.Lookup(decl.Parent)
		if !found {
			return nil, ErrInvalidDeclaration{
				Class:  decl.Name,
				Reason: fmt.Sprintf("parent class [%s] is not registered", decl.Parent),
			}
		}
	}

	if existing, found := r.Lookup(decl.Name); found {
		if existing.Parent() != parent {
			return nil, ErrInvalidDeclaration{
				Class:  decl.Name,
				Reason: fmt.Sprintf("class already registered with parent [%s]", existing.Parent().Name()),
			}
		}
		return existing, nil
	}

	return NewClass(decl.Name, parent), nil
}
