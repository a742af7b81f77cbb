// SPDX-License-Identifier: Apache-2.0

package setup

import (
	"bytes"
	"fmt"
	"slices"
	"text/template"
	"text/template/parse"

	"github.com/Masterminds/sprig/v3"
)

// NewTemplateResolver returns a virtual field resolver rendering the text
// template on input. The template data holds the instance attributes it
// references, so `{{ .title | trimPrefix "The " | lower }}` reads the title
// attribute. Sprig functions are available.
//
// The field is omitted when none of the referenced attributes has a value,
// or when the template renders to an empty string.
func NewTemplateResolver(name, text string) (Resolver, error) {
	tmpl, err := template.New(name).
		Funcs(sprig.FuncMap()).
		Option("missingkey=zero").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing template for field [%s]: %w", name, err)
	}

	attributes := []string{}
	if tmpl.Tree != nil {
		attributes = templateAttributes(tmpl.Tree.Root)
	}

	return func(instance Instance) (any, error) {
		data := make(map[string]any, len(attributes))
		for _, attr := range attributes {
			value, err := instance.FieldValue(attr)
			if err != nil {
				return nil, err
			}
			if value != nil {
				data[attr] = value
			}
		}
		if len(attributes) > 0 && len(data) == 0 {
			return nil, nil
		}

		buf := &bytes.Buffer{}
		if err := tmpl.Execute(buf, data); err != nil {
			return nil, fmt.Errorf("rendering template for field [%s]: %w", name, err)
		}
		if buf.Len() == 0 {
			return nil, nil
		}
		return buf.String(), nil
	}, nil
}

// templateAttributes returns the top level attribute names referenced by
// the template, in order of appearance.
func templateAttributes(root parse.Node) []string {
	attributes := []string{}
	add := func(name string) {
		if !slices.Contains(attributes, name) {
			attributes = append(attributes, name)
		}
	}

	var walk func(n parse.Node)
	walk = func(n parse.Node) {
		switch node := n.(type) {
		case *parse.ListNode:
			if node == nil {
				return
			}
			for _, child := range node.Nodes {
				walk(child)
			}
		case *parse.ActionNode:
			walk(node.Pipe)
		case *parse.PipeNode:
			if node == nil {
				return
			}
			for _, cmd := range node.Cmds {
				walk(cmd)
			}
		case *parse.CommandNode:
			for _, arg := range node.Args {
				walk(arg)
			}
		case *parse.FieldNode:
			add(node.Ident[0])
		case *parse.ChainNode:
			walk(node.Node)
		case *parse.IfNode:
			walkBranch(&node.BranchNode, walk)
		case *parse.RangeNode:
			walkBranch(&node.BranchNode, walk)
		case *parse.WithNode:
			walkBranch(&node.BranchNode, walk)
		}
	}
	walk(root)

	return attributes
}

func walkBranch(node *parse.BranchNode, walk func(parse.Node)) {
	walk(node.Pipe)
	walk(node.List)
	if node.ElseList != nil {
		walk(node.ElseList)
	}
}
