// SPDX-License-Identifier: Apache-2.0

package document

const (
	IDField   = "id"
	TypeField = "type"
)

// Document is the engine representation of an indexed instance. Field values
// are either a string (single valued fields) or a []string (multi valued
// fields), keyed by their dynamic field name.
type Document struct {
	ID string
	// Types lists every configured class in the instance ancestry, most
	// specific first.
	Types  []string
	Fields map[string]any
}

// Map returns the flat engine representation of the document, including the
// id and type fields.
func (d *Document) Map() map[string]any {
	m := make(map[string]any, len(d.Fields)+2)
	for k, v := range d.Fields {
		m[k] = v
	}
	m[IDField] = d.ID
	m[TypeField] = d.Types
	return m
}
