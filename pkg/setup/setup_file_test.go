// SPDX-License-Identifier: Apache-2.0

package setup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikyd/sunspot/pkg/fieldtype"
)

const testDeclarations = `
classes:
  - name: BaseClass
    fields:
      - name: author_name
        type: string
  - name: Post
    parent: BaseClass
    fields:
      - name: title
        type: text
      - name: blog_id
        type: integer
      - name: category_ids
        type: integer
        multiple: true
      - name: average_rating
        type: float
      - name: published_at
        type: time
      - name: sort_title
        type: string
        template: '{{ .title | trimPrefix "The " | lower }}'
`

func TestRegistry_LoadDeclarations(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.LoadDeclarations(strings.NewReader(testDeclarations)))
	require.Equal(t, []string{"BaseClass", "Post"}, r.Classes())

	post, found := r.Lookup("Post")
	require.True(t, found)
	require.Equal(t, "BaseClass", post.Parent().Name())

	set, err := r.Resolve(post)
	require.NoError(t, err)
	require.Equal(t, []string{"author_name", "title", "blog_id", "category_ids", "average_rating", "published_at", "sort_title"}, declarationNames(set))

	categoryIDs, _ := set.Get("category_ids_im")
	require.Equal(t, fieldtype.IntegerType, categoryIDs.Type)
	require.True(t, categoryIDs.Multiple)

	indexedName, err := categoryIDs.IndexedName()
	require.NoError(t, err)
	require.Equal(t, "category_ids_im", indexedName)

	sortTitle, found := set.Get("sort_title_s")
	require.True(t, found)
	require.True(t, sortTitle.IsVirtual())
	value, err := sortTitle.Value(&testInstance{class: post, values: map[string]any{"title": "The Blog Post"}})
	require.NoError(t, err)
	require.Equal(t, "blog post", value)

	// loading the same declarations again reuses the registered classes
	require.NoError(t, r.LoadDeclarations(strings.NewReader(testDeclarations)))
	again, _ := r.Lookup("Post")
	require.Equal(t, post, again)
}

func TestRegistry_LoadDeclarations_errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string

		wantErr string
	}{
		{
			name:  "empty input",
			input: "",
		},
		{
			name: "unknown parent",
			input: `
classes:
  - name: Post
    parent: BaseClass
`,
			wantErr: "parent class [BaseClass] is not registered",
		},
		{
			name: "missing class name",
			input: `
classes:
  - fields:
      - name: title
        type: text
`,
			wantErr: errMissingClassName.Error(),
		},
		{
			name: "unknown field type",
			input: `
classes:
  - name: Post
    fields:
      - name: title
        type: journey
`,
			wantErr: "unknown field type: journey",
		},
		{
			name: "unsupported option",
			input: `
classes:
  - name: Post
    fields:
      - name: title
        type: text
        options:
          boost: 2
`,
			wantErr: "unsupported options: boost",
		},
		{
			name: "invalid template",
			input: `
classes:
  - name: Post
    fields:
      - name: sort_title
        type: string
        template: '{{ .title | lower'
`,
			wantErr: "invalid declaration for field [sort_title] on class [Post]: parsing template",
		},
		{
			name: "unknown template function",
			input: `
classes:
  - name: Post
    fields:
      - name: sort_title
        type: string
        template: '{{ .title | shout }}'
`,
			wantErr: "function \"shout\" not defined",
		},
		{
			name: "template with unsupported option",
			input: `
classes:
  - name: Post
    fields:
      - name: sort_title
        type: string
        template: '{{ .title }}'
        options:
          boost: 2
`,
			wantErr: "unsupported options: boost",
		},
		{
			name: "unknown yaml key",
			input: `
classes:
  - name: Post
    indexed: true
`,
			wantErr: "decoding declarations",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := NewRegistry().LoadDeclarations(strings.NewReader(tc.input))
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestRegistry_LoadDeclarationsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "declarations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testDeclarations), 0o600))

	r := NewRegistry()
	require.NoError(t, r.LoadDeclarationsFile(path))
	require.Equal(t, []string{"BaseClass", "Post"}, r.Classes())

	err := r.LoadDeclarationsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
