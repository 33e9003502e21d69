package issuance

import (
	"testing"
	"testing/fstest"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer(t *testing.T) {
	fsys := fstest.MapFS{
		"Badge.json":  {Data: []byte(`{"name": {{ json .NAME }}, "holder": {{ json .HOLDER }}}`)},
		"Broken.json": {Data: []byte(`{"name": {{ json .NAME }`)},
	}
	r := NewRenderer(fsys)

	t.Run("substitutes and escapes values", func(t *testing.T) {
		out, err := r.Render("Badge", map[string]string{"NAME": `Quote "Q" Badge`, "HOLDER": "did:example:1"})
		require.NoError(t, err)

		var doc map[string]string
		require.NoError(t, json.Unmarshal([]byte(out), &doc))
		assert.Equal(t, `Quote "Q" Badge`, doc["name"])
		assert.Equal(t, "did:example:1", doc["holder"])
	})

	t.Run("renders from cache on repeat", func(t *testing.T) {
		first, err := r.Render("Badge", map[string]string{"NAME": "a", "HOLDER": "b"})
		require.NoError(t, err)
		second, err := r.Render("Badge", map[string]string{"NAME": "a", "HOLDER": "b"})
		require.NoError(t, err)
		assert.Equal(t, first, second)
		_, cached := r.cache.Load("Badge")
		assert.True(t, cached)
	})

	t.Run("missing template", func(t *testing.T) {
		assert.False(t, r.Exists("Diploma"))
		_, err := r.Render("Diploma", nil)
		assert.True(t, errors.Is(err, ErrTemplateNotFound))
	})

	t.Run("unbound placeholder", func(t *testing.T) {
		_, err := r.Render("Badge", map[string]string{"NAME": "a"})
		assert.ErrorContains(t, err, "executing template<Badge>")
	})

	t.Run("unparsable template", func(t *testing.T) {
		_, err := r.Render("Broken", map[string]string{"NAME": "a"})
		assert.ErrorContains(t, err, "parsing template<Broken>")
	})
}

func TestDefaultTemplates(t *testing.T) {
	r := NewRenderer(DefaultTemplates())
	assert.True(t, r.Exists("ID"))
}
