package htmltomarkdown_test

import (
	"testing"

	"github.com/fwojciec/harvest/htmltomarkdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverter_Convert(t *testing.T) {
	t.Parallel()

	t.Run("converts basic paragraph", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(`<p>Hello, world!</p>`)

		require.NoError(t, err)
		assert.Equal(t, "Hello, world!", md)
	})

	t.Run("converts headings", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(`<h1>Title</h1><h2>Subtitle</h2>`)

		require.NoError(t, err)
		assert.Contains(t, md, "# Title")
		assert.Contains(t, md, "## Subtitle")
	})

	t.Run("converts links and emphasis", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(`<p>See <a href="https://example.com/item">the <strong>item</strong></a></p>`)

		require.NoError(t, err)
		assert.Equal(t, "See [the **item**](https://example.com/item)", md)
	})

	t.Run("converts tables", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(`<table><tr><th>Key</th><th>Value</th></tr><tr><td>Color</td><td>Red</td></tr></table>`)

		require.NoError(t, err)
		assert.Contains(t, md, "| Color")
		assert.Contains(t, md, "Red")
	})

	t.Run("resolves relative links against the domain", func(t *testing.T) {
		t.Parallel()

		conv := htmltomarkdown.NewConverter(htmltomarkdown.WithDomain("https://shop.example"))

		md, err := conv.Convert(`<a href="/item/1">Lamp</a>`)

		require.NoError(t, err)
		assert.Equal(t, "[Lamp](https://shop.example/item/1)", md)
	})

	t.Run("blank input yields empty markdown", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert("   ")

		require.NoError(t, err)
		assert.Empty(t, md)
	})
}
