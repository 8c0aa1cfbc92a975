package goquery_test

import (
	"context"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectDoc = `<html><head><title>Head title</title></head><body class="page">
<div class="price">10</div><div class="price">20</div>
<span id="name">Widget</span>
</body></html>`

func TestSelect_Apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		raw     bool
		want    string
	}{
		{name: "single match text", pattern: "#name", want: "Widget"},
		{name: "multiple matches concatenate text", pattern: ".price", want: "1020"},
		{name: "no match returns empty text", pattern: ".missing", want: ""},
		{name: "raw prefix returns outer html", pattern: "raw:#name", want: `<span id="name">Widget</span>`},
		{name: "engine raw returns outer html", pattern: ".price", raw: true, want: `<div class="price">10</div><div class="price">20</div>`},
		{name: "selection is limited to the body", pattern: "title", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := goquery.NewSelect().Apply(context.Background(), harvest.TextValue(selectDoc), tt.pattern, harvest.ApplyOptions{Raw: tt.raw})

			require.NoError(t, err)
			assert.Equal(t, harvest.TypeText, got.Type())
			assert.Equal(t, tt.want, got.Text())
		})
	}
}

func TestSelect_Apply_WithoutBody(t *testing.T) {
	t.Parallel()

	got, err := goquery.NewSelect().Apply(context.Background(), harvest.TextValue(`<p>fragment</p>`), "p", harvest.ApplyOptions{})

	require.NoError(t, err)
	assert.Equal(t, "fragment", got.Text())
}

func TestSelect_Apply_InvalidSelector(t *testing.T) {
	t.Parallel()

	_, err := goquery.NewSelect().Apply(context.Background(), harvest.TextValue(selectDoc), "div[", harvest.ApplyOptions{})

	require.Error(t, err)
	assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
}

func TestSelect_Apply_NonStringInput(t *testing.T) {
	t.Parallel()

	table := harvest.NewTable()
	table.Set("a", "b")

	got, err := goquery.NewSelect().Apply(context.Background(), harvest.TableValue(table), "p", harvest.ApplyOptions{})

	require.NoError(t, err)
	assert.Equal(t, harvest.TextValue(""), got)
}

func TestStripTags(t *testing.T) {
	t.Parallel()

	got, err := goquery.StripTags(`<p>Hello <b>bold</b> world</p>`)

	require.NoError(t, err)
	assert.Equal(t, "Hello bold world", got)
}
