package goquery_test

import (
	"context"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableScan_Apply(t *testing.T) {
	t.Parallel()

	t.Run("tr layout pairs first and second cells", func(t *testing.T) {
		t.Parallel()

		in := harvest.TextValue(`<table><tr><td>Color</td><td>Red</td></tr></table>`)

		got, err := goquery.NewTableScan().Apply(context.Background(), in, "tr", harvest.ApplyOptions{})

		require.NoError(t, err)
		require.Equal(t, harvest.TypeTable, got.Type())
		assert.Equal(t, map[string]string{"Color": "Red"}, got.Table().Map())
	})

	t.Run("tr layout skips rows whose name is a header cell", func(t *testing.T) {
		t.Parallel()

		in := harvest.TextValue(`<table><tr><th>Color</th><td>Red</td></tr><tr><td>Size</td><td>XL</td></tr></table>`)

		got, err := goquery.NewTableScan().Apply(context.Background(), in, "tr", harvest.ApplyOptions{})

		require.NoError(t, err)
		assert.Equal(t, []harvest.Field{{Name: "Size", Value: "XL"}}, got.Table().Fields())
	})

	t.Run("empty pattern defaults to tr", func(t *testing.T) {
		t.Parallel()

		in := harvest.TextValue(`<table><tr><td>Size</td><td>XL</td></tr><tr><td>Weight</td><td>2kg</td></tr></table>`)

		got, err := goquery.NewTableScan().Apply(context.Background(), in, "", harvest.ApplyOptions{})

		require.NoError(t, err)
		assert.Equal(t, []harvest.Field{{Name: "Size", Value: "XL"}, {Name: "Weight", Value: "2kg"}}, got.Table().Fields())
	})

	t.Run("dl layout pairs terms with definitions", func(t *testing.T) {
		t.Parallel()

		in := harvest.TextValue(`<dl><dt>Brand</dt><dd>Acme</dd><dt>Model</dt><dd>X1</dd></dl>`)

		got, err := goquery.NewTableScan().Apply(context.Background(), in, "dl", harvest.ApplyOptions{})

		require.NoError(t, err)
		assert.Equal(t, []harvest.Field{{Name: "Brand", Value: "Acme"}, {Name: "Model", Value: "X1"}}, got.Table().Fields())
	})

	t.Run("auto layout detects definition lists", func(t *testing.T) {
		t.Parallel()

		in := harvest.TextValue(`<dl><dt>Brand</dt><dd>Acme</dd></dl>`)

		got, err := goquery.NewTableScan().Apply(context.Background(), in, "auto", harvest.ApplyOptions{})

		require.NoError(t, err)
		assert.Equal(t, map[string]string{"Brand": "Acme"}, got.Table().Map())
	})

	t.Run("custom selectors", func(t *testing.T) {
		t.Parallel()

		in := harvest.TextValue(`<ul class="specs"><li><span class="k">CPU</span><span class="v">8 cores</span></li><li><span class="k">RAM</span><span class="v">16GB</span></li></ul>`)

		got, err := goquery.NewTableScan().Apply(context.Background(), in, "li|ul.specs li|.k|.v", harvest.ApplyOptions{})

		require.NoError(t, err)
		assert.Equal(t, map[string]string{"CPU": "8 cores", "RAM": "16GB"}, got.Table().Map())
	})

	t.Run("skips pairs with an empty side and keeps the last duplicate", func(t *testing.T) {
		t.Parallel()

		in := harvest.TextValue(`<table>
<tr><td>Color</td><td>Red</td></tr>
<tr><td></td><td>orphan</td></tr>
<tr><td>Empty</td><td> </td></tr>
<tr><td>Color</td><td>Blue</td></tr>
</table>`)

		got, err := goquery.NewTableScan().Apply(context.Background(), in, "tr", harvest.ApplyOptions{})

		require.NoError(t, err)
		assert.Equal(t, []harvest.Field{{Name: "Color", Value: "Blue"}}, got.Table().Fields())
	})

	t.Run("unknown layout is invalid", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.NewTableScan().Apply(context.Background(), harvest.TextValue("<table></table>"), "div", harvest.ApplyOptions{})

		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})

	t.Run("wrong number of parts is invalid", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.NewTableScan().Apply(context.Background(), harvest.TextValue("<table></table>"), "tr|td", harvest.ApplyOptions{})

		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})

	t.Run("non-string input returns an empty table", func(t *testing.T) {
		t.Parallel()

		table := harvest.NewTable()
		table.Set("a", "b")

		got, err := goquery.NewTableScan().Apply(context.Background(), harvest.TableValue(table), "tr", harvest.ApplyOptions{})

		require.NoError(t, err)
		assert.Equal(t, harvest.TypeTable, got.Type())
		assert.Zero(t, got.Table().Len())
	})

	t.Run("registered layouts are available by name", func(t *testing.T) {
		t.Parallel()

		layouts := goquery.DefaultLayouts()
		layouts.Register("specs", goquery.Layout{Row: ".row", Attr: ".name", Value: ".val"})
		in := harvest.TextValue(`<div class="row"><b class="name">Speed</b><i class="val">fast</i></div>`)

		got, err := goquery.NewTableScan(goquery.WithLayouts(layouts)).Apply(context.Background(), in, "specs", harvest.ApplyOptions{})

		require.NoError(t, err)
		assert.Equal(t, map[string]string{"Speed": "fast"}, got.Table().Map())
		assert.Equal(t, []string{"dl", "specs", "tr"}, layouts.List())
	})
}
