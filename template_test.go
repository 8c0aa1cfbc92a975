package harvest_test

import (
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	t.Run("accepts short and descriptive names", func(t *testing.T) {
		t.Parallel()

		cases := map[string]harvest.Kind{
			"xpath":              harvest.KindPathQuery,
			"path-query":         harvest.KindPathQuery,
			"REGEX":              harvest.KindPatternMatch,
			"tabl":               harvest.KindTableScan,
			"transform":          harvest.KindTransform,
			"render-mode-select": harvest.KindSelect,
			"save":               harvest.KindPersist,
		}
		for name, want := range cases {
			got, err := harvest.ParseKind(name)
			require.NoError(t, err, name)
			assert.Equal(t, want, got, name)
		}
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		t.Parallel()

		_, err := harvest.ParseKind("eval")
		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})
}

func TestParseTemplate(t *testing.T) {
	t.Parallel()

	t.Run("splits on the first equals sign", func(t *testing.T) {
		t.Parallel()

		tpl, err := harvest.ParseTemplate("jq=a[href=\"/x\"]")
		require.NoError(t, err)
		assert.Equal(t, harvest.KindSelect, tpl.Kind)
		assert.Equal(t, "a[href=\"/x\"]", tpl.Pattern)
	})

	t.Run("requires a separator", func(t *testing.T) {
		t.Parallel()

		_, err := harvest.ParseTemplate("xpath")
		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})
}

func TestNewPipeline(t *testing.T) {
	t.Parallel()

	t.Run("rejects an empty template list", func(t *testing.T) {
		t.Parallel()

		_, err := harvest.NewPipeline()
		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})

	t.Run("normalizes aliases", func(t *testing.T) {
		t.Parallel()

		p, err := harvest.NewPipeline(
			harvest.Template{Kind: "path-query", Pattern: "//li"},
			harvest.Template{Kind: harvest.KindPatternMatch, Pattern: `\d+`},
		)
		require.NoError(t, err)
		require.Equal(t, 2, p.Len())
		assert.Equal(t, harvest.KindPathQuery, p.Templates()[0].Kind)
	})

	t.Run("templates cannot be modified through the accessor", func(t *testing.T) {
		t.Parallel()

		p, err := harvest.NewPipeline(harvest.Template{Kind: harvest.KindPathQuery, Pattern: "//li"})
		require.NoError(t, err)

		tpls := p.Templates()
		tpls[0].Pattern = "//changed"

		assert.Equal(t, "//li", p.Templates()[0].Pattern)
	})
}
