package charset_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/fwojciec/harvest/charset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestNormalizer_Detect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "http-equiv content type",
			content: `<head><meta http-equiv="Content-Type" content="text/html; charset=windows-1251"></head>`,
			want:    "windows-1251",
		},
		{
			name:    "http-equiv is case-insensitive",
			content: `<META HTTP-EQUIV="content-type" CONTENT="text/html; CHARSET=KOI8-R" />`,
			want:    "KOI8-R",
		},
		{
			name:    "content attribute before http-equiv",
			content: `<meta content="text/html; charset=iso-8859-1" http-equiv="Content-Type">`,
			want:    "iso-8859-1",
		},
		{
			name:    "html5 meta charset",
			content: `<head><meta charset="utf-8"/></head>`,
			want:    "utf-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := charset.NewNormalizer().Detect(tt.content)

			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizer_Detect_MissingDeclarationLogsWarning(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	n := charset.NewNormalizer(charset.WithLogger(logger))

	got, ok := n.Detect("<html><head><title>x</title></head></html>")

	assert.False(t, ok)
	assert.Empty(t, got)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "charset declaration not found")
}

func TestNormalizer_Normalize(t *testing.T) {
	t.Parallel()

	t.Run("re-encodes windows-1251 to UTF-8", func(t *testing.T) {
		t.Parallel()

		encoded, err := charmap.Windows1251.NewEncoder().Bytes([]byte("Привет"))
		require.NoError(t, err)

		got := charset.NewNormalizer().Normalize(encoded, "windows-1251")

		assert.Equal(t, "Привет", string(got))
	})

	t.Run("utf-8 is a no-op", func(t *testing.T) {
		t.Parallel()

		in := []byte("Привет")

		got := charset.NewNormalizer().Normalize(in, "UTF-8")

		assert.Equal(t, in, got)
	})

	t.Run("unknown charset returns input and logs error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		in := []byte("hello")

		got := charset.NewNormalizer(charset.WithLogger(logger)).Normalize(in, "no-such-charset")

		assert.Equal(t, in, got)
		assert.Contains(t, buf.String(), "level=ERROR")
	})
}

func TestNormalizer_NormalizeDocument(t *testing.T) {
	t.Parallel()

	t.Run("uses the declared charset", func(t *testing.T) {
		t.Parallel()

		doc := `<html><head><meta http-equiv="Content-Type" content="text/html; charset=windows-1251"></head><body>Привет</body></html>`
		encoded, err := charmap.Windows1251.NewEncoder().Bytes([]byte(doc))
		require.NoError(t, err)

		got := charset.NewNormalizer().NormalizeDocument(encoded)

		assert.Equal(t, doc, string(got))
	})

	t.Run("returns undeclared content unchanged without sniffing", func(t *testing.T) {
		t.Parallel()

		in := []byte("<html><body>plain</body></html>")

		got := charset.NewNormalizer().NormalizeDocument(in)

		assert.Equal(t, in, got)
	})

	t.Run("returns undeclared UTF-8 content unchanged with sniffing", func(t *testing.T) {
		t.Parallel()

		in := []byte("<html><body>Привет, мир! Это документ в кодировке UTF-8.</body></html>")

		got := charset.NewNormalizer(charset.WithSniffing(true)).NormalizeDocument(in)

		assert.Equal(t, in, got)
	})
}
