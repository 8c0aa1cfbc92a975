package harvest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := harvest.Errorf(harvest.ESTATUS, "response code %d", 503)

	assert.Equal(t, harvest.ESTATUS, harvest.ErrorCode(err))
	assert.Equal(t, "response code 503", harvest.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, harvest.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, harvest.ErrorMessage(nil))
}

func TestErrorCode_ForeignError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, harvest.EINTERNAL, harvest.ErrorCode(errors.New("boom")))
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	err := harvest.WrapError(harvest.EFETCH, context.Canceled, "fetching %s", "https://example.com")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, harvest.EFETCH, harvest.ErrorCode(err))
	assert.Contains(t, err.Error(), "fetching https://example.com")
}

func TestHasCaptcha(t *testing.T) {
	t.Parallel()

	t.Run("detects marker inside content", func(t *testing.T) {
		t.Parallel()
		assert.True(t, harvest.HasCaptcha("...CAPTCHA_MARKER...", "CAPTCHA_MARKER"))
	})

	t.Run("clean page has no captcha", func(t *testing.T) {
		t.Parallel()
		assert.False(t, harvest.HasCaptcha("clean page", "CAPTCHA_MARKER"))
	})

	t.Run("empty marker never matches", func(t *testing.T) {
		t.Parallel()
		assert.False(t, harvest.HasCaptcha("anything at all", ""))
		assert.False(t, harvest.HasCaptcha("", ""))
	})
}
