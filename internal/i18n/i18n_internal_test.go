package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalizer(t *testing.T) {
	t.Parallel()

	localizer, err := NewLocalizer()

	require.NoError(t, err)
	for _, lang := range supportedLanguages {
		assert.NotEmpty(t, localizer.translations[lang], "catalog for %s should not be empty", lang)
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	localizer, err := NewLocalizer()
	require.NoError(t, err)

	t.Run("known key", func(t *testing.T) {
		t.Parallel()
		assert.NotEqual(t, "menu.tomorrow", localizer.Get("en", "menu.tomorrow"))
	})

	t.Run("falls back to english for unknown language", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, localizer.Get("en", "menu.tomorrow"), localizer.Get("de", "menu.tomorrow"))
	})

	t.Run("unknown key returns the key", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "no.such.key", localizer.Get("en", "no.such.key"))
	})

	t.Run("persian catalog has the same keys as english", func(t *testing.T) {
		t.Parallel()
		for key := range translationsOf(localizer, "en") {
			_, ok := translationsOf(localizer, "fa")[key]
			assert.True(t, ok, "fa catalog is missing %q", key)
		}
	})
}

func translationsOf(l *Localizer, lang string) map[string]string {
	return l.translations[lang]
}

func TestGetWithData(t *testing.T) {
	t.Parallel()

	localizer, err := NewLocalizer()
	require.NoError(t, err)

	text := localizer.GetWithData("en", "reserve.window_closed", map[string]interface{}{
		"start": 18,
		"end":   23,
	})

	assert.Contains(t, text, "18:00")
	assert.Contains(t, text, "23:00")
}
