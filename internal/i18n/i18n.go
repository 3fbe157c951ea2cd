// Package i18n holds the bot's message catalog. The original deployment is
// single-locale: the language is chosen once from configuration, not per
// user, so the localizer is a plain lookup table loaded from embedded JSON.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed locales/*.json
var localesFS embed.FS

// Languages supported by the embedded catalogs.
var supportedLanguages = []string{"en", "fa"}

// Localizer resolves message keys to translated text.
type Localizer struct {
	translations map[string]map[string]string
}

// NewLocalizer creates a new Localizer instance and loads all translations.
func NewLocalizer() (*Localizer, error) {
	locale := &Localizer{
		translations: make(map[string]map[string]string),
	}

	for _, lang := range supportedLanguages {
		if err := locale.loadLanguage(lang); err != nil {
			return nil, fmt.Errorf("failed to load language %s: %w", lang, err)
		}
	}

	return locale, nil
}

// loadLanguage loads translations for a specific language from embedded JSON files.
func (l *Localizer) loadLanguage(lang string) error {
	filename := fmt.Sprintf("locales/%s.json", lang)
	data, err := localesFS.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read locale file %s: %w", filename, err)
	}

	var translations map[string]string
	if err = json.Unmarshal(data, &translations); err != nil {
		return fmt.Errorf("failed to unmarshal locale file %s: %w", filename, err)
	}

	l.translations[lang] = translations

	return nil
}

// Get returns the translation for the given key in the specified language.
// Missing keys fall back to English, then to the key itself, so a typo in a
// catalog never breaks a reply.
func (l *Localizer) Get(lang, key string) string {
	if langTranslations, ok := l.translations[lang]; ok {
		if translation, exists := langTranslations[key]; exists {
			return translation
		}
	}

	if lang != "en" {
		if enTranslations, ok := l.translations["en"]; ok {
			if translation, exists := enTranslations[key]; exists {
				return translation
			}
		}
	}

	return key
}

// GetWithData returns the translation for the given key with placeholder
// replacement. Placeholders use the {name} form:
// GetWithData("en", "reserve.created", map[string]interface{}{"meal": "..."}).
func (l *Localizer) GetWithData(lang, key string, data map[string]interface{}) string {
	translation := l.Get(lang, key)

	for k, v := range data {
		placeholder := fmt.Sprintf("{%s}", k)
		translation = strings.ReplaceAll(translation, placeholder, fmt.Sprintf("%v", v))
	}

	return translation
}
