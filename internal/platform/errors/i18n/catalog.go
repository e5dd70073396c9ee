// Package i18n renders user-facing messages for ledger error codes.
package i18n

import (
	"bytes"
	"sync"
	"text/template"

	"golang.org/x/text/language"
)

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale   string
	messages map[Code]string
}

var (
	catalogsMu sync.RWMutex
	catalogs   = map[language.Tag]*Catalog{
		language.AmericanEnglish:     NewCatalog(language.AmericanEnglish.String(), enUS),
		language.BrazilianPortuguese: NewCatalog(language.BrazilianPortuguese.String(), ptBR),
	}
	matcher = language.NewMatcher([]language.Tag{
		language.AmericanEnglish,
		language.BrazilianPortuguese,
	})
)

// GetCatalog returns the best catalog for an Accept-Language style locale
// list. Falls back to en-US when nothing matches.
func GetCatalog(locale string) *Catalog {
	tags, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(tags) == 0 {
		tags = []language.Tag{language.AmericanEnglish}
	}
	_, index, _ := matcher.Match(tags...)

	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	switch index {
	case 1:
		return catalogs[language.BrazilianPortuguese]
	default:
		return catalogs[language.AmericanEnglish]
	}
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template with the given metadata.
// Falls back to the error code itself if no template is found.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	tmpl, ok := c.messages[code]
	if !ok {
		return code
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	t, err := template.New("msg").Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return tmpl
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}

// NewCatalog creates a new catalog with the given locale and messages.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	cloned := make(map[Code]string, len(messages))
	for key, value := range messages {
		cloned[key] = value
	}
	return &Catalog{
		locale:   locale,
		messages: cloned,
	}
}
