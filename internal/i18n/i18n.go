// Package i18n negotiates the visitor's language and translates the
// storefront's interface strings with golang.org/x/text.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Bundle holds the supported languages and their message catalog
type Bundle struct {
	tags     []language.Tag
	matcher  language.Matcher
	fallback language.Tag
	catalog  *catalog.Builder
}

// NewBundle builds a bundle for the given language codes. The default
// language is matched first when a visitor expresses no preference.
func NewBundle(defaultLanguage string, languages []string) (*Bundle, error) {
	fallback, err := language.Parse(defaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("invalid default language %q: %w", defaultLanguage, err)
	}

	tags := []language.Tag{fallback}
	for _, code := range languages {
		tag, err := language.Parse(code)
		if err != nil {
			return nil, fmt.Errorf("invalid language %q: %w", code, err)
		}
		if tag != fallback {
			tags = append(tags, tag)
		}
	}

	b := &Bundle{
		tags:     tags,
		matcher:  language.NewMatcher(tags),
		fallback: fallback,
		catalog:  catalog.NewBuilder(catalog.Fallback(fallback)),
	}
	if err := b.load(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bundle) load() error {
	for lang, entries := range translations {
		tag := language.MustParse(lang)
		for key, msg := range entries {
			if err := b.catalog.SetString(tag, key, msg); err != nil {
				return fmt.Errorf("failed to load %s message %q: %w", lang, key, err)
			}
		}
	}
	return nil
}

// Default returns the fallback language
func (b *Bundle) Default() language.Tag {
	return b.fallback
}

// Languages returns the supported languages, default first
func (b *Bundle) Languages() []language.Tag {
	return append([]language.Tag(nil), b.tags...)
}

// Supported reports whether code names one of the configured languages
func (b *Bundle) Supported(code string) bool {
	tag, err := language.Parse(code)
	if err != nil {
		return false
	}
	for _, t := range b.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Resolve picks the language for a request: the language cookie when it
// names a supported language, then the Accept-Language header, then the
// default
func (b *Bundle) Resolve(cookie, acceptLanguage string) language.Tag {
	if cookie != "" && b.Supported(cookie) {
		return language.MustParse(cookie)
	}
	if acceptLanguage != "" {
		if prefs, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(prefs) > 0 {
			_, idx, confidence := b.matcher.Match(prefs...)
			if confidence != language.No {
				return b.tags[idx]
			}
		}
	}
	return b.fallback
}

// Printer returns a printer translating into tag
func (b *Bundle) Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(b.catalog))
}

// Name returns a language's name in that language, e.g. "español"
func Name(tag language.Tag) string {
	return display.Self.Name(tag)
}
