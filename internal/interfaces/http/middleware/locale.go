package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/gmja/storefront/internal/i18n"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	languageKey = "language"
	printerKey  = "printer"
)

// Locale resolves the request language from the language cookie, then
// Accept-Language, then the default, and exposes a message printer
func Locale(bundle *i18n.Bundle, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, _ := c.Cookie(cookieName)
		tag := bundle.Resolve(cookie, c.GetHeader("Accept-Language"))
		c.Set(languageKey, tag)
		c.Set(printerKey, bundle.Printer(tag))
		c.Header("Content-Language", tag.String())
		c.Header("Vary", "Accept-Language, Cookie")
		c.Next()
	}
}

// Language returns the negotiated language, English outside Locale
func Language(c *gin.Context) language.Tag {
	if v, ok := c.Get(languageKey); ok {
		if tag, ok := v.(language.Tag); ok {
			return tag
		}
	}
	return language.English
}

// Printer returns the request's message printer
func Printer(c *gin.Context) *message.Printer {
	if v, ok := c.Get(printerKey); ok {
		if p, ok := v.(*message.Printer); ok {
			return p
		}
	}
	return message.NewPrinter(language.English)
}
