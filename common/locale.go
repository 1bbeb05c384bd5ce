package common

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Supported content locales. Content is published per locale; slugs are
// unique within one.
var Locales = []string{"en", "de", "fr"}

const DefaultLocale = "en"

func ValidLocale(locale string) bool {
	for _, l := range Locales {
		if l == locale {
			return true
		}
	}
	return false
}

// NormalizeLocale maps an Accept-Language style tag ("de-AT", "FR") onto
// a supported locale, falling back to the default.
func NormalizeLocale(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	if ValidLocale(tag) {
		return tag
	}
	return DefaultLocale
}

// LocaleParam rejects requests whose :locale path segment is not a
// supported locale before any handler runs.
func LocaleParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		locale := c.Param("locale")
		if !ValidLocale(locale) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unsupported locale"})
			c.Abort()
			return
		}
		c.Next()
	}
}
