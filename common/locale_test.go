package common

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestValidLocale(t *testing.T) {
	assert.True(t, ValidLocale("en"))
	assert.True(t, ValidLocale("de"))
	assert.True(t, ValidLocale("fr"))
	assert.False(t, ValidLocale("EN"))
	assert.False(t, ValidLocale("es"))
	assert.False(t, ValidLocale(""))
}

func TestNormalizeLocale(t *testing.T) {
	assert.Equal(t, "de", NormalizeLocale("de-AT"))
	assert.Equal(t, "fr", NormalizeLocale("FR"))
	assert.Equal(t, "en", NormalizeLocale(" en "))
	assert.Equal(t, "en", NormalizeLocale("pt-BR"))
	assert.Equal(t, "en", NormalizeLocale(""))
}

func TestLocaleParamMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/:locale/ping", LocaleParam(), func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("locale"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/de/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "de", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/xx/ping", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
