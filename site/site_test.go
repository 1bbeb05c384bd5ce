package site

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stanza/cache"
	"stanza/models"
)

func newTestSite(t *testing.T) (*gin.Engine, *gorm.DB, *cache.Store) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Page{}, &models.BlogPost{}, &models.CaseStudy{}, &models.Service{},
		&models.Block{},
	))

	store := cache.NewStore(time.Minute)
	router := gin.New()
	NewSiteModule(db, zap.NewNop(), store).RegisterRoutes(router)
	return router, db, store
}

func seedPage(t *testing.T, db *gorm.DB, id, slug, locale, status string) {
	editor := "u-editor"
	page := models.Page{
		ContentMeta: models.ContentMeta{
			ID:        id,
			Title:     "Title " + slug,
			Status:    status,
			UpdatedBy: &editor,
		},
		Slug:   slug,
		Locale: locale,
	}
	require.NoError(t, db.Create(&page).Error)
}

func seedBlock(t *testing.T, db *gorm.DB, parentID, blockType string, order int, data string) {
	block := models.Block{
		ID:         parentID + "-" + blockType,
		ParentType: models.ParentPage,
		ParentID:   parentID,
		Type:       blockType,
		Data:       datatypes.JSON([]byte(data)),
		Order:      order,
	}
	require.NoError(t, db.Create(&block).Error)
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestListOnlyPublished(t *testing.T) {
	router, db, _ := newTestSite(t)
	seedPage(t, db, "p1", "live", "en", "published")
	seedPage(t, db, "p2", "wip", "en", "draft")
	seedPage(t, db, "p3", "pending", "en", "inReview")
	seedPage(t, db, "p4", "soon", "en", "scheduled")

	w := get(router, "/api/en/pages")
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []map[string]any `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "live", envelope.Data[0]["slug"])
	assert.EqualValues(t, 1, envelope.Meta.Total)
}

func TestListFiltersByLocale(t *testing.T) {
	router, db, _ := newTestSite(t)
	seedPage(t, db, "p1", "about", "en", "published")
	seedPage(t, db, "p2", "about", "de", "published")

	w := get(router, "/api/de/pages")
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "de", envelope.Data[0]["locale"])
}

func TestGetStripsOperationalFields(t *testing.T) {
	router, db, _ := newTestSite(t)
	seedPage(t, db, "p1", "about", "en", "published")

	w := get(router, "/api/en/pages/about")
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))

	assert.Equal(t, "about", envelope.Data["slug"])
	_, hasUpdatedBy := envelope.Data["updated_by"]
	assert.False(t, hasUpdatedBy)
	_, hasStatus := envelope.Data["status"]
	assert.False(t, hasStatus)
	_, hasScheduledAt := envelope.Data["scheduled_at"]
	assert.False(t, hasScheduledAt)
}

func TestGetUnpublishedIsNotFound(t *testing.T) {
	router, db, _ := newTestSite(t)
	seedPage(t, db, "p1", "wip", "en", "draft")

	w := get(router, "/api/en/pages/wip")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRichTextBlockRendersHTML(t *testing.T) {
	router, db, _ := newTestSite(t)
	seedPage(t, db, "p1", "story", "en", "published")
	seedBlock(t, db, "p1", "richText", 0, `{"markdown":"# Heading\n\nSome **bold** text."}`)
	seedBlock(t, db, "p1", "hero", 1, `{"heading":"hi"}`)

	w := get(router, "/api/en/pages/story")
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			Blocks []struct {
				Type string         `json:"type"`
				Data map[string]any `json:"data"`
			} `json:"blocks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Blocks, 2)

	rich := envelope.Data.Blocks[0]
	require.Equal(t, "richText", rich.Type)
	html, _ := rich.Data["html"].(string)
	assert.Contains(t, html, "<h1>")
	assert.Contains(t, html, "<strong>bold</strong>")

	hero := envelope.Data.Blocks[1]
	_, hasHTML := hero.Data["html"]
	assert.False(t, hasHTML)
}

func TestUnknownLocaleIs404(t *testing.T) {
	router, _, _ := newTestSite(t)

	w := get(router, "/api/xx/pages")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSecondReadIsCacheHit(t *testing.T) {
	router, db, _ := newTestSite(t)
	seedPage(t, db, "p1", "about", "en", "published")

	first := get(router, "/api/en/pages/about")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := get(router, "/api/en/pages/about")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestCacheFlushOnKind(t *testing.T) {
	router, db, store := newTestSite(t)
	seedPage(t, db, "p1", "about", "en", "published")

	require.Equal(t, "MISS", get(router, "/api/en/pages/about").Header().Get("X-Cache"))
	require.Equal(t, "HIT", get(router, "/api/en/pages/about").Header().Get("X-Cache"))

	store.FlushKind("pages")
	assert.Equal(t, "MISS", get(router, "/api/en/pages/about").Header().Get("X-Cache"))
}

func TestSitemapListsPublishedContent(t *testing.T) {
	router, db, _ := newTestSite(t)
	seedPage(t, db, "p1", "about", "en", "published")
	seedPage(t, db, "p2", "wip", "en", "draft")

	service := models.Service{
		ContentMeta: models.ContentMeta{ID: "s1", Title: "Consulting", Status: "published"},
		Slug:        "consulting",
		Locale:      "en",
	}
	require.NoError(t, db.Create(&service).Error)

	w := get(router, "/sitemap.xml")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/xml"))

	body := w.Body.String()
	assert.Contains(t, body, "/api/en/pages/about")
	assert.Contains(t, body, "/api/en/services/consulting")
	assert.NotContains(t, body, "wip")
}
