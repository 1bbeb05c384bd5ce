// Package site is the public read surface. It serves published content
// only and strips operational metadata before anything leaves the
// process.
package site

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"stanza/apierr"
	"stanza/blocks"
	"stanza/cache"
	"stanza/common"
	"stanza/models"
	"stanza/workflow"
)

// markdown renderer for richText block payloads. No raw HTML
// passthrough on the public surface.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
)

type SiteModule struct {
	db     *gorm.DB
	engine *blocks.Engine
	logger *zap.Logger
	cache  *cache.Store
}

func NewSiteModule(db *gorm.DB, logger *zap.Logger, store *cache.Store) *SiteModule {
	return &SiteModule{
		db:     db,
		engine: blocks.NewEngine(db),
		logger: logger,
		cache:  store,
	}
}

func (s *SiteModule) RegisterRoutes(router *gin.Engine) {
	g := router.Group("/api/:locale", common.LocaleParam())

	registerPublic[models.Page](s, g, publicSpec{path: "pages", parent: models.ParentPage})
	registerPublic[models.BlogPost](s, g, publicSpec{path: "posts", parent: models.ParentPost})
	registerPublic[models.CaseStudy](s, g, publicSpec{path: "case-studies", parent: models.ParentCase})
	registerPublic[models.Service](s, g, publicSpec{path: "services"})

	router.GET("/sitemap.xml", s.sitemap)
}

type recordPtr[T any] interface {
	*T
	models.ContentRecord
}

type publicSpec struct {
	path   string
	parent string
}

func registerPublic[T any, P recordPtr[T]](s *SiteModule, rg *gin.RouterGroup, spec publicSpec) {
	rg.GET("/"+spec.path, cache.Middleware(s.cache, spec.path), listPublished[T, P](s, spec))
	rg.GET("/"+spec.path+"/:slug", cache.Middleware(s.cache, spec.path), getPublished[T, P](s, spec))
}

// listPublished filters on status == published, nothing else ever
// reaches this path regardless of scheduledAt.
func listPublished[T any, P recordPtr[T]](s *SiteModule, spec publicSpec) gin.HandlerFunc {
	return func(c *gin.Context) {
		locale := c.Param("locale")
		page := common.ParsePage(c, common.DefaultLimit)

		q := s.db.Model(P(new(T))).
			Where("status = ? AND locale = ?", workflow.StatusPublished, locale)

		var total int64
		if err := q.Count(&total).Error; err != nil {
			apierr.Respond(c, s.logger, err)
			return
		}

		var rows []T
		if err := q.Order("updated_at DESC").
			Limit(page.Limit).Offset(page.Offset).
			Find(&rows).Error; err != nil {
			apierr.Respond(c, s.logger, err)
			return
		}

		shaped := make([]gin.H, 0, len(rows))
		for i := range rows {
			rec := P(&rows[i])
			shaped = append(shaped, shapePublic(rec, nil, false))
		}

		c.JSON(http.StatusOK, gin.H{"data": shaped, "meta": page.Meta(total)})
	}
}

func getPublished[T any, P recordPtr[T]](s *SiteModule, spec publicSpec) gin.HandlerFunc {
	return func(c *gin.Context) {
		locale := c.Param("locale")
		slug := c.Param("slug")

		rec := P(new(T))
		err := s.db.Where("slug = ? AND locale = ? AND status = ?", slug, locale, workflow.StatusPublished).
			First(rec).Error
		if err != nil {
			apierr.Respond(c, s.logger, apierr.Translate(err))
			return
		}

		var blockRows []models.Block
		if spec.parent != "" {
			blockRows, err = s.engine.List(spec.parent, rec.Meta().ID)
			if err != nil {
				apierr.Respond(c, s.logger, err)
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"data": shapePublic(rec, blockRows, spec.parent != "")})
	}
}

// shapePublic exposes only the reader-facing fields; no updated_by, no
// scheduling internals. richText payloads pick up a rendered html field.
func shapePublic(rec models.ContentRecord, blockRows []models.Block, withBlocks bool) gin.H {
	meta := rec.Meta()

	out := gin.H{
		"id":         meta.ID,
		"slug":       rec.GetSlug(),
		"locale":     rec.GetLocale(),
		"title":      meta.Title,
		"updated_at": meta.UpdatedAt,
	}

	if meta.Seo != (models.Seo{}) {
		out["seo"] = meta.Seo
	}

	if withBlocks {
		shaped := make([]gin.H, 0, len(blockRows))
		for _, b := range blockRows {
			shaped = append(shaped, shapeBlock(b))
		}
		out["blocks"] = shaped
	}

	return out
}

func shapeBlock(b models.Block) gin.H {
	var data map[string]any
	if err := json.Unmarshal(b.Data, &data); err != nil {
		data = map[string]any{}
	}

	if b.Type == "richText" {
		if markdown, ok := data["markdown"].(string); ok {
			data["html"] = renderMarkdown(markdown)
		}
	}

	return gin.H{
		"id":    b.ID,
		"type":  b.Type,
		"order": b.Order,
		"data":  data,
	}
}

func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return content
	}
	return buf.String()
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type sitemapSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

func (s *SiteModule) sitemap(c *gin.Context) {
	domain := os.Getenv("DOMAIN")
	if domain == "" {
		domain = "http://localhost:8080"
	}

	set := sitemapSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}

	appendURLs := func(path string, rows []models.ContentRecord) {
		for _, rec := range rows {
			meta := rec.Meta()
			set.URLs = append(set.URLs, sitemapURL{
				Loc:     fmt.Sprintf("%s/api/%s/%s/%s", domain, rec.GetLocale(), path, rec.GetSlug()),
				LastMod: meta.UpdatedAt.Format("2006-01-02"),
			})
		}
	}

	var pages []models.Page
	var posts []models.BlogPost
	var cases []models.CaseStudy
	var services []models.Service

	if err := s.db.Where("status = ?", workflow.StatusPublished).Find(&pages).Error; err == nil {
		appendURLs("pages", asRecords[models.Page, *models.Page](pages))
	}
	if err := s.db.Where("status = ?", workflow.StatusPublished).Find(&posts).Error; err == nil {
		appendURLs("posts", asRecords[models.BlogPost, *models.BlogPost](posts))
	}
	if err := s.db.Where("status = ?", workflow.StatusPublished).Find(&cases).Error; err == nil {
		appendURLs("case-studies", asRecords[models.CaseStudy, *models.CaseStudy](cases))
	}
	if err := s.db.Where("status = ?", workflow.StatusPublished).Find(&services).Error; err == nil {
		appendURLs("services", asRecords[models.Service, *models.Service](services))
	}

	payload, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		apierr.Respond(c, s.logger, err)
		return
	}

	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), payload...))
}

func asRecords[T any, P recordPtr[T]](rows []T) []models.ContentRecord {
	out := make([]models.ContentRecord, 0, len(rows))
	for i := range rows {
		out = append(out, P(&rows[i]))
	}
	return out
}
