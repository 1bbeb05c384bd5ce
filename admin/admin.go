// Package admin exposes the authenticated mutation surface. Every
// endpoint runs the same pipeline: resolve principal, check permission,
// validate the body, run business rule checks, mutate, shape the
// response.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"stanza/auth"
	"stanza/blocks"
	"stanza/cache"
	"stanza/models"
)

type AdminModule struct {
	db     *gorm.DB
	engine *blocks.Engine
	logger *zap.Logger
	cache  *cache.Store
	client *http.Client
}

func NewAdminModule(db *gorm.DB, logger *zap.Logger, store *cache.Store, client *http.Client) *AdminModule {
	return &AdminModule{
		db:     db,
		engine: blocks.NewEngine(db),
		logger: logger,
		cache:  store,
		client: client,
	}
}

func (a *AdminModule) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/admin/api")
	api.Use(auth.Resolve(a.db, a.logger))

	registerContent[models.Page](a, api, kindSpec{path: "pages", parent: models.ParentPage})
	registerContent[models.BlogPost](a, api, kindSpec{path: "posts", parent: models.ParentPost})
	registerContent[models.CaseStudy](a, api, kindSpec{path: "case-studies", parent: models.ParentCase})
	registerContent[models.Service](a, api, kindSpec{path: "services"})

	api.POST("/blocks", auth.Require(auth.ActionContentEdit, a.logger), a.createBlock)
}

// probeSocialImage makes a best-effort HEAD at the SEO social image so a
// broken URL shows up in the logs. It runs off the request path and its
// outcome never affects the mutation.
func (a *AdminModule) probeSocialImage(url string) {
	if a.client == nil || url == "" {
		return
	}

	req, err := http.NewRequest(http.MethodHead, url, nil)
	if err != nil {
		a.logger.Warn("social image url invalid", zap.String("url", url), zap.Error(err))
		return
	}

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Warn("social image unreachable", zap.String("url", url), zap.Error(err))
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		a.logger.Warn("social image returned error status",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
		)
	}
}

func (a *AdminModule) afterMutation(kind string, meta *models.ContentMeta) {
	if a.cache != nil {
		a.cache.FlushKind(kind)
	}
	if meta != nil && meta.Seo.SeoImage != "" {
		go a.probeSocialImage(meta.Seo.SeoImage)
	}
}
