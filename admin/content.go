package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"stanza/apierr"
	"stanza/auth"
	"stanza/blocks"
	"stanza/common"
	"stanza/models"
	"stanza/validation"
	"stanza/workflow"
)

// recordPtr ties a content table type to its pointer-receiver interface.
type recordPtr[T any] interface {
	*T
	models.ContentRecord
}

// kindSpec describes one content type's routing surface. parent is empty
// for types that own no blocks.
type kindSpec struct {
	path   string
	parent string
}

func registerContent[T any, P recordPtr[T]](a *AdminModule, rg *gin.RouterGroup, spec kindSpec) {
	g := rg.Group("/" + spec.path)

	g.GET("", auth.Require(auth.ActionContentView, a.logger), listContent[T, P](a, spec))
	g.GET("/:id", auth.Require(auth.ActionContentView, a.logger), getContent[T, P](a, spec))
	g.POST("", auth.Require(auth.ActionContentCreate, a.logger), createContent[T, P](a, spec))
	g.PUT("/:id", auth.Require(auth.ActionContentEdit, a.logger), updateContent[T, P](a, spec))
	g.DELETE("/:id", auth.Require(auth.ActionContentDelete, a.logger), deleteContent[T, P](a, spec))

	if spec.parent != "" {
		g.PUT("/:id/blocks", auth.Require(auth.ActionContentEdit, a.logger), replaceContentBlocks[T, P](a, spec))
	}
}

func listContent[T any, P recordPtr[T]](a *AdminModule, spec kindSpec) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := common.ParsePage(c, common.DefaultLimit)

		q := a.db.Model(P(new(T)))
		if locale := c.Query("locale"); locale != "" {
			if !common.ValidLocale(locale) {
				apierr.Respond(c, a.logger, apierr.Invalid("locale", "unsupported locale"))
				return
			}
			q = q.Where("locale = ?", locale)
		}
		if status := c.Query("status"); status != "" {
			if !workflow.ValidStatus(status) {
				apierr.Respond(c, a.logger, apierr.Invalid("status", "unknown status"))
				return
			}
			q = q.Where("status = ?", status)
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			apierr.Respond(c, a.logger, fmt.Errorf("count %s: %w", spec.path, err))
			return
		}

		var rows []T
		if err := q.Order("updated_at DESC").
			Limit(page.Limit).Offset(page.Offset).
			Find(&rows).Error; err != nil {
			apierr.Respond(c, a.logger, fmt.Errorf("list %s: %w", spec.path, err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": rows, "meta": page.Meta(total)})
	}
}

func getContent[T any, P recordPtr[T]](a *AdminModule, spec kindSpec) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := P(new(T))
		if err := a.db.First(rec, "id = ?", c.Param("id")).Error; err != nil {
			apierr.Respond(c, a.logger, apierr.Translate(err))
			return
		}

		var blockRows []models.Block
		if spec.parent != "" {
			var err error
			blockRows, err = a.engine.List(spec.parent, rec.Meta().ID)
			if err != nil {
				apierr.Respond(c, a.logger, err)
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"data": shapeEntity(rec, blockRows, spec.parent != "")})
	}
}

func createContent[T any, P recordPtr[T]](a *AdminModule, spec kindSpec) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in validation.ContentInput
		if err := c.ShouldBindJSON(&in); err != nil {
			apierr.Respond(c, a.logger, apierr.Invalid("body", "malformed json"))
			return
		}

		principal, _ := auth.FromContext(c)
		if err := checkPublishGate(principal, in.Status); err != nil {
			apierr.Respond(c, a.logger, err)
			return
		}

		if err := validation.ValidateContent(&in, time.Now()); err != nil {
			apierr.Respond(c, a.logger, err)
			return
		}
		if err := checkBlocksSupported(spec, &in); err != nil {
			apierr.Respond(c, a.logger, err)
			return
		}

		// Friendly fast path; the unique index is the real guard.
		taken, err := slugTaken[T, P](a.db, in.Slug, in.Locale, "")
		if err != nil {
			apierr.Respond(c, a.logger, err)
			return
		}
		if taken {
			apierr.Respond(c, a.logger, apierr.ErrConflict)
			return
		}

		rec := P(new(T))
		rec.Meta().ID = uuid.NewString()
		applyInput(rec, &in, principal)

		var blockRows []models.Block
		err = a.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
			if spec.parent != "" && in.Blocks != nil {
				var txErr error
				blockRows, txErr = blocks.ReplaceTx(tx, spec.parent, rec.Meta().ID, toDescriptors(*in.Blocks, false))
				return txErr
			}
			return nil
		})
		if err != nil {
			apierr.Respond(c, a.logger, apierr.Translate(err))
			return
		}

		a.afterMutation(spec.path, rec.Meta())
		c.JSON(http.StatusCreated, gin.H{"data": shapeEntity(rec, blockRows, spec.parent != "")})
	}
}

func updateContent[T any, P recordPtr[T]](a *AdminModule, spec kindSpec) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in validation.ContentInput
		if err := c.ShouldBindJSON(&in); err != nil {
			apierr.Respond(c, a.logger, apierr.Invalid("body", "malformed json"))
			return
		}

		principal, _ := auth.FromContext(c)
		if err := checkPublishGate(principal, in.Status); err != nil {
			apierr.Respond(c, a.logger, err)
			return
		}

		if err := validation.ValidateContent(&in, time.Now()); err != nil {
			apierr.Respond(c, a.logger, err)
			return
		}
		if err := checkBlocksSupported(spec, &in); err != nil {
			apierr.Respond(c, a.logger, err)
			return
		}

		rec := P(new(T))
		if err := a.db.First(rec, "id = ?", c.Param("id")).Error; err != nil {
			apierr.Respond(c, a.logger, apierr.Translate(err))
			return
		}

		taken, err := slugTaken[T, P](a.db, in.Slug, in.Locale, rec.Meta().ID)
		if err != nil {
			apierr.Respond(c, a.logger, err)
			return
		}
		if taken {
			apierr.Respond(c, a.logger, apierr.ErrConflict)
			return
		}

		applyInput(rec, &in, principal)

		var blockRows []models.Block
		err = a.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(rec).Error; err != nil {
				return err
			}
			if spec.parent != "" {
				if in.Blocks != nil {
					var txErr error
					blockRows, txErr = blocks.ReplaceTx(tx, spec.parent, rec.Meta().ID, toDescriptors(*in.Blocks, false))
					return txErr
				}
				var txErr error
				blockRows, txErr = blocks.ListTx(tx, spec.parent, rec.Meta().ID)
				return txErr
			}
			return nil
		})
		if err != nil {
			apierr.Respond(c, a.logger, apierr.Translate(err))
			return
		}

		a.afterMutation(spec.path, rec.Meta())
		c.JSON(http.StatusOK, gin.H{"data": shapeEntity(rec, blockRows, spec.parent != "")})
	}
}

func deleteContent[T any, P recordPtr[T]](a *AdminModule, spec kindSpec) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		err := a.db.Transaction(func(tx *gorm.DB) error {
			res := tx.Where("id = ?", id).Delete(P(new(T)))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apierr.ErrNotFound
			}
			if spec.parent != "" {
				return tx.Where("parent_type = ? AND parent_id = ?", spec.parent, id).
					Delete(&models.Block{}).Error
			}
			return nil
		})
		if err != nil {
			apierr.Respond(c, a.logger, apierr.Translate(err))
			return
		}

		a.afterMutation(spec.path, nil)
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "deleted"}})
	}
}

// replaceContentBlocks is the block-level mutation endpoint; unlike the
// whole-entity save it honors explicit order values.
func replaceContentBlocks[T any, P recordPtr[T]](a *AdminModule, spec kindSpec) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Blocks []validation.BlockInput `json:"blocks"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			apierr.Respond(c, a.logger, apierr.Invalid("body", "malformed json"))
			return
		}

		if err := validation.ValidateBlocks(in.Blocks); err != nil {
			apierr.Respond(c, a.logger, err)
			return
		}

		blockRows, err := a.engine.Replace(spec.parent, c.Param("id"), toDescriptors(in.Blocks, true))
		if err != nil {
			apierr.Respond(c, a.logger, apierr.Translate(err))
			return
		}

		a.afterMutation(spec.path, nil)
		c.JSON(http.StatusOK, gin.H{"data": blockRows})
	}
}

// checkPublishGate layers the finer publish capability on top of the
// route-level edit/create check: moving content into published or
// scheduled needs more than authorship.
func checkPublishGate(p *auth.Principal, status string) error {
	if status != workflow.StatusPublished && status != workflow.StatusScheduled {
		return nil
	}
	if p == nil {
		return apierr.ErrAuthRequired
	}
	if p.IsKey {
		if !auth.LevelAllows(p.Level, models.LevelWrite) {
			return apierr.ErrForbidden
		}
		return nil
	}
	if !auth.Can(p.Role, auth.ActionContentPublish) {
		return apierr.ErrForbidden
	}
	return nil
}

func checkBlocksSupported(spec kindSpec, in *validation.ContentInput) error {
	if spec.parent == "" && in.Blocks != nil && len(*in.Blocks) > 0 {
		return apierr.Invalid("blocks", "this entity type does not support blocks")
	}
	return nil
}

func slugTaken[T any, P recordPtr[T]](db *gorm.DB, slug, locale, excludeID string) (bool, error) {
	q := db.Model(P(new(T))).Where("slug = ? AND locale = ?", slug, locale)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("slug uniqueness check: %w", err)
	}
	return count > 0, nil
}

// applyInput is a full replace of the scalar surface. Only session
// principals leave a last-editor trail; API key writes carry no human
// identity.
func applyInput(rec models.ContentRecord, in *validation.ContentInput, p *auth.Principal) {
	meta := rec.Meta()
	rec.SetSlug(in.Slug)
	rec.SetLocale(in.Locale)
	meta.Title = in.Title
	meta.Status = in.Status
	meta.ScheduledAt = in.ScheduledAt

	if in.Seo != nil {
		meta.Seo = *in.Seo
	} else {
		meta.Seo = models.Seo{}
	}

	if p != nil && !p.IsKey {
		uid := p.UserID
		meta.UpdatedBy = &uid
	} else {
		meta.UpdatedBy = nil
	}
}

// toDescriptors sanitizes payloads and carries order through only when
// the endpoint allows explicit ordering.
func toDescriptors(in []validation.BlockInput, allowOrder bool) []blocks.Descriptor {
	out := make([]blocks.Descriptor, len(in))
	for i, b := range in {
		sanitized := validation.SanitizeBlockData(b.Type, b.Data)
		raw, err := json.Marshal(sanitized)
		if err != nil {
			raw = []byte("{}")
		}

		d := blocks.Descriptor{Type: b.Type, Data: datatypes.JSON(raw)}
		if allowOrder && b.Order != nil {
			order := *b.Order
			d.Order = &order
		}
		out[i] = d
	}
	return out
}

// shapeEntity flattens the record and hangs the block list off it.
func shapeEntity(rec models.ContentRecord, blockRows []models.Block, withBlocks bool) gin.H {
	raw, err := json.Marshal(rec)
	if err != nil {
		return gin.H{}
	}

	var shaped gin.H
	if err := json.Unmarshal(raw, &shaped); err != nil {
		return gin.H{}
	}

	if withBlocks {
		if blockRows == nil {
			blockRows = []models.Block{}
		}
		shaped["blocks"] = blockRows
	}
	return shaped
}
