package admin

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"stanza/apierr"
	"stanza/blocks"
	"stanza/models"
	"stanza/validation"
)

type blockCreateInput struct {
	validation.BlockParentInput
	Type  string         `json:"type"`
	Data  map[string]any `json:"data"`
	Order *int           `json:"order"`
}

// createBlock appends one block to an existing parent. The wire format
// keeps the three parent reference fields; exactly one must be set.
func (a *AdminModule) createBlock(c *gin.Context) {
	var in blockCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		apierr.Respond(c, a.logger, apierr.Invalid("body", "malformed json"))
		return
	}

	parentType, parentID, err := validation.ValidateBlockParent(in.BlockParentInput)
	if err != nil {
		apierr.Respond(c, a.logger, err)
		return
	}

	if err := validation.ValidateBlocks([]validation.BlockInput{{Type: in.Type, Data: in.Data, Order: in.Order}}); err != nil {
		apierr.Respond(c, a.logger, err)
		return
	}

	raw, marshalErr := json.Marshal(validation.SanitizeBlockData(in.Type, in.Data))
	if marshalErr != nil {
		raw = []byte("{}")
	}

	desc := blocks.Descriptor{Type: in.Type, Data: datatypes.JSON(raw), Order: in.Order}
	blockRows, err := a.engine.Append(parentType, parentID, desc)
	if err != nil {
		apierr.Respond(c, a.logger, apierr.Translate(err))
		return
	}

	a.cacheFlushForParent(parentType)
	c.JSON(http.StatusCreated, gin.H{"data": blockRows})
}

func (a *AdminModule) cacheFlushForParent(parentType string) {
	if a.cache == nil {
		return
	}
	switch parentType {
	case models.ParentPage:
		a.cache.FlushKind("pages")
	case models.ParentPost:
		a.cache.FlushKind("posts")
	case models.ParentCase:
		a.cache.FlushKind("case-studies")
	}
}
