// Package backoffice is the operator surface: user roles and API key
// lifecycle. Everything here is ADMIN-gated; OWNER assignment is OWNER
// only.
package backoffice

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"stanza/apierr"
	"stanza/auth"
	"stanza/common"
	"stanza/models"
)

const keyPrefix = "sk_"

type BackofficeModule struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewBackofficeModule(db *gorm.DB, logger *zap.Logger) *BackofficeModule {
	return &BackofficeModule{db: db, logger: logger}
}

func (b *BackofficeModule) RegisterRoutes(router *gin.Engine) {
	g := router.Group("/admin/api")
	g.Use(auth.Resolve(b.db, b.logger))

	users := g.Group("/users", auth.Require(auth.ActionUsersManage, b.logger))
	{
		users.GET("", b.listUsers)
		users.PATCH("/:id/role", b.changeRole)
	}

	keys := g.Group("/apikeys", auth.Require(auth.ActionKeysManage, b.logger))
	{
		keys.GET("", b.listKeys)
		keys.POST("", b.issueKey)
		keys.DELETE("/:id", b.revokeKey)
	}
}

func (b *BackofficeModule) listUsers(c *gin.Context) {
	page := common.ParsePage(c, common.DefaultLimit)

	var total int64
	if err := b.db.Model(&models.User{}).Count(&total).Error; err != nil {
		apierr.Respond(c, b.logger, err)
		return
	}

	var users []models.User
	if err := b.db.Order("created_at ASC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&users).Error; err != nil {
		apierr.Respond(c, b.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": users, "meta": page.Meta(total)})
}

func (b *BackofficeModule) changeRole(c *gin.Context) {
	var in struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		apierr.Respond(c, b.logger, apierr.Invalid("body", "malformed json"))
		return
	}

	if !auth.ValidRole(in.Role) {
		apierr.Respond(c, b.logger, apierr.Invalid("role", "unknown role"))
		return
	}

	// Only an OWNER may mint another OWNER.
	principal, _ := auth.FromContext(c)
	if in.Role == models.RoleOwner {
		if principal.IsKey || principal.Role != models.RoleOwner {
			apierr.Respond(c, b.logger, apierr.ErrForbidden)
			return
		}
	}

	var user models.User
	if err := b.db.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		apierr.Respond(c, b.logger, apierr.Translate(err))
		return
	}

	user.Role = in.Role
	if err := b.db.Save(&user).Error; err != nil {
		apierr.Respond(c, b.logger, apierr.Translate(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (b *BackofficeModule) listKeys(c *gin.Context) {
	page := common.ParsePage(c, common.DefaultLimit)

	var total int64
	if err := b.db.Model(&models.ApiKey{}).Count(&total).Error; err != nil {
		apierr.Respond(c, b.logger, err)
		return
	}

	var keys []models.ApiKey
	if err := b.db.Order("created_at DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&keys).Error; err != nil {
		apierr.Respond(c, b.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": keys, "meta": page.Meta(total)})
}

func (b *BackofficeModule) issueKey(c *gin.Context) {
	var in struct {
		UserID    string     `json:"user_id"`
		Name      string     `json:"name"`
		Level     string     `json:"level"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		apierr.Respond(c, b.logger, apierr.Invalid("body", "malformed json"))
		return
	}

	if in.Level == "" {
		in.Level = models.LevelRead
	}
	if !auth.ValidLevel(in.Level) {
		apierr.Respond(c, b.logger, apierr.Invalid("level", "must be read, write or admin"))
		return
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(time.Now()) {
		apierr.Respond(c, b.logger, apierr.Invalid("expires_at", "must be in the future"))
		return
	}

	var user models.User
	if err := b.db.First(&user, "id = ?", in.UserID).Error; err != nil {
		apierr.Respond(c, b.logger, apierr.Translate(err))
		return
	}

	raw, err := generateKey()
	if err != nil {
		apierr.Respond(c, b.logger, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		apierr.Respond(c, b.logger, err)
		return
	}

	sum := sha256.Sum256([]byte(raw))

	key := models.ApiKey{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Name:        in.Name,
		Prefix:      raw[:len(keyPrefix)+8],
		Fingerprint: hex.EncodeToString(sum[:]),
		Hash:        string(hash),
		Level:       in.Level,
		ExpiresAt:   in.ExpiresAt,
	}

	if err := b.db.Create(&key).Error; err != nil {
		apierr.Respond(c, b.logger, apierr.Translate(err))
		return
	}

	b.logger.Info("api key issued",
		zap.String("key_id", key.ID),
		zap.String("user_id", user.ID),
		zap.String("level", key.Level),
	)

	// The raw key appears in exactly this response.
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"key": raw, "api_key": key}})
}

func (b *BackofficeModule) revokeKey(c *gin.Context) {
	res := b.db.Where("id = ?", c.Param("id")).Delete(&models.ApiKey{})
	if res.Error != nil {
		apierr.Respond(c, b.logger, apierr.Translate(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		apierr.Respond(c, b.logger, apierr.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "revoked"}})
}

func generateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return keyPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}
