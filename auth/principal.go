package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"stanza/apierr"
	"stanza/models"
)

const principalKey = "principal"

// APIKeyHeader carries the raw key for non-interactive callers.
const APIKeyHeader = "X-API-Key"

// Principal is the already-authenticated caller the pipeline authorizes
// against. Session callers carry a role; API key callers carry a level.
type Principal struct {
	UserID string
	Role   string
	IsKey  bool
	Level  string
}

// FromContext returns the resolved principal, if any.
func FromContext(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok
}

// SetPrincipal is used by tests to inject a caller directly.
func SetPrincipal(c *gin.Context, p *Principal) {
	c.Set(principalKey, p)
}

// Resolve is the authentication lookup: it turns a session cookie or an
// API key header into a Principal. It never rejects by itself; routes
// without a Require middleware stay reachable anonymously.
func Resolve(db *gorm.DB, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader(APIKeyHeader); raw != "" {
			if p := resolveAPIKey(db, logger, raw); p != nil {
				c.Set(principalKey, p)
			}
			c.Next()
			return
		}

		session := sessions.Default(c)
		userID, _ := session.Get("user_id").(string)
		if userID == "" {
			c.Next()
			return
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			c.Next()
			return
		}

		c.Set(principalKey, &Principal{UserID: user.ID, Role: user.Role})
		c.Next()
	}
}

func resolveAPIKey(db *gorm.DB, logger *zap.Logger, raw string) *Principal {
	sum := sha256.Sum256([]byte(raw))
	fingerprint := hex.EncodeToString(sum[:])

	var key models.ApiKey
	if err := db.First(&key, "fingerprint = ?", fingerprint).Error; err != nil {
		return nil
	}

	if bcrypt.CompareHashAndPassword([]byte(key.Hash), []byte(raw)) != nil {
		return nil
	}

	if key.ExpiresAt != nil && key.ExpiresAt.Before(time.Now()) {
		return nil
	}

	// Best effort; a failed stamp must not fail the request.
	now := time.Now()
	if err := db.Model(&key).Update("last_used_at", now).Error; err != nil {
		logger.Warn("api key last-used stamp failed", zap.String("key_id", key.ID), zap.Error(err))
	}

	return &Principal{UserID: key.UserID, IsKey: true, Level: key.Level}
}

// Require gates a route on an action. Missing principal is answered as
// authentication required, a present but insufficient one as forbidden.
// This always runs before validation or any store mutation.
func Require(action Action, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := FromContext(c)
		if !ok {
			apierr.Respond(c, logger, apierr.ErrAuthRequired)
			c.Abort()
			return
		}

		allowed := false
		if p.IsKey {
			allowed = LevelAllows(p.Level, levelFor(action))
		} else {
			allowed = Can(p.Role, action)
		}

		if !allowed {
			apierr.Respond(c, logger, apierr.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
