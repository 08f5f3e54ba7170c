package app

import (
	"errors"
	"net/http"
	"strings"

	"Gin_postgres_redis_tsd_control/db"
	"Gin_postgres_redis_tsd_control/models"
	"Gin_postgres_redis_tsd_control/session"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	AppSessionCookie = "app_session"
	SessionHeader    = "X-Session-Id"
	currentUserKey   = "currentUser"
)

func sessionID(c *gin.Context) string {
	if ck, err := c.Request.Cookie(AppSessionCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	return strings.TrimSpace(c.GetHeader(SessionHeader))
}

// AuthRequired 从会话或 Bearer token 取当前用户; tokens 可以为 nil
func AuthRequired(appSess *session.AppSessionStore, tokens *session.Tokens, repo *db.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sid := sessionID(c); sid != "" {
			as, err := appSess.Get(c.Request.Context(), sid)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
				return
			}
			// 确认用户仍存在
			if _, err := repo.FindUserByID(c.Request.Context(), as.UserID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					_ = appSess.Delete(c.Request.Context(), sid)
				}
				c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
				return
			}
			c.Set(currentUserKey, as.CurrentUser())
			c.Next()
			return
		}

		auth := c.GetHeader("Authorization")
		if tokens != nil && strings.HasPrefix(auth, "Bearer ") {
			u, err := tokens.Verify(strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid token"})
				return
			}
			c.Set(currentUserKey, u)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
	}
}

// CurrentUser returns what AuthRequired stored.
func CurrentUser(c *gin.Context) (models.CurrentUser, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return models.CurrentUser{}, false
	}
	u, ok := v.(models.CurrentUser)
	return u, ok
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		if !u.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
