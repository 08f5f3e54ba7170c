// controllers/srv.go
package controllers

import (
	"net/http"
	"strings"
	"time"

	"Gin_postgres_redis_tsd_control/app"
	"Gin_postgres_redis_tsd_control/db"
	"Gin_postgres_redis_tsd_control/employees"
	"Gin_postgres_redis_tsd_control/session"
	"Gin_postgres_redis_tsd_control/tsd"

	"github.com/gin-gonic/gin"
)

type Srv struct {
	Repo       *db.Repo
	TSD        *tsd.Service
	Employees  *employees.Directory
	AppSess    *session.AppSessionStore
	Tokens     *session.Tokens
	WebOrigin  string
	SessionTTL time.Duration
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:       a.Repo,
		TSD:        a.TSD,
		Employees:  a.Employees,
		AppSess:    a.AppSessions(),
		Tokens:     a.Tokens(),
		WebOrigin:  a.Config.WebOrigin,
		SessionTTL: a.Config.SessionTTL,
	}
}

// --- helpers ---

// 统一设置业务会话 Cookie; maxAge < 0 删除
func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.WebOrigin, "https://")
	ma := int(maxAge / time.Second)
	if maxAge < 0 {
		ma = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   ma,
	})
}

// Me GET /api/me
func (s *Srv) Me(c *gin.Context) {
	u, _ := app.CurrentUser(c)
	c.JSON(http.StatusOK, u)
}

// Logout POST /api/logout：删 Redis 会话，Cookie 置空
func (s *Srv) Logout(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		_ = s.AppSess.Delete(c.Request.Context(), ck.Value)
	} else if sid := c.GetHeader(app.SessionHeader); sid != "" {
		_ = s.AppSess.Delete(c.Request.Context(), sid)
	}
	s.setAppCookie(c.Writer, "", -1)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// operatorID 当前用户 id；没有时已写 401
func operatorID(c *gin.Context) (*uint, bool) {
	u, ok := app.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return nil, false
	}
	id := u.ID
	return &id, true
}
