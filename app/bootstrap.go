// app/bootstrap.go
package app

import (
	"context"
	"log"

	"Gin_postgres_redis_tsd_control/models"

	"github.com/google/uuid"
)

// BootstrapAdminSession makes sure BOOTSTRAP_ADMIN exists as an admin and logs a
// session id (and a bearer token when JWT is enabled) to reach the API with.
func BootstrapAdminSession(ctx context.Context, a *App) (string, error) {
	name := a.Config.BootstrapAdmin
	if name == "" {
		return "", nil
	}
	u, err := a.Repo.FindOrCreateUser(ctx, name, models.RoleAdmin)
	if err != nil {
		log.Printf("[BOOTSTRAP] find or create %s failed: %v", name, err)
		return "", err
	}
	if u.Role != models.RoleAdmin {
		log.Printf("[BOOTSTRAP] user %s exists with role %s, not issuing an admin session", name, u.Role)
		return "", nil
	}

	cur := models.CurrentUser{ID: u.ID, Role: u.Role, CompanyID: u.CompanyID}
	sid := uuid.NewString()
	if err := a.appSess.Create(ctx, sid, cur); err != nil {
		log.Printf("[BOOTSTRAP] create session failed: %v", err)
		return "", err
	}
	log.Printf("[BOOTSTRAP] admin %s (#%d) session: %s=%s", u.Username, u.ID, AppSessionCookie, sid)

	if a.tokens != nil {
		if tok, err := a.tokens.Sign(cur, a.Config.SessionTTL); err == nil {
			log.Printf("[BOOTSTRAP] admin bearer token: %s", tok)
		}
	}
	return sid, nil
}
