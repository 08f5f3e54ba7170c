package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"Gin_postgres_redis_tsd_control/config"
	"Gin_postgres_redis_tsd_control/db"
	"Gin_postgres_redis_tsd_control/lock"
	"Gin_postgres_redis_tsd_control/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb, err := db.OpenSQLite("file:app_" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	if cfg.WebOrigin == "" {
		cfg.WebOrigin = "http://localhost:5173"
	}
	cfg.SessionTTL = time.Hour
	cfg.EmployeesCSVPath = filepath.Join(t.TempDir(), "employees.csv")
	a := New(cfg, gdb, rdb, nil)
	t.Cleanup(a.Close)
	return a
}

func TestNew_LockBackend(t *testing.T) {
	a := newTestApp(t, config.Config{LockBackend: "local"})
	assert.IsType(t, &lock.Local{}, a.Locker)
	assert.Nil(t, a.Tokens())

	b := newTestApp(t, config.Config{LockBackend: "redis", JWTSecret: "x"})
	assert.IsType(t, &lock.Redis{}, b.Locker)
	assert.NotNil(t, b.Tokens())
}

func TestBootstrapAdminSession(t *testing.T) {
	ctx := context.Background()

	a := newTestApp(t, config.Config{LockBackend: "local"})
	sid, err := BootstrapAdminSession(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, sid)

	a.Config.BootstrapAdmin = "root"
	sid, err = BootstrapAdminSession(ctx, a)
	require.NoError(t, err)
	require.NotEmpty(t, sid)

	as, err := a.AppSessions().Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, as.Role)

	// 已存在但不是管理员：不发会话
	_, err = a.Repo.CreateUser(ctx, "op", models.RoleOperator, nil)
	require.NoError(t, err)
	a.Config.BootstrapAdmin = "op"
	sid, err = BootstrapAdminSession(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, sid)
}

func TestUseCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	preflight := func(r *gin.Engine) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/me", nil)
		req.Header.Set("Origin", "http://tsd.local")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	r := gin.New()
	assert.NotPanics(t, func() { useCORS(r, " ") })
	assert.Empty(t, preflight(r).Header().Get("Access-Control-Allow-Origin"))

	r = gin.New()
	useCORS(r, "http://localhost:5173, http://tsd.local")
	assert.Equal(t, "http://tsd.local", preflight(r).Header().Get("Access-Control-Allow-Origin"))
}

func TestNew_EmptyWebOrigin(t *testing.T) {
	cfg := config.Config{LockBackend: "local", SessionTTL: time.Hour}
	cfg.EmployeesCSVPath = filepath.Join(t.TempDir(), "employees.csv")
	gdb, err := db.OpenSQLite("file:app_empty_origin?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	rdb := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})

	var a *App
	require.NotPanics(t, func() { a = New(cfg, gdb, rdb, nil) })
	t.Cleanup(a.Close)
}
