package routes

import (
	"context"
	"net/http"
	"time"

	"Gin_postgres_redis_tsd_control/app"
	"Gin_postgres_redis_tsd_control/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	uc := controllers.GetUserController(s)
	tsdCtl := controllers.NewTSDController(s)
	empCtl := controllers.NewEmployeesController(s)
	coCtl := controllers.NewCompanyController(s)

	// 复用的中间件
	authMW := app.AuthRequired(s.AppSess, s.Tokens, s.Repo)
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, a.Config.SeenThrottle)

	r.GET("/healthz", func(c *app.Ctx) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.Repo.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, app.H{"ok": false, "db": err.Error()})
			return
		}
		c.JSON(http.StatusOK, app.H{"ok": true})
	})

	api := r.Group("/api", authMW, seenMW)
	{
		api.GET("/me", s.Me)
		api.POST("/logout", s.Logout)
	}

	// ------------------------------
	// 终端借还
	// ------------------------------
	t := api.Group("/tsd")
	{
		t.GET("/check/:barcode", tsdCtl.Check)
		t.POST("/issue", tsdCtl.Issue)
		t.POST("/issue-bulk-company", tsdCtl.IssueBulkCompany)
		t.POST("/return", tsdCtl.Return)
		t.POST("/return-bulk-company", tsdCtl.ReturnBulkCompany)
		t.GET("/active", tsdCtl.Active)
		t.GET("/history", tsdCtl.History) // ?startDate=&endDate=&status=&employee_login=&tsd_number=&limit=&offset=
		t.GET("/stats", tsdCtl.Stats)
		t.GET("/export", tsdCtl.Export)
		t.DELETE("/:id", tsdCtl.Delete)
	}

	// ------------------------------
	// 员工映射 / 公司
	// ------------------------------
	api.GET("/employees-mapping", empCtl.List)
	api.GET("/companies", coCtl.List)

	admin := api.Group("", adminMW)
	{
		admin.PUT("/employees-mapping", empCtl.Replace)
		admin.POST("/employees-mapping/upload", empCtl.Upload)

		admin.POST("/companies", coCtl.Create)
		admin.PATCH("/companies/:id/active", coCtl.SetActive)
	}

	// ------------------------------
	// 用户管理（仅管理员）
	// ------------------------------
	users := api.Group("/users", adminMW)
	{
		users.GET("", uc.ListUsers) // ?q=&page=&size=
		users.POST("", uc.CreateUser)
		users.GET("/:id", uc.GetUser)
		users.POST("/:id/sessions", uc.CreateSession)
		users.DELETE("/:id/sessions", uc.RevokeSessions)
	}
}
