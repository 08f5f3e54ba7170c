package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"Gin_postgres_redis_tsd_control/app"
	"Gin_postgres_redis_tsd_control/db"
	"Gin_postgres_redis_tsd_control/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserController struct{ *Srv }

func GetUserController(s *Srv) *UserController { return &UserController{Srv: s} }

func userID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid user id"})
		return 0, false
	}
	return uint(id), true
}

// GET /api/users?q=alice&page=1&size=20
func (uc *UserController) ListUsers(c *gin.Context) {
	q := c.Query("q")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := uc.Repo.ListUsers(c.Request.Context(), q, page, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{
		"total": res.Total,
		"users": res.Users,
	})
}

// GET /api/users/:id
func (uc *UserController) GetUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	user, err := uc.Repo.FindUserByID(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"user": user})
}

// POST /api/users {username, role, company_id}
func (uc *UserController) CreateUser(c *gin.Context) {
	var in struct {
		Username  string      `json:"username" binding:"required"`
		Role      models.Role `json:"role" binding:"required"`
		CompanyID *uint       `json:"company_id"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if !in.Role.Valid() {
		c.JSON(http.StatusBadRequest, app.H{"error": "role must be admin, operator or manager"})
		return
	}
	u, err := uc.Repo.CreateUser(c.Request.Context(), in.Username, in.Role, in.CompanyID)
	if err != nil {
		if errors.Is(err, db.ErrUserExists) {
			c.JSON(http.StatusConflict, app.H{"error": "user already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, u)
}

// POST /api/users/:id/sessions 给终端/操作员开一个会话
func (uc *UserController) CreateSession(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	u, err := uc.Repo.FindUserByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "user not found"})
		return
	}

	cur := models.CurrentUser{ID: u.ID, Role: u.Role, CompanyID: u.CompanyID}
	sid := uuid.NewString()
	if err := uc.AppSess.Create(c.Request.Context(), sid, cur); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	out := app.H{"session_id": sid, "expires_in": int(uc.SessionTTL.Seconds())}
	if uc.Tokens != nil {
		if tok, err := uc.Tokens.Sign(cur, uc.SessionTTL); err == nil {
			out["token"] = tok
		}
	}
	c.JSON(http.StatusCreated, out)
}

// DELETE /api/users/:id/sessions 撤销该用户的所有会话
func (uc *UserController) RevokeSessions(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	n, err := uc.AppSess.RevokeAllForUser(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "revoked": n})
}
