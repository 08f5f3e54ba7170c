package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"Gin_postgres_redis_tsd_control/app"
	"Gin_postgres_redis_tsd_control/db"
	"Gin_postgres_redis_tsd_control/models"

	"github.com/gin-gonic/gin"
)

type CompanyController struct{ *Srv }

func NewCompanyController(s *Srv) *CompanyController { return &CompanyController{Srv: s} }

// GET /api/companies?all=1
func (cc *CompanyController) List(c *gin.Context) {
	cs, err := cc.Repo.ListCompanies(c.Request.Context(), c.Query("all") != "1")
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	if cs == nil {
		cs = []models.Company{}
	}
	c.JSON(http.StatusOK, cs)
}

func (cc *CompanyController) Create(c *gin.Context) {
	var in struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Name) == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "company name required"})
		return
	}
	co, err := cc.Repo.CreateCompany(c.Request.Context(), in.Name)
	if err != nil {
		if errors.Is(err, db.ErrCompanyExists) {
			c.JSON(http.StatusBadRequest, app.H{"error": "company with this name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, co)
}

// PATCH /api/companies/:id/active {is_active}
func (cc *CompanyController) SetActive(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid id"})
		return
	}
	var in struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.IsActive == nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "is_active must be a boolean"})
		return
	}
	ok, err := cc.Repo.SetCompanyActive(c.Request.Context(), uint(id), *in.IsActive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, app.H{"error": "company not found"})
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true})
}
