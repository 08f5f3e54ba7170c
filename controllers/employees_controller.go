package controllers

import (
	"io"
	"log"
	"net/http"

	"Gin_postgres_redis_tsd_control/app"
	"Gin_postgres_redis_tsd_control/employees"

	"github.com/gin-gonic/gin"
)

// 上传文件大小上限
const maxEmployeesUpload = 10 << 20

type EmployeesController struct{ *Srv }

func NewEmployeesController(s *Srv) *EmployeesController { return &EmployeesController{Srv: s} }

// GET /api/employees-mapping
func (ec *EmployeesController) List(c *gin.Context) {
	rows, err := ec.Employees.List()
	if err != nil {
		log.Printf("[employees] read %s: %v", ec.Employees.Path(), err)
		c.JSON(http.StatusInternalServerError, app.H{"error": "failed to read employees mapping"})
		return
	}
	if rows == nil {
		rows = []employees.Employee{}
	}
	c.JSON(http.StatusOK, app.H{"rows": rows})
}

// PUT /api/employees-mapping {rows:[...]}
func (ec *EmployeesController) Replace(c *gin.Context) {
	var in struct {
		Rows []employees.Employee `json:"rows"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if err := ec.Employees.Replace(in.Rows); err != nil {
		log.Printf("[employees] write %s: %v", ec.Employees.Path(), err)
		c.JSON(http.StatusInternalServerError, app.H{"error": "failed to save employees mapping", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true})
}

// POST /api/employees-mapping/upload (multipart "file", UTF-8 或 cp1251)
func (ec *EmployeesController) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "file is required"})
		return
	}
	if fh.Size > maxEmployeesUpload {
		c.JSON(http.StatusBadRequest, app.H{"error": "file too large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, maxEmployeesUpload))
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if err := ec.Employees.Upload(raw); err != nil {
		log.Printf("[employees] upload: %v", err)
		c.JSON(http.StatusInternalServerError, app.H{"error": "failed to save uploaded file", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true})
}
