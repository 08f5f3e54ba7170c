// controllers/tsd_controller.go
package controllers

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"Gin_postgres_redis_tsd_control/app"
	"Gin_postgres_redis_tsd_control/tsd"

	"github.com/gin-gonic/gin"
)

type TSDController struct{ *Srv }

func NewTSDController(s *Srv) *TSDController { return &TSDController{Srv: s} }

type bulkRequest struct {
	Company    string   `json:"company"`
	TSDNumbers []string `json:"tsd_numbers"`
}

// 扫码：员工还是终端
func (tc *TSDController) Check(c *gin.Context) {
	res, err := tc.TSD.Classify(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// 单台借出
func (tc *TSDController) Issue(c *gin.Context) {
	var in struct {
		EmployeeLogin string  `json:"employee_login"`
		EmployeeName  *string `json:"employee_name"`
		Company       *string `json:"company"`
		TSDNumber     string  `json:"tsd_number"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error(), "code": "validation"})
		return
	}
	op, ok := operatorID(c)
	if !ok {
		return
	}

	t, err := tc.TSD.IssueOne(c.Request.Context(), tsd.IssueInput{
		EmployeeLogin: in.EmployeeLogin,
		EmployeeName:  in.EmployeeName,
		Company:       in.Company,
		TSDNumber:     in.TSDNumber,
		OperatorID:    op,
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "transaction": t})
}

// 公司批量借出（bulk）
func (tc *TSDController) IssueBulkCompany(c *gin.Context) {
	var in bulkRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "company and tsd_numbers (array) are required", "code": "validation"})
		return
	}
	op, ok := operatorID(c)
	if !ok {
		return
	}

	res, err := tc.TSD.IssueBulkForCompany(c.Request.Context(), tsd.BulkInput{
		Company: in.Company, TSDNumbers: in.TSDNumbers, OperatorID: op,
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"success":      true,
		"issued":       res.Issued,
		"errors":       res.Errors,
		"total_issued": len(res.Issued),
		"total_errors": len(res.Errors),
	})
}

// 单台归还
func (tc *TSDController) Return(c *gin.Context) {
	var in struct {
		TSDNumber string `json:"tsd_number"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error(), "code": "validation"})
		return
	}
	t, err := tc.TSD.ReturnOne(c.Request.Context(), in.TSDNumber)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "transaction": t})
}

func (tc *TSDController) ReturnBulkCompany(c *gin.Context) {
	var in bulkRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "company and tsd_numbers (array) are required", "code": "validation"})
		return
	}
	res, err := tc.TSD.ReturnBulkForCompany(c.Request.Context(), tsd.BulkInput{Company: in.Company, TSDNumbers: in.TSDNumbers})
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"success":        true,
		"returned":       res.Returned,
		"errors":         res.Errors,
		"total_returned": len(res.Returned),
		"total_errors":   len(res.Errors),
	})
}

func (tc *TSDController) Active(c *gin.Context) {
	ts, err := tc.TSD.Active(c.Request.Context())
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, ts)
}

func historyQuery(c *gin.Context) tsd.HistoryQuery {
	// 非法数字按默认值处理
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return tsd.HistoryQuery{
		StartDate:     c.Query("startDate"),
		EndDate:       c.Query("endDate"),
		Status:        c.Query("status"),
		EmployeeLogin: c.Query("employee_login"),
		TSDNumber:     c.Query("tsd_number"),
		Limit:         limit,
		Offset:        offset,
	}
}

// GET /api/tsd/history?startDate=&endDate=&status=&employee_login=&tsd_number=&limit=&offset=
func (tc *TSDController) History(c *gin.Context) {
	page, err := tc.TSD.History(c.Request.Context(), historyQuery(c))
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (tc *TSDController) Stats(c *gin.Context) {
	u, ok := app.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	stats, err := tc.TSD.Stats(c.Request.Context(), u, c.Query("company"))
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// 导出 CSV，先写进内存，出错时还能返回 JSON
func (tc *TSDController) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := tc.TSD.ExportCSV(c.Request.Context(), historyQuery(c), &buf); err != nil {
		respondLedgerError(c, err)
		return
	}
	name := "tsd_history_" + time.Now().Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// 删除记录（仅管理员，由 tsd.Service 判定）
func (tc *TSDController) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid id", "code": "validation"})
		return
	}
	u, ok := app.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	if err := tc.TSD.Delete(c.Request.Context(), u, uint(id)); err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "message": "transaction deleted"})
}
