package controllers

import (
	"errors"
	"log"
	"net/http"

	"Gin_postgres_redis_tsd_control/app"
	"Gin_postgres_redis_tsd_control/tsd"

	"github.com/gin-gonic/gin"
)

func ledgerStatus(err error) int {
	switch {
	case errors.Is(err, tsd.ErrValidation),
		errors.Is(err, tsd.ErrAlreadyIssued),
		errors.Is(err, tsd.ErrHolderLimit):
		return http.StatusBadRequest
	case errors.Is(err, tsd.ErrNotIssued), errors.Is(err, tsd.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tsd.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondLedgerError writes err as {error, code, details?}; storage failures stay generic.
func respondLedgerError(c *gin.Context, err error) {
	status := ledgerStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[tsd] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, app.H{"error": "Internal server error", "code": tsd.Code(err)})
		return
	}

	body := app.H{"error": err.Error(), "code": tsd.Code(err)}
	var (
		ae *tsd.AlreadyIssuedError
		he *tsd.HolderLimitError
	)
	switch {
	case errors.As(err, &ae) && ae.Holder != "":
		body["details"] = app.H{"employee": ae.Holder, "issue_time": ae.IssueTime}
	case errors.As(err, &he):
		body["details"] = app.H{"current_count": he.Count, "max_allowed": he.Limit}
	}
	c.JSON(status, body)
}
