// api/controller/audit_controller.go
package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arbiterhq/arbiter/api/audit"
	"github.com/arbiterhq/arbiter/api/util"
	helper_util "github.com/arbiterhq/arbiter/api/util/helper"
)

type AuditController struct {
	auditService audit.Service
}

func NewAuditController(auditService audit.Service) *AuditController {
	return &AuditController{
		auditService: auditService,
	}
}

// RegisterRoutes registers the API routes
func (ac *AuditController) RegisterRoutes(r *gin.RouterGroup, authn, admin gin.HandlerFunc) {
	r.GET("/admin/audit", authn, admin, ac.QueryEvents)
}

// QueryEvents endpoint searches the audit trail. Defaults to the last 24
// hours when no range is given; actor and action narrow the result.
func (ac *AuditController) QueryEvents(c *gin.Context) {
	now := time.Now().UTC()
	from := now.Add(-24 * time.Hour)
	to := now

	if raw := c.Query("from"); raw != "" {
		parsed, err := helper_util.ParseTime(raw)
		if err != nil {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid 'from' timestamp, want RFC3339", err)
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := helper_util.ParseTime(raw)
		if err != nil {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid 'to' timestamp, want RFC3339", err)
			return
		}
		to = parsed
	}
	if !from.Before(to) {
		util.RespondWithError(c, http.StatusBadRequest, "'from' must be before 'to'", nil)
		return
	}

	events, err := ac.auditService.Query(c, from, to, c.Query("actor"), c.Query("action"))
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to query audit events", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "total": len(events)})
}
