// api/controller/decision_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	arbiter_errors "github.com/arbiterhq/arbiter/api/errors"
	"github.com/arbiterhq/arbiter/api/model"
	"github.com/arbiterhq/arbiter/api/service"
	"github.com/arbiterhq/arbiter/api/util"
	helper_util "github.com/arbiterhq/arbiter/api/util/helper"
)

type DecisionController struct {
	decisionService service.IDecisionService
}

func NewDecisionController(decisionService service.IDecisionService) *DecisionController {
	return &DecisionController{
		decisionService: decisionService,
	}
}

// RegisterRoutes registers the API routes. PUT /:id is the pipeline worker's
// progress callback and stays behind the admin gate.
func (dc *DecisionController) RegisterRoutes(r *gin.RouterGroup, authn, admin gin.HandlerFunc) {
	decisions := r.Group("/decisions", authn)
	{
		decisions.POST("", dc.SubmitDecision)
		decisions.GET("", dc.ListDecisions)
		decisions.GET("/stats", dc.GetStats)
		decisions.GET("/:id", dc.GetDecision)
		decisions.POST("/:id/cancel", dc.CancelDecision)
		decisions.DELETE("/:id", dc.DeleteDecision)

		decisions.PUT("/:id", admin, dc.UpdateDecision)
	}
}

// SubmitDecision endpoint. A repeated query returns the earlier completed
// decision with 200 instead of creating a duplicate.
func (dc *DecisionController) SubmitDecision(c *gin.Context) {
	userID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Not authenticated", err)
		return
	}

	var req model.CreateDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid decision data", err)
		return
	}

	decision, created, err := dc.decisionService.SubmitDecision(c, userID, req)
	if err != nil {
		if errors.Is(err, arbiter_errors.ErrInvalidDecisionData) {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid decision data", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to submit decision", err)
		}
		return
	}

	if created {
		c.JSON(http.StatusCreated, decision)
	} else {
		c.JSON(http.StatusOK, decision)
	}
}

// ListDecisions endpoint
func (dc *DecisionController) ListDecisions(c *gin.Context) {
	userID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Not authenticated", err)
		return
	}

	page, pageSize, err := helper_util.GetPageParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	result, err := dc.decisionService.ListDecisions(c, userID, page, pageSize)
	if err != nil {
		if errors.Is(err, arbiter_errors.ErrInvalidPagination) {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to list decisions", err)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStats endpoint
func (dc *DecisionController) GetStats(c *gin.Context) {
	userID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Not authenticated", err)
		return
	}

	stats, err := dc.decisionService.GetStats(c, userID)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to compute stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetDecision endpoint
func (dc *DecisionController) GetDecision(c *gin.Context) {
	userID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Not authenticated", err)
		return
	}
	decisionID := c.Param("id")

	decision, err := dc.decisionService.GetDecision(c, userID, decisionID, isAdmin(c))
	if err != nil {
		switch {
		case errors.Is(err, arbiter_errors.ErrDecisionNotFound):
			util.RespondWithError(c, http.StatusNotFound, "Decision not found", err)
		case errors.Is(err, arbiter_errors.ErrForbidden):
			util.RespondWithError(c, http.StatusForbidden, "Not enough permissions", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve decision", err)
		}
		return
	}

	c.JSON(http.StatusOK, decision)
}

// UpdateDecision endpoint carries a worker's status transition.
func (dc *DecisionController) UpdateDecision(c *gin.Context) {
	decisionID := c.Param("id")

	var updates model.UpdateDecisionRequest
	if err := c.ShouldBindJSON(&updates); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid decision data", err)
		return
	}

	decision, err := dc.decisionService.UpdateDecision(c, decisionID, updates)
	if err != nil {
		switch {
		case errors.Is(err, arbiter_errors.ErrDecisionNotFound):
			util.RespondWithError(c, http.StatusNotFound, "Decision not found", err)
		case errors.Is(err, arbiter_errors.ErrDecisionNotPending):
			util.RespondWithError(c, http.StatusConflict, "Decision is no longer pending", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to update decision", err)
		}
		return
	}

	c.JSON(http.StatusOK, decision)
}

// CancelDecision endpoint
func (dc *DecisionController) CancelDecision(c *gin.Context) {
	userID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Not authenticated", err)
		return
	}
	decisionID := c.Param("id")

	decision, err := dc.decisionService.CancelDecision(c, userID, decisionID)
	if err != nil {
		switch {
		case errors.Is(err, arbiter_errors.ErrDecisionNotFound):
			util.RespondWithError(c, http.StatusNotFound, "Decision not found", err)
		case errors.Is(err, arbiter_errors.ErrForbidden):
			util.RespondWithError(c, http.StatusForbidden, "Not enough permissions", err)
		case errors.Is(err, arbiter_errors.ErrDecisionNotPending):
			util.RespondWithError(c, http.StatusConflict, "Decision is no longer pending", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to cancel decision", err)
		}
		return
	}

	c.JSON(http.StatusOK, decision)
}

// DeleteDecision endpoint
func (dc *DecisionController) DeleteDecision(c *gin.Context) {
	userID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Not authenticated", err)
		return
	}
	decisionID := c.Param("id")

	if err := dc.decisionService.DeleteDecision(c, userID, decisionID, isAdmin(c), clientMeta(c)); err != nil {
		switch {
		case errors.Is(err, arbiter_errors.ErrDecisionNotFound):
			util.RespondWithError(c, http.StatusNotFound, "Decision not found", err)
		case errors.Is(err, arbiter_errors.ErrForbidden):
			util.RespondWithError(c, http.StatusForbidden, "Not enough permissions", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to delete decision", err)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func isAdmin(c *gin.Context) bool {
	return util.GetUserRoleFromContext(c) == string(model.RoleAdmin)
}
