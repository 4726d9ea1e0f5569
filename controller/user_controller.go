// api/controller/user_controller.go
package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	arbiter_errors "github.com/arbiterhq/arbiter/api/errors"
	"github.com/arbiterhq/arbiter/api/model"
	"github.com/arbiterhq/arbiter/api/service"
	"github.com/arbiterhq/arbiter/api/util"
	helper_util "github.com/arbiterhq/arbiter/api/util/helper"
)

type UserController struct {
	userService service.IUserService
}

func NewUserController(userService service.IUserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// RegisterRoutes registers the API routes. Self-service endpoints operate on
// the authenticated user; the listing and :id endpoints are admin only.
func (uc *UserController) RegisterRoutes(r *gin.RouterGroup, authn, admin gin.HandlerFunc) {
	users := r.Group("/users", authn)
	{
		users.GET("/me", uc.GetMe)
		users.PUT("/me", uc.UpdateMe)
		users.DELETE("/me", uc.DeactivateMe)

		users.GET("", admin, uc.ListUsers)
		users.GET("/:id", admin, uc.GetUser)
		users.DELETE("/:id", admin, uc.DeleteUser)
	}
}

// GetMe endpoint
func (uc *UserController) GetMe(c *gin.Context) {
	userID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Not authenticated", err)
		return
	}

	user, err := uc.userService.GetUser(c, userID)
	if err != nil {
		if errors.Is(err, arbiter_errors.ErrUserNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "User not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve user", err)
		}
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateMe endpoint
func (uc *UserController) UpdateMe(c *gin.Context) {
	userID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Not authenticated", err)
		return
	}

	var updates model.UpdateUserRequest
	if err := c.ShouldBindJSON(&updates); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", err)
		return
	}

	updated, err := uc.userService.UpdateUser(c, userID, updates, clientMeta(c))
	if err != nil {
		switch {
		case errors.Is(err, arbiter_errors.ErrUserNotFound):
			util.RespondWithError(c, http.StatusNotFound, "User not found", err)
		case errors.Is(err, arbiter_errors.ErrInvalidUserData):
			util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to update user", err)
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeactivateMe endpoint soft-deletes the account and ends every session.
func (uc *UserController) DeactivateMe(c *gin.Context) {
	userID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Not authenticated", err)
		return
	}

	if err := uc.userService.DeactivateUser(c, userID, userID, clientMeta(c)); err != nil {
		if errors.Is(err, arbiter_errors.ErrUserNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "User not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to deactivate user", err)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// ListUsers endpoint pages through accounts, optionally narrowed by role and
// active flag.
func (uc *UserController) ListUsers(c *gin.Context) {
	page, pageSize, err := helper_util.GetPageParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	criteria := model.UserSearchCriteria{Page: page, PageSize: pageSize}
	if role := c.Query("role"); role != "" {
		criteria.Role = model.UserRole(role)
	}
	if raw := c.Query("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid is_active flag", err)
			return
		}
		criteria.IsActive = &active
	}

	result, err := uc.userService.ListUsers(c, criteria)
	if err != nil {
		if errors.Is(err, arbiter_errors.ErrInvalidPagination) {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to list users", err)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUser endpoint
func (uc *UserController) GetUser(c *gin.Context) {
	userID := c.Param("id")

	user, err := uc.userService.GetUser(c, userID)
	if err != nil {
		if errors.Is(err, arbiter_errors.ErrUserNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "User not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve user", err)
		}
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser endpoint hard-deletes an account.
func (uc *UserController) DeleteUser(c *gin.Context) {
	userID := c.Param("id")
	actorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Not authenticated", err)
		return
	}

	if err := uc.userService.DeleteUser(c, userID, actorID, clientMeta(c)); err != nil {
		if errors.Is(err, arbiter_errors.ErrUserNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "User not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to delete user", err)
		}
		return
	}

	c.Status(http.StatusNoContent)
}
