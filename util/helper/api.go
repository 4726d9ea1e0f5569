package helper_util

import (
	"strconv"

	"github.com/gin-gonic/gin"

	arbiter_errors "github.com/arbiterhq/arbiter/api/errors"
)

// GetPageParams reads 1-based page and page_size query parameters with the
// list defaults. Size is capped at 100.
func GetPageParams(c *gin.Context) (page int, pageSize int, err error) {
	page, err = strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 0, 0, arbiter_errors.ErrInvalidPagination
	}
	pageSize, err = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		return 0, 0, arbiter_errors.ErrInvalidPagination
	}
	return page, pageSize, nil
}
