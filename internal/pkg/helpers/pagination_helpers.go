package helpers

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yigit/rosterhub/internal/app/models/dto"
	"github.com/yigit/rosterhub/internal/pkg/apperrors"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultPage     = 1 // Default page is 1-based
)

// CalculateOffset converts a 1-based page into the number of items to skip.
// Pages below 1 are treated as page 1.
func CalculateOffset(page, size int) int64 {
	if page < 1 {
		page = DefaultPage
	}
	return int64(page-1) * int64(size)
}

// TotalPages is ceil(totalItems/size); zero items means zero pages.
func TotalPages(totalItems int64, size int) int {
	if totalItems <= 0 || size <= 0 {
		return 0
	}
	return int(math.Ceil(float64(totalItems) / float64(size)))
}

// NewPaginationInfo creates a standard PaginationInfo DTO.
// page should be the 1-based page number.
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	if page < 1 {
		page = DefaultPage
	}
	return dto.PaginationInfo{
		CurrentPage: page,
		TotalPages:  TotalPages(totalItems, size),
		PageSize:    size,
		TotalItems:  totalItems,
	}
}

// ParsePaginationParams reads page and limit from the query string. "pageSize"
// and "size" are accepted as aliases of "limit". Absent values get the
// defaults; present values that are not integers are a validation error. The
// range of size is checked by the caller, which knows the configured maximum.
func ParsePaginationParams(c *gin.Context, defaultSize int) (page, size int, err error) {
	page, err = queryInt(c, DefaultPage, "page")
	if err != nil {
		return 0, 0, err
	}
	size, err = queryInt(c, defaultSize, "limit", "pageSize", "size")
	if err != nil {
		return 0, 0, err
	}
	return page, size, nil
}

func queryInt(c *gin.Context, def int, keys ...string) (int, error) {
	for _, key := range keys {
		raw, ok := c.GetQuery(key)
		if !ok {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer", apperrors.ErrValidationFailed, key)
		}
		return v, nil
	}
	return def, nil
}
