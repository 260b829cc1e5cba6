package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/catalog/internal/auth/domain"
	productdomain "github.com/smallbiznis/catalog/internal/product/domain"
	"github.com/smallbiznis/catalog/internal/validation"
)

type testCleanupRequest struct {
	Prefix string `json:"prefix"`
}

// TestCleanup removes products whose sku and users whose email start with prefix.
// End-to-end suites call it between runs. Not registered in production.
func (s *Server) TestCleanup(c *gin.Context) {
	if s.cfg.IsProduction() {
		AbortWithError(c, ErrRouteNotFound)
		return
	}

	var req testCleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	prefix := strings.TrimSpace(req.Prefix)
	if prefix == "" {
		AbortWithError(c, validation.New("prefix", "required", "The prefix field is required."))
		return
	}

	ctx := c.Request.Context()
	like := prefix + "%"

	var productIDs []int64
	if err := s.db.WithContext(ctx).
		Model(&productdomain.Product{}).
		Where("sku LIKE ?", like).
		Pluck("id", &productIDs).Error; err != nil {
		AbortWithError(c, err)
		return
	}
	for _, id := range productIDs {
		if err := s.productSvc.Delete(ctx, strconv.FormatInt(id, 10)); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	var userIDs []int64
	if err := s.db.WithContext(ctx).
		Model(&authdomain.User{}).
		Where("email LIKE ?", like).
		Pluck("id", &userIDs).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	if len(userIDs) > 0 {
		if err := s.db.WithContext(ctx).Where("user_id IN ?", userIDs).Delete(&authdomain.Session{}).Error; err != nil {
			AbortWithError(c, err)
			return
		}
		if err := s.db.WithContext(ctx).Where("id IN ?", userIDs).Delete(&authdomain.User{}).Error; err != nil {
			AbortWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"products": len(productIDs),
		"users":    len(userIDs),
	})
}
