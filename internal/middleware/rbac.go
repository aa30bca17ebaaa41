package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-report-cards/internal/models"
	appErrors "github.com/noah-isme/sma-report-cards/pkg/errors"
	"github.com/noah-isme/sma-report-cards/pkg/response"
)

// RequireRoles admits only callers whose token carries one of roles.
// SUPERADMIN is admitted everywhere ADMIN is.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles)+1)
	for _, r := range roles {
		allowed[r] = struct{}{}
		if r == models.RoleAdmin {
			allowed[models.RoleSuperAdmin] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role not permitted for this operation"))
			c.Abort()
			return
		}
		c.Next()
	}
}
