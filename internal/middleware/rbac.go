package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

// RequireRoles admits requests whose JWT role is one of roles. It must run
// after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		if _, dup := allowed[role]; dup {
			continue
		}
		allowed[role] = struct{}{}
		names = append(names, string(role))
	}
	forbidden := appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("requires role %s", strings.Join(names, " or ")))

	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, forbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
