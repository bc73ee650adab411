package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/response"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/service"
)

// RequireRole lets the request through when the authenticated user holds one
// of the roles. Admins pass every role check. It must run after RequireAuth.
func RequireRole(roles ...service.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		role := claims.Role()
		if role == service.RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		response.AbortFail(c, http.StatusForbidden, forbiddenCode(roles))
	}
}

func forbiddenCode(roles []service.Role) response.ErrCode {
	if len(roles) == 1 {
		switch roles[0] {
		case service.RoleStudent:
			return response.ErrStudentAccessOnly
		case service.RoleTeacher:
			return response.ErrTeacherAccessOnly
		}
	}
	return response.ErrForbidden
}
