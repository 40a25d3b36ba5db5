package middleware

import (
	"strconv"
	"strings"

	"rvsync/backend/pkg/errors"
	"rvsync/backend/pkg/jwt"
	"rvsync/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Context keys set by JWTAuthMiddleware
const (
	ClaimsKey = "claims"
	UserIDKey = "userID"
)

// JWTAuthMiddleware checks that the request has a valid JWT and adds claims to the context.
// Browsers cannot set headers on WebSocket upgrades, so a "token" query parameter is
// accepted as well.
func JWTAuthMiddleware(jwtService *jwt.Service, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Authorization header is required"))
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			log.Warn("Invalid JWT token", "error", err.Error(), "path", c.Request.URL.Path)
			c.Error(errors.NewUnauthorizedError(errors.CodeInvalidToken, "Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, claims.UserID)

		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	if token != "" {
		if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
			token = token[7:]
		}
		return strings.TrimSpace(token)
	}
	return c.Query("token")
}

// RequireRole returns a middleware that requires the user to have a specific role
func RequireRole(role jwt.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Authentication required"))
			c.Abort()
			return
		}

		if !claims.HasRole(role) {
			c.Error(errors.NewForbiddenError(errors.CodeForbidden, "Your role does not allow this operation"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireSelf rejects requests whose path parameter does not name the caller.
func RequireSelf(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := ParamID(c, param)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}
		if id != CurrentUserID(c) {
			c.Error(errors.NewForbiddenError(errors.CodeForbidden, "Not authorized"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Claims returns the validated token claims of the caller
func Claims(c *gin.Context) (*jwt.JWTClaims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.JWTClaims)
	return claims, ok
}

// CurrentUserID returns the authenticated caller id, or 0 when unauthenticated
func CurrentUserID(c *gin.Context) uint {
	return c.GetUint(UserIDKey)
}

// ParamID parses a positive integer path parameter
func ParamID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.BadRequestWithDetails(errors.CodeBadRequest, "Invalid "+name, gin.H{name: raw})
	}
	return uint(id), nil
}
