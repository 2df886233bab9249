package middleware

import (
	"net/http"
	"strings"

	"github.com/Justjoseph0/e-commerce-backend/auth"
	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
	ctxRole   = "role"
)

// ValidateToken checks the bearer token and puts the caller's id, email and
// role on the context.
func ValidateToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		claims, err := auth.ParseToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// RequireCapability rejects callers whose role lacks capability.
func RequireCapability(capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.Can(Role(c), capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
			return
		}
		c.Next()
	}
}

func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func Email(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

// Role returns the caller's role, RoleCustomer when unset.
func Role(c *gin.Context) auth.Role {
	if v, ok := c.Get(ctxRole); ok {
		if role, ok := v.(auth.Role); ok {
			return role
		}
	}
	return auth.RoleCustomer
}

// TokenFromQuery lets browser websocket clients, which cannot set headers,
// pass the bearer token as ?token=.
func TokenFromQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if token := c.Query("token"); token != "" {
				c.Request.Header.Set("Authorization", "Bearer "+token)
			}
		}
		c.Next()
	}
}
