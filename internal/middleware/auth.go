package middleware

import (
	"net/http"
	"strings"

	"bakerypos/internal/auth"
	"bakerypos/pkg/response"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware
const (
	CtxStaffID = "userID"
	CtxRole    = "userRole"
	CtxName    = "userName"
	CtxClaims  = "claims"
)

// issuer is set once at startup via InitAuth.
var issuer *auth.TokenIssuer

func InitAuth(i *auth.TokenIssuer) {
	issuer = i
}

// SetTokenCookie stores the session token as an HttpOnly cookie.
func SetTokenCookie(c *gin.Context, token string, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie("access_token", token, 3600*12, "/", "", secure, true)
}

// ClearTokenCookie removes the session cookie.
func ClearTokenCookie(c *gin.Context, secure bool) {
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
}

// authenticate parses the cookie or bearer token and stores the claims on the context.
// It aborts the request and returns false on failure.
func authenticate(c *gin.Context) (*auth.Claims, bool) {
	if claims, ok := c.Get(CtxClaims); ok {
		return claims.(*auth.Claims), true
	}

	tokenString, cookieErr := c.Cookie("access_token")
	if cookieErr != nil || tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return nil, false
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
			return nil, false
		}
		tokenString = parts[1]
	}

	if issuer == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "auth middleware not initialized"))
		return nil, false
	}
	claims, err := issuer.Parse(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token: "+err.Error()))
		return nil, false
	}

	c.Set(CtxClaims, claims)
	c.Set(CtxStaffID, claims.StaffID())
	c.Set(CtxRole, claims.Role)
	c.Set(CtxName, claims.Name)
	return claims, true
}

// Authenticated only requires a valid session.
func Authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authenticate(c); !ok {
			return
		}
		c.Next()
	}
}

// RequireRole checks that the session role is one of allowedRoles.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c)
		if !ok {
			return
		}
		for _, role := range allowedRoles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
	}
}

// RequirePermission checks the session role against the static permission table.
func RequirePermission(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c)
		if !ok {
			return
		}
		for _, required := range requiredPerms {
			if !auth.HasPermission(claims.Role, required) {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+required+"'"))
				return
			}
		}
		c.Next()
	}
}

// RequireDrawer rejects view-only sessions.
func RequireDrawer() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c)
		if !ok {
			return
		}
		if claims.ViewOnly() {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "View-only sessions cannot operate the drawer"))
			return
		}
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by the auth middleware, or nil.
func ClaimsFrom(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(CtxClaims); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
