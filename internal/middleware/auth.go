package middleware

import (
	"net/http"
	"strings"
	"time"

	"panjar/internal/service"
	"panjar/internal/workflow"
	"panjar/pkg/logger"
	"panjar/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	actorKey        = "actor"
	accessCookie    = "access_token"
	refreshCookie   = "refresh_token"
	ctxUserIDKey    = "userID"
	ctxUserRolesKey = "userRoles"
)

// Auth validates access tokens and manages the auth cookies.
type Auth struct {
	secret        []byte
	secureCookies bool
}

func NewAuth(secret []byte, secureCookies bool) *Auth {
	return &Auth{secret: secret, secureCookies: secureCookies}
}

func (a *Auth) Secret() []byte { return a.secret }

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func (a *Auth) SetTokenCookies(c *gin.Context, accessToken, refreshToken string, accessTTL, refreshTTL time.Duration) {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	sameSite := http.SameSiteLaxMode
	if a.secureCookies {
		sameSite = http.SameSiteNoneMode
	}

	c.SetSameSite(sameSite)
	c.SetCookie(accessCookie, accessToken, int(accessTTL.Seconds()), "/", "", a.secureCookies, true)
	c.SetCookie(refreshCookie, refreshToken, int(refreshTTL.Seconds()), "/", "", a.secureCookies, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func (a *Auth) ClearTokenCookies(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	if a.secureCookies {
		sameSite = http.SameSiteNoneMode
	}

	c.SetSameSite(sameSite)
	c.SetCookie(accessCookie, "", -1, "/", "", a.secureCookies, true)
	c.SetCookie(refreshCookie, "", -1, "/", "", a.secureCookies, true)
}

// RefreshTokenFromCookie returns the refresh token cookie, if any.
func RefreshTokenFromCookie(c *gin.Context) string {
	token, err := c.Cookie(refreshCookie)
	if err != nil {
		return ""
	}
	return token
}

// RequireAuth validates the access token from the cookie or the Authorization
// header and stores the resolved actor on the context.
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := a.authenticate(c); !ok {
			return
		}
		c.Next()
	}
}

// RequireRole is RequireAuth plus a check that the actor holds at least one of
// the named roles. Admins always pass.
func (a *Auth) RequireRole(allowedRoles ...string) gin.HandlerFunc {
	allowed := make([]workflow.Role, 0, len(allowedRoles)+1)
	for _, name := range allowedRoles {
		allowed = append(allowed, workflow.ParseRole(name))
	}
	allowed = append(allowed, workflow.RoleAdmin)

	return func(c *gin.Context) {
		actor, ok := a.authenticate(c)
		if !ok {
			return
		}

		if !actor.Roles.HasAny(allowed...) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		c.Next()
	}
}

func (a *Auth) authenticate(c *gin.Context) (service.Actor, bool) {
	// Try cookie first, fallback to Authorization header
	tokenString, cookieErr := c.Cookie(accessCookie)
	if cookieErr != nil || tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return service.Actor{}, false
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
			return service.Actor{}, false
		}
		tokenString = parts[1]
	}

	claims, err := service.ParseToken(tokenString, a.secret, service.TokenTypeAccess)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token: "+err.Error()))
		return service.Actor{}, false
	}

	actor, err := claims.Actor()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
		return service.Actor{}, false
	}

	c.Set(actorKey, actor)
	c.Set(ctxUserIDKey, claims.Subject)
	c.Set(ctxUserRolesKey, claims.Roles)
	return actor, true
}

// ActorFromContext returns the actor stored by RequireAuth or RequireRole.
func ActorFromContext(c *gin.Context) (service.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return service.Actor{}, false
	}
	actor, ok := v.(service.Actor)
	return actor, ok
}

// RequestLogger logs one line per request through the shared logrus logger.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		entry := logger.Log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     path,
			"status":   c.Writer.Status(),
			"latency":  time.Since(start).String(),
			"clientIP": c.ClientIP(),
		})
		if uid, ok := c.Get(ctxUserIDKey); ok {
			entry = entry.WithField("user_id", uid)
		}

		switch {
		case len(c.Errors) > 0:
			entry.Error(c.Errors.String())
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		default:
			entry.Info("request handled")
		}
	}
}
