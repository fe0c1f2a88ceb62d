package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"github.com/smilebright/booking-api/internal/authz"
	"github.com/smilebright/booking-api/internal/handler"
	"github.com/smilebright/booking-api/internal/model"
	"github.com/smilebright/booking-api/internal/repository"
	"github.com/smilebright/booking-api/pkg/auth"
)

const (
	// ContextUser holds the authenticated *model.User.
	ContextUser = "user"

	userCacheTTL     = 30 * time.Second
	userCacheCleanup = time.Minute
)

type AuthMiddleware struct {
	tokens auth.JWTService
	users  repository.UserRepository

	// Short-lived cache so a burst of requests from the same session
	// does not hit the users table on every call.
	cache *gocache.Cache
}

func NewAuthMiddleware(tokens auth.JWTService, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		users:  users,
		cache:  gocache.New(userCacheTTL, userCacheCleanup),
	}
}

// Authenticate verifies the bearer token and loads the user into the
// request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		user, err := m.lookupUser(c, claims)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("account no longer exists"))
			c.Abort()
			return
		}

		c.Set(ContextUser, user)
		c.Next()
	}
}

// RequireAction rejects users whose role is not allowed to perform the
// action. Must run after Authenticate.
func (m *AuthMiddleware) RequireAction(action authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("not authenticated"))
			c.Abort()
			return
		}

		if !authz.Can(user.Role, action) {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("permission denied"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUser returns the authenticated user from the context, or nil.
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(ContextUser); ok {
		if user, ok := v.(*model.User); ok {
			return user
		}
	}
	return nil
}

func (m *AuthMiddleware) lookupUser(c *gin.Context, claims *auth.TokenClaims) (*model.User, error) {
	key := claims.UserID.String()
	if cached, ok := m.cache.Get(key); ok {
		return cached.(*model.User), nil
	}

	user, err := m.users.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil, err
	}

	m.cache.Set(key, user, gocache.DefaultExpiration)
	return user, nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.Split(header, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	// Websocket clients cannot set headers from the browser, they pass
	// the token as a query parameter instead.
	return c.Query("token")
}
