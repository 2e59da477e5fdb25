package middleware

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"nimbus-backend/internal/model"
	"nimbus-backend/internal/service"
	"nimbus-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const actorKey = "actor"

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// Identify parses the bearer token and stores the acting user and their
// role ids on the gin context. Identity is assumed to be issued by an
// upstream system; this service only consumes the claims.
func Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, cookieErr := c.Cookie("access_token")
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
				return
			}
			tokenString = parts[1]
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return GetJWTSecret(), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		actor, err := actorFromClaims(claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

func actorFromClaims(claims jwt.MapClaims) (service.Actor, error) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return service.Actor{}, fmt.Errorf("subject not found in token")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return service.Actor{}, fmt.Errorf("invalid subject in token")
	}

	var roleIDs []uuid.UUID
	if raw, ok := claims["roles"].([]interface{}); ok {
		for _, value := range raw {
			str, ok := value.(string)
			if !ok {
				continue
			}
			roleID, err := uuid.Parse(str)
			if err != nil {
				continue
			}
			roleIDs = append(roleIDs, roleID)
		}
	}

	return service.Actor{UserID: userID, RoleIDs: roleIDs}, nil
}

// GetActor returns the actor stored by Identify. The zero Actor means the
// route was not behind Identify.
func GetActor(c *gin.Context) service.Actor {
	if value, ok := c.Get(actorKey); ok {
		if actor, ok := value.(service.Actor); ok {
			return actor
		}
	}
	return service.Actor{}
}

// --- Capability gate ---

type capCacheEntry struct {
	allowed   bool
	expiresAt time.Time
}

var (
	capCache    sync.Map // "roleKey|entity|cap" -> capCacheEntry
	capCacheTTL = 5 * time.Minute
)

// roleSvc backs RequireCapability — set via InitCapabilityMiddleware.
var roleSvc service.RoleService

// InitCapabilityMiddleware sets the role service used for capability checks.
func InitCapabilityMiddleware(svc service.RoleService) {
	roleSvc = svc
}

// RequireCapability rejects the request unless one of the actor's roles
// grants the capability on the entity. Decisions are cached per role set
// for a few minutes.
func RequireCapability(entity model.EntityKind, capability model.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor.UserID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		allowed, err := capabilityAllowed(c.Request.Context(), actor, entity, capability)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, fmt.Sprintf("Access denied: missing %s permission on %s", capability, entity)))
			return
		}

		c.Next()
	}
}

func capabilityAllowed(ctx context.Context, actor service.Actor, entity model.EntityKind, capability model.Capability) (bool, error) {
	key := cacheKey(actor.RoleIDs, entity, capability)
	if entry, ok := capCache.Load(key); ok {
		cached := entry.(capCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.allowed, nil
		}
	}

	if roleSvc == nil {
		return false, fmt.Errorf("capability middleware not initialized")
	}

	allowed, err := roleSvc.Allowed(ctx, actor.RoleIDs, entity, capability)
	if err != nil {
		return false, err
	}

	capCache.Store(key, capCacheEntry{
		allowed:   allowed,
		expiresAt: time.Now().Add(capCacheTTL),
	})
	return allowed, nil
}

func cacheKey(roleIDs []uuid.UUID, entity model.EntityKind, capability model.Capability) string {
	var b strings.Builder
	for _, id := range roleIDs {
		b.WriteString(id.String())
		b.WriteByte(',')
	}
	b.WriteByte('|')
	b.WriteString(string(entity))
	b.WriteByte('|')
	b.WriteString(string(capability))
	return b.String()
}

// ClearCapabilityCache drops every cached decision, e.g. after a
// permission matrix update.
func ClearCapabilityCache() {
	capCache.Range(func(key, _ interface{}) bool {
		capCache.Delete(key)
		return true
	})
}
