package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shenikar/emergency_dispatch_system/internal/config"
	"github.com/shenikar/emergency_dispatch_system/internal/models"
	"github.com/sirupsen/logrus"
)

const actorContextKey = "actor"

// UserResolver разрешает идентификатор вызывающего в пользователя справочника
type UserResolver interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// APIKeyAuthMiddleware - middleware для аутентификации по API-ключу
func APIKeyAuthMiddleware(cfg *config.Config, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			// Проверяем также заголовок Authorization: Bearer
			authHeader := c.GetHeader("Authorization")
			if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
				apiKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if apiKey == "" {
			log.Warn("API key missing from request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API key required"})
			return
		}

		isValid := false
		for _, key := range cfg.APIKeys {
			if key == apiKey {
				isValid = true
				break
			}
		}

		if !isValid {
			log.Warnf("Invalid API key provided: %s", apiKey)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			return
		}

		c.Next()
	}
}

// ActorMiddleware - middleware, разрешающее вызывающего по заголовку
// X-Actor-ID: роль берется из справочника, а не из запроса
func ActorMiddleware(users UserResolver, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, err := uuid.Parse(c.GetHeader("X-Actor-ID"))
		if err != nil {
			log.Warn("Actor ID missing or malformed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-Actor-ID header required"})
			return
		}

		user, err := users.GetUser(c.Request.Context(), actorID)
		if err != nil {
			log.WithError(err).Warn("Unknown actor")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown actor"})
			return
		}

		c.Set(actorContextKey, models.Actor{ID: user.ID, Role: user.Role})
		c.Next()
	}
}

// actorFrom возвращает вызывающего, помещенного в контекст ActorMiddleware
func actorFrom(c *gin.Context) models.Actor {
	if value, ok := c.Get(actorContextKey); ok {
		if actor, ok := value.(models.Actor); ok {
			return actor
		}
	}
	return models.Actor{}
}
