package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// actorIDKey is the key used to store the acting user reference in the context.
const actorIDKey = contextKey("actorID")

// ActorHeader is the request header naming the acting user. The accounting
// core does not authenticate; callers are trusted internal systems and the
// header value flows straight into the audit columns.
const ActorHeader = "X-Actor-ID"

// defaultActor is recorded when the caller supplies no actor header.
const defaultActor = "system"

// ActorMiddleware resolves the acting user from the request header and stores
// it in both the gin context and the request context.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(ActorHeader)
		if actor == "" {
			actor = defaultActor
		}
		c.Set(string(actorIDKey), actor)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), actorIDKey, actor))
		c.Next()
	}
}

// GetActorFromContext retrieves the acting user reference from the Gin context.
func GetActorFromContext(c *gin.Context) string {
	actorVal, exists := c.Get(string(actorIDKey))
	if !exists {
		if v, ok := c.Request.Context().Value(actorIDKey).(string); ok {
			return v
		}
		return defaultActor
	}

	actor, ok := actorVal.(string)
	if !ok {
		return defaultActor
	}
	return actor
}
