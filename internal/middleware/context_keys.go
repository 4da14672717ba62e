package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// actorKey is the key used to store the acting operator's identifier.
const actorKey = contextKey("actor")

// DefaultActor is recorded when a caller supplies no actor header, e.g. cron
// jobs invoking batch settlement.
const DefaultActor = "system"

// ActorMiddleware reads the X-Actor-ID header into the request context so
// audit trails can attribute mutations. Authentication itself is handled
// upstream of this backend.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader("X-Actor-ID")
		if actor == "" {
			actor = DefaultActor
		}
		ctx := context.WithValue(c.Request.Context(), actorKey, actor)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetActorFromContext retrieves the acting operator from the request context.
func GetActorFromContext(c *gin.Context) string {
	return GetActor(c.Request.Context())
}

// GetActor retrieves the acting operator from a plain context.
func GetActor(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey).(string); ok && actor != "" {
		return actor
	}
	return DefaultActor
}
