package httpserver

import (
	"context"
	"strings"

	"feathermart/internal/domain"
	"github.com/gin-gonic/gin"
)

type ctxKey string

const actorCtxKey ctxKey = "actor"

// actorMiddleware resolves the caller once per request. It never rejects;
// handlers that need a user check the actor themselves.
func actorMiddleware(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := sessions.ResolveActor(c.Request.Context(), bearerToken(c), c.GetHeader(anonymousTokenHeader))
		setActor(c, actor)
		c.Next()
	}
}

func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !actorFrom(c).Authenticated {
			writeError(c, nil, domain.ErrAuthenticationRequired)
			c.Abort()
			return
		}
		c.Next()
	}
}

func setActor(c *gin.Context, actor domain.Actor) {
	ctx := context.WithValue(c.Request.Context(), actorCtxKey, actor)
	c.Request = c.Request.WithContext(ctx)
}

func actorFrom(c *gin.Context) domain.Actor {
	if actor, ok := c.Request.Context().Value(actorCtxKey).(domain.Actor); ok {
		return actor
	}
	return domain.AnonymousActor("")
}

func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
