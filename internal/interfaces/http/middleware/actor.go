package middleware

import (
	"strings"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
)

// Actor headers identify who performs a mutating call
const (
	ActorNameHeader  = "X-Actor-Name"
	ActorEmailHeader = "X-Actor-Email"
	ActorRoleHeader  = "X-Actor-Role"

	actorKey = "actor"
)

// Actor reads the actor headers into the gin context and tags the request
// logger with the actor name. Requests without headers act as the system.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := shared.Actor{
			Name:  truncate(strings.TrimSpace(c.GetHeader(ActorNameHeader)), 200),
			Email: truncate(strings.TrimSpace(c.GetHeader(ActorEmailHeader)), 200),
			Role:  truncate(strings.TrimSpace(c.GetHeader(ActorRoleHeader)), 100),
		}.OrSystem()
		c.Set(actorKey, actor)
		c.Request = c.Request.WithContext(logger.WithActor(c.Request.Context(), actor.Name))
		c.Next()
	}
}

// GetActor returns the actor of the request
func GetActor(c *gin.Context) shared.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(shared.Actor); ok {
			return actor
		}
	}
	return shared.SystemActor
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
