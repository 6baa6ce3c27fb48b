package middleware

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"colorgarb-portal/internal/authz"
	"colorgarb-portal/internal/models"
)

const actorContextKey = "actor_context"

// SetupCORS configures CORS middleware
func SetupCORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000", // React portal (local dev)
			"https://*.colorgarb.com",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// Recovery returns a middleware that recovers from panics
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithField("panic", fmt.Sprintf("%v", recovered)).Error("Panic recovered")
		c.AbortWithStatusJSON(500, gin.H{
			"error":   "Internal Server Error",
			"message": "An unexpected error occurred",
		})
	})
}

// RequestID adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// ActorContext builds the authorization context from the identity headers
// that the Istio sidecar injects after JWT validation. Missing or
// malformed headers leave the context without an identity, so the access
// policy denies downstream rather than this middleware aborting.
func ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := authz.Context{
			RawRole:   c.GetHeader("x-jwt-claim-role"),
			ClientIP:  c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
		}

		if userID, err := uuid.Parse(c.GetHeader("x-jwt-claim-sub")); err == nil {
			actor.UserID = userID
		}
		if role, err := models.ParseRole(actor.RawRole); err == nil {
			actor.Role = role
		}
		if orgID, err := uuid.Parse(c.GetHeader("x-jwt-claim-organization-id")); err == nil {
			actor.OrganizationID = &orgID
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// GetActor extracts the authorization context set by ActorContext
func GetActor(c *gin.Context) authz.Context {
	if value, exists := c.Get(actorContextKey); exists {
		if actor, ok := value.(authz.Context); ok {
			return actor
		}
	}
	return authz.Context{
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Method:    c.Request.Method,
		Path:      c.Request.URL.Path,
	}
}
