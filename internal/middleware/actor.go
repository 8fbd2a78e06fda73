package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Identity headers set by the authentication proxy in front of the service.
const (
	PassengerIDHeader = "X-Passenger-ID"
	ActorIDHeader     = "X-Actor-ID"

	passengerIDKey = "passengerID"
	actorIDKey     = "actorID"
)

// RequirePassenger rejects requests without a passenger identity.
func RequirePassenger() gin.HandlerFunc {
	return requireHeader(PassengerIDHeader, passengerIDKey)
}

// RequireActor rejects requests without a staff identity.
func RequireActor() gin.HandlerFunc {
	return requireHeader(ActorIDHeader, actorIDKey)
}

func requireHeader(header, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + header + " header"})
			return
		}
		c.Set(key, id)
		c.Next()
	}
}

// PassengerID returns the passenger set by RequirePassenger.
func PassengerID(c *gin.Context) string {
	return c.GetString(passengerIDKey)
}

// ActorID returns the actor set by RequireActor.
func ActorID(c *gin.Context) string {
	return c.GetString(actorIDKey)
}
