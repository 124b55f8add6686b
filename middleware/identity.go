package middleware

import (
	"strings"

	"github.com/nambautroi00/ClinicBooking-sub002/utils"

	"github.com/gin-gonic/gin"
)

// PatientIDKey is the gin context key carrying the resolved patient identity.
const PatientIDKey = "patientID"

// IdentityMiddleware resolves an optional patient identity from a bearer
// token minted by the auth collaborator. Requests without a valid token pass
// through with no identity; the confirm step decides whether to suspend the
// booking flow pending login.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token := strings.TrimPrefix(header, "Bearer ")
			if patientID, err := utils.ExtractIDFromToken(token); err == nil {
				c.Set(PatientIDKey, patientID)
			}
		}
		c.Next()
	}
}

// PatientID returns the resolved patient identity, or empty when absent.
func PatientID(c *gin.Context) string {
	if v, ok := c.Get(PatientIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
