package middleware

import (
	"crypto/subtle"
	"net/http"

	"gasstation_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// APIKeyMiddleware guards administrative routes (price changes, anomaly
// backfill) with a static shared key from configuration. An empty configured
// key disables the check, which is the development default. Full
// authentication lives in the surrounding platform, not in this service.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		provided := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or missing API key.", ""))
			return
		}
		c.Next()
	}
}
