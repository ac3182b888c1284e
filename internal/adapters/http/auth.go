package http

import (
	"net/http"

	"github.com/dkeye/Attend/internal/adapters/signal"
	"github.com/dkeye/Attend/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// IdentityClaims is what the login service puts in the token.
type IdentityClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// IdentityMiddleware requires an HS256 token from the "token" query param
// or the "session-token" cookie and stores its username for the signal adapter.
func IdentityMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			tokenString, _ = c.Cookie("session-token")
		}
		if tokenString == "" {
			log.Warn().Str("module", "adapters.http").Str("ip", c.ClientIP()).Msg("token missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			log.Warn().Err(err).Str("module", "adapters.http").Str("ip", c.ClientIP()).Msg("invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, ok := token.Claims.(*IdentityClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		name, err := domain.NewDisplayName(claims.Username)
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Msg("bad username claim")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(signal.IdentityKey, string(name))
		c.Next()
	}
}
