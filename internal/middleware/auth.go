package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// TenantClaims are the JWT claims carrying the tenant scope. Tokens are
// issued by the external identity subsystem; this middleware only validates
// and extracts.
type TenantClaims struct {
	Market        string   `json:"market"`
	Org           string   `json:"org"`
	LegalEntities []string `json:"legal_entities"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and places the resulting
// RequestScope into the gin context. There is no ambient tenant state:
// handlers read the scope and pass it explicitly into services.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		token, err := jwt.ParseWithClaims(parts[1], &TenantClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			logger.Warn("Invalid token", "error", err)
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		claims, ok := token.Claims.(*TenantClaims)
		if !ok || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}
		if claims.Subject == "" || claims.Market == "" || claims.Org == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token missing tenant claims"})
			return
		}

		legalEntities := make([]domain.LegalEntityID, 0, len(claims.LegalEntities))
		for _, le := range claims.LegalEntities {
			legalEntities = append(legalEntities, domain.LegalEntityID(le))
		}

		scope, err := domain.NewRequestScope(
			domain.MarketID(claims.Market),
			domain.OrgID(claims.Org),
			legalEntities,
			claims.Subject,
		)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid tenant scope"})
			return
		}

		c.Set(string(requestScopeKey), scope)
		c.Next()
	}
}
