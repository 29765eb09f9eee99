package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/storelens/advisor/internal/dto"
)

// ContextStoreID is the gin context key the operator's tenant id is stored
// under after successful authentication.
const ContextStoreID = "store_id"

// StoreClaims is the operator token payload. StoreID scopes every admin call
// to one tenant.
type StoreClaims struct {
	StoreID uint `json:"store_id"`
	jwt.RegisteredClaims
}

// StoreAuth authenticates operator requests with a bearer JWT and puts the
// tenant's store id into the request context.
func StoreAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Authorization header is required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Authorization header must be in the format: Bearer {token}"})
			return
		}

		claims := &StoreClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			log.Warn().Err(err).Msg("Rejected operator token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Invalid or expired token"})
			return
		}
		if claims.StoreID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Token carries no store"})
			return
		}

		c.Set(ContextStoreID, claims.StoreID)
		c.Next()
	}
}

// StoreID reads the authenticated tenant from the gin context.
func StoreID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextStoreID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
