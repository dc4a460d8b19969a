package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/byjojo/store-backend/models"
)

const UserKey = "authUser"

// AuthMiddleware validates the bearer credential and stores the authenticated
// user on the context. The hosted backend issues HS256 tokens with the user id
// in "sub" and the address in "email".
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid authorization header", "success": false})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := parseToken(tokenStr, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed", "success": false})
			return
		}

		sub, _ := claims["sub"].(string)
		email, _ := claims["email"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil || email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed", "success": false})
			return
		}

		c.Set(UserKey, models.AuthenticatedUser{ID: userID, Email: email})
		c.Next()
	}
}

func parseToken(tokenStr string, secret []byte) (jwt.MapClaims, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// GetAuthUser returns the authenticated user stored by AuthMiddleware.
func GetAuthUser(c *gin.Context) (models.AuthenticatedUser, bool) {
	val, exists := c.Get(UserKey)
	if !exists {
		return models.AuthenticatedUser{}, false
	}
	user, ok := val.(models.AuthenticatedUser)
	return user, ok
}
