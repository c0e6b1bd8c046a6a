package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"quizdeck/models"
	"quizdeck/pkg/response"
)

const userContextKey = "currentUser"

// Auth requires a valid bearer token and resolves it to a user record with a
// single store lookup. The resolved user is attached to the gin context for
// downstream handlers.
func Auth(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, errMsg := extractBearerToken(c.GetHeader("Authorization"))
		if errMsg != "" {
			response.AbortUnauthorized(c, errMsg)
			return
		}

		userID, err := parseSubject(token, jwtSecret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.AbortUnauthorized(c, "token expired")
				return
			}
			response.AbortUnauthorized(c, "invalid token")
			return
		}

		var user models.User
		if err := db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
			response.AbortUnauthorized(c, "user not found")
			return
		}

		c.Set(userContextKey, &user)
		c.Next()
	}
}

// OptionalAuth resolves identity when a valid token is present and silently
// proceeds as anonymous on any token failure. Used by endpoints that behave
// differently for identified callers.
func OptionalAuth(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, errMsg := extractBearerToken(c.GetHeader("Authorization"))
		if errMsg != "" {
			c.Next()
			return
		}

		userID, err := parseSubject(token, jwtSecret)
		if err != nil {
			c.Next()
			return
		}

		var user models.User
		if err := db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
			c.Next()
			return
		}

		c.Set(userContextKey, &user)
		c.Next()
	}
}

// CurrentUser retrieves the identity attached by Auth or OptionalAuth. The
// second return is false for anonymous requests.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	val, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := val.(*models.User)
	return user, ok
}

func extractBearerToken(header string) (string, string) {
	if header == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

func parseSubject(tokenString, secret string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	if !token.Valid {
		return uuid.Nil, jwt.ErrTokenMalformed
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}
	sub, _ := claims["sub"].(string)
	return uuid.Parse(sub)
}
