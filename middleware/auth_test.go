package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"quizdeck/models"
)

const testSecret = "test-secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func signToken(t *testing.T, sub string, expiresIn time.Duration) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"iat": now.Unix(),
		"exp": now.Add(expiresIn).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// probe reports whether an identity was attached by the middleware under test.
func probe() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := CurrentUser(c); ok {
			c.JSON(http.StatusOK, gin.H{"username": user.Username})
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": nil})
	}
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)

	user := &models.User{Username: "alice123", Email: "alice@x.com", Password: "hash", Role: models.RoleUser}
	require.NoError(t, db.Create(user).Error)

	router := gin.New()
	router.GET("/probe", Auth(db, testSecret), probe())

	t.Run("missing header", func(t *testing.T) {
		w := doRequest(router, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "missing authorization header")
	})

	t.Run("wrong scheme", func(t *testing.T) {
		w := doRequest(router, "Token abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doRequest(router, "Bearer not.a.token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid token")
	})

	t.Run("expired token", func(t *testing.T) {
		w := doRequest(router, "Bearer "+signToken(t, user.ID.String(), -time.Minute))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "token expired")
	})

	t.Run("token for a deleted user", func(t *testing.T) {
		w := doRequest(router, "Bearer "+signToken(t, uuid.New().String(), time.Hour))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		w := doRequest(router, "Bearer "+signToken(t, user.ID.String(), time.Hour))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "alice123")
	})
}

func TestOptionalAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)

	user := &models.User{Username: "alice123", Email: "alice@x.com", Password: "hash", Role: models.RoleUser}
	require.NoError(t, db.Create(user).Error)

	router := gin.New()
	router.GET("/probe", OptionalAuth(db, testSecret), probe())

	t.Run("no header proceeds as anonymous", func(t *testing.T) {
		w := doRequest(router, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "null")
	})

	t.Run("broken token proceeds as anonymous", func(t *testing.T) {
		w := doRequest(router, "Bearer broken")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "null")
	})

	t.Run("expired token proceeds as anonymous", func(t *testing.T) {
		w := doRequest(router, "Bearer "+signToken(t, user.ID.String(), -time.Minute))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "null")
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		w := doRequest(router, "Bearer "+signToken(t, user.ID.String(), time.Hour))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "alice123")
	})
}
