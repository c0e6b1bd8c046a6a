package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quizdeck/handlers"
)

// SetupRoutes wires the HTTP surface. The auth middlewares are injected so
// tests can assemble a router without reaching into config.
func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	quizHandler *handlers.QuizHandler,
	requireAuth gin.HandlerFunc,
	optionalAuth gin.HandlerFunc,
) {
	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Profile
		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("/profile", authHandler.GetProfile)
			users.PUT("/profile", authHandler.UpdateProfile)
		}

		// Public quiz surface: no token needed for the catalogue, optional
		// for play (private quizzes need an owner or admin token).
		api.GET("/quizzes/public", quizHandler.ListPublic)
		api.GET("/quizzes/:id/play", optionalAuth, quizHandler.Play)

		// Quiz CRUD
		quizzes := api.Group("/quizzes")
		quizzes.Use(requireAuth)
		{
			quizzes.GET("", quizHandler.List)
			quizzes.POST("", quizHandler.Create)
			quizzes.GET("/:id", quizHandler.GetByID)
			quizzes.PUT("/:id", quizHandler.Update)
			quizzes.DELETE("/:id", quizHandler.Delete)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
