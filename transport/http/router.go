package http

import (
	"github.com/gin-gonic/gin"

	"github.com/silentoaq/zuvi-auth/service"
)

// SetupRouter sets up the gin router with the auth endpoints.
func SetupRouter(authService *service.AuthService) *gin.Engine {
	router := gin.Default()

	handlers := NewAuthHandlers(authService)

	auth := router.Group("/auth")
	{
		auth.POST("/message", handlers.Message)
		auth.POST("/login", handlers.Login)
		auth.GET("/verify", handlers.Verify)
		auth.POST("/logout", handlers.Logout)
	}

	user := router.Group("/user")
	user.Use(AuthMiddleware(authService))
	{
		user.GET("/credentials", handlers.Credentials)
	}

	return router
}
