package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/studentauth/internal/app/controllers"
	"github.com/yigit/studentauth/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	authMiddleware *middleware.AuthMiddleware,
) {
	api := router.Group("/api")

	// --- Public student routes ---
	student := api.Group("/student")
	{
		student.POST("/register", authController.Register)
		student.POST("/login", authController.Login)
		// Logout needs no session; a valid one is only identified for logging
		student.POST("/logout", authMiddleware.IdentifyStudent(), authController.Logout)
	}

	// --- Authenticated student routes ---
	authenticated := student.Group("")
	authenticated.Use(authMiddleware.RequireStudent())
	{
		authenticated.GET("/me", authController.Me)
	}
}
