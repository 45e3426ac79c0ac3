package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	iauth "github.com/jcastel/authbase/internal/auth"
	"github.com/jcastel/authbase/internal/handlers"
	"github.com/jcastel/authbase/internal/middleware"
)

// NewRouter builds the Gin engine, wires the middleware chain and registers
// the credential routes.
func NewRouter(db *gorm.DB, credentials *iauth.CredentialService) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if credentials == nil {
		return nil, fmt.Errorf("credential service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())

	// Operational endpoints (public)
	r.GET("/health", handlers.Health(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler, err := handlers.NewAuthHandler(credentials)
	if err != nil {
		return nil, err
	}

	// Public credential routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.GET("/verify", authHandler.VerifyEmail)
		auth.POST("/signin", authHandler.Signin)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	// Routes behind the request gate
	requireAuth := middleware.Auth(credentials.Tokens())

	protected := r.Group("/api/auth")
	protected.Use(requireAuth)
	{
		protected.POST("/signout", authHandler.Signout)
		protected.GET("/me", authHandler.Me)
	}

	return r, nil
}
