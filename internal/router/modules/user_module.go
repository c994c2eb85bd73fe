package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/qualopt/internal/container"
	handlers "github.com/oksasatya/qualopt/internal/interface/http"
	"github.com/oksasatya/qualopt/internal/interface/middleware"
	"github.com/oksasatya/qualopt/pkg/helpers"
)

// UserModule wires session routes.
// Public: POST /api/login
// Protected: POST /api/logout, GET /api/profile
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil) // 10 req/min per IP
	rg.POST("/login", loginLimiter, m.Handler.Login)

	auth := rg.Group("/")
	auth.Use(protected(m.JWT)...)
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/profile", m.Handler.GetProfile)
	}
}

// protected is the middleware chain shared by every authenticated route.
func protected(jwt *helpers.JWTManager) []gin.HandlerFunc {
	rdb := container.GetRedis()
	return []gin.HandlerFunc{
		middleware.Auth(rdb, jwt),
		middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil),
	}
}
