package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/qualopt/internal/interface/http"
	"github.com/oksasatya/qualopt/pkg/helpers"
)

type ParticipantModule struct {
	Handler *handlers.ParticipantHandler
	JWT     *helpers.JWTManager
}

func NewParticipantModule(h *handlers.ParticipantHandler, jwt *helpers.JWTManager) *ParticipantModule {
	return &ParticipantModule{Handler: h, JWT: jwt}
}

func (m *ParticipantModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/participants")
	g.Use(protected(m.JWT)...)
	{
		g.POST("", m.Handler.Create)
		g.GET("", m.Handler.List)
		g.GET("/search", m.Handler.Search)
		g.GET("/:id", m.Handler.Get)
		g.PUT("/:id", m.Handler.Update)
		g.DELETE("/:id", m.Handler.Delete)
		g.GET("/:id/studies", m.Handler.Studies)
	}
}
