package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/qualopt/internal/container"
	handlers "github.com/oksasatya/qualopt/internal/interface/http"
	"github.com/oksasatya/qualopt/internal/interface/middleware"
	"github.com/oksasatya/qualopt/pkg/helpers"
)

// StudyModule registers study CRUD, participant links and invitation sending.
// All routes are protected and scoped to the authenticated owner.
type StudyModule struct {
	Handler *handlers.StudyHandler
	JWT     *helpers.JWTManager
}

func NewStudyModule(h *handlers.StudyHandler, jwt *helpers.JWTManager) *StudyModule {
	return &StudyModule{Handler: h, JWT: jwt}
}

func (m *StudyModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/studies")
	g.Use(protected(m.JWT)...)
	{
		g.POST("", m.Handler.Create)
		g.GET("", m.Handler.List)
		g.GET("/:id", m.Handler.Get)
		g.PUT("/:id", m.Handler.Update)
		g.DELETE("/:id", m.Handler.Delete)

		g.GET("/:id/participants", m.Handler.ListParticipants)
		g.PUT("/:id/participants/:participantID", m.Handler.AddParticipant)
		g.DELETE("/:id/participants/:participantID", m.Handler.RemoveParticipant)

		// Sending is expensive; limit per user and study.
		inviteLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByUserAndPath(), nil)
		g.POST("/:id/invitations", inviteLimiter, m.Handler.SendInvitations)
		g.GET("/:id/invitations/last", m.Handler.LastInvitation)
	}
}
