package router

import (
	"github.com/oksasatya/qualopt/internal/application"
	"github.com/oksasatya/qualopt/internal/container"
	pginfra "github.com/oksasatya/qualopt/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/qualopt/internal/interface/http"
	"github.com/oksasatya/qualopt/internal/router/modules"
)

type moduleDeps struct {
	Users        *handlers.UserHandler
	Studies      *handlers.StudyHandler
	Participants *handlers.ParticipantHandler
}

func buildDeps() moduleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	userRepo := pginfra.NewUserRepository(pool)
	studyRepo := pginfra.NewStudyRepository(pool)
	participantRepo := pginfra.NewParticipantRepository(pool)

	userSvc := application.NewUserService(userRepo, container.GetJWT(), container.GetRedis(), logger)
	participantSvc := application.NewParticipantService(participantRepo, logger, container.GetES(), cfg.ESParticipantsIndex)
	reports := application.NewInvitationReports(container.GetRedis(), cfg.InvitationReportTTL, logger)
	studySvc := application.NewStudyService(studyRepo, participantRepo, userRepo, container.GetScheduler(), reports, logger)

	return moduleDeps{
		Users:        handlers.NewUserHandler(userSvc, logger, cfg.CookieDomain, cfg.CookieSecure),
		Studies:      handlers.NewStudyHandler(studySvc, logger),
		Participants: handlers.NewParticipantHandler(participantSvc, logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildDeps()
	jwt := container.GetJWT()
	r.Add(modules.NewHealthModule())
	r.Add(modules.NewUserModule(deps.Users, jwt))
	r.Add(modules.NewStudyModule(deps.Studies, jwt))
	r.Add(modules.NewParticipantModule(deps.Participants, jwt))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
