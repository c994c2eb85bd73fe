package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/qualopt/internal/application"
	"github.com/oksasatya/qualopt/internal/domain/entity"
	"github.com/oksasatya/qualopt/pkg/helpers"
	"github.com/oksasatya/qualopt/pkg/response"
	"github.com/oksasatya/qualopt/pkg/validation"
)

type ParticipantHandler struct {
	Svc    *application.ParticipantService
	Logger *logrus.Logger
}

func NewParticipantHandler(svc *application.ParticipantService, logger *logrus.Logger) *ParticipantHandler {
	return &ParticipantHandler{Svc: svc, Logger: logger}
}

type participantRequest struct {
	Email                 string  `json:"email" binding:"required,email"`
	FirstName             *string `json:"first_name" binding:"omitempty,max=100"`
	LastName              *string `json:"last_name" binding:"omitempty,max=100"`
	Location              *string `json:"location" binding:"omitempty,max=200"`
	Occupation            *string `json:"occupation" binding:"omitempty,max=200"`
	ProgrammingLanguage   *string `json:"programming_language" binding:"omitempty,max=100"`
	NumberOfContributions *int    `json:"number_of_contributions" binding:"omitempty,gte=0"`
	NumberOfRepositories  *int    `json:"number_of_repositories" binding:"omitempty,gte=0"`
}

func (r participantRequest) entity() entity.Participant {
	return entity.Participant{
		Email:                 r.Email,
		FirstName:             r.FirstName,
		LastName:              r.LastName,
		Location:              r.Location,
		Occupation:            r.Occupation,
		ProgrammingLanguage:   r.ProgrammingLanguage,
		NumberOfContributions: r.NumberOfContributions,
		NumberOfRepositories:  r.NumberOfRepositories,
	}
}

func (h *ParticipantHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrParticipantNotFound):
		response.Error[any](c, http.StatusNotFound, "participant not found", nil)
	case errors.Is(err, application.ErrInvalidParticipantEmail):
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"email": "must be a valid email"})
	default:
		helpers.LogError(h.Logger, "participant request failed", err, logrus.Fields{"path": c.FullPath(), "participant_id": c.Param("id")})
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
	}
}

func (h *ParticipantHandler) Create(c *gin.Context) {
	var req participantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	p := req.entity()
	if err := h.Svc.Create(c.Request.Context(), &p); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, participantView(&p), "participant created", nil)
}

func (h *ParticipantHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, participantViews(list), "participants", map[string]any{"count": len(list), "limit": limit, "offset": offset})
}

func (h *ParticipantHandler) Get(c *gin.Context) {
	p, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, participantView(p), "participant", nil)
}

func (h *ParticipantHandler) Update(c *gin.Context) {
	var req participantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	p, err := h.Svc.Update(c.Request.Context(), c.Param("id"), req.entity())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, participantView(p), "participant updated", nil)
}

func (h *ParticipantHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"deleted": true}, "participant deleted", nil)
}

func (h *ParticipantHandler) Studies(c *gin.Context) {
	list, err := h.Svc.Studies(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, studyViews(list), "studies", map[string]any{"count": len(list)})
}

// Search queries the participants index; it returns an empty list when search
// is not configured.
func (h *ParticipantHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", map[string]string{"q": "is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		helpers.LogError(h.Logger, "participant search failed", err, logrus.Fields{"q": q})
		response.Error[any](c, http.StatusBadGateway, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
}
