package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/qualopt/internal/application"
	"github.com/oksasatya/qualopt/pkg/helpers"
	"github.com/oksasatya/qualopt/pkg/response"
	"github.com/oksasatya/qualopt/pkg/validation"
)

type StudyHandler struct {
	Svc    *application.StudyService
	Logger *logrus.Logger
}

func NewStudyHandler(svc *application.StudyService, logger *logrus.Logger) *StudyHandler {
	return &StudyHandler{Svc: svc, Logger: logger}
}

type studyRequest struct {
	Name         string  `json:"name" binding:"required,max=200"`
	Description  string  `json:"description" binding:"max=2000"`
	EmailSubject string  `json:"email_subject" binding:"max=255"`
	EmailBody    *string `json:"email_body"`
}

func (r studyRequest) input() application.StudyInput {
	return application.StudyInput{
		Name:         r.Name,
		Description:  r.Description,
		EmailSubject: r.EmailSubject,
		EmailBody:    r.EmailBody,
	}
}

// fail maps service errors onto HTTP statuses.
func (h *StudyHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrStudyNotFound):
		response.Error[any](c, http.StatusNotFound, "study not found", nil)
	case errors.Is(err, application.ErrParticipantNotFound):
		response.Error[any](c, http.StatusNotFound, "participant not found", nil)
	case errors.Is(err, application.ErrNoParticipants):
		response.Error[any](c, http.StatusUnprocessableEntity, "study has no participants", nil)
	case errors.Is(err, application.ErrInvitationsDisabled):
		response.Error[any](c, http.StatusServiceUnavailable, "invitation sending is disabled", nil)
	default:
		helpers.LogError(h.Logger, "study request failed", err, logrus.Fields{"path": c.FullPath(), "study_id": c.Param("id")})
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
	}
}

func (h *StudyHandler) Create(c *gin.Context) {
	var req studyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	st, err := h.Svc.Create(c.Request.Context(), c.GetString("userID"), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, studyView(st), "study created", nil)
}

func (h *StudyHandler) List(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, studyViews(list), "studies", map[string]any{"count": len(list)})
}

func (h *StudyHandler) Get(c *gin.Context) {
	st, err := h.Svc.Get(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, studyView(st), "study", nil)
}

func (h *StudyHandler) Update(c *gin.Context) {
	var req studyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	st, err := h.Svc.Update(c.Request.Context(), c.GetString("userID"), c.Param("id"), req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, studyView(st), "study updated", nil)
}

func (h *StudyHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"deleted": true}, "study deleted", nil)
}

func (h *StudyHandler) ListParticipants(c *gin.Context) {
	list, err := h.Svc.ListParticipants(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, participantViews(list), "participants", map[string]any{"count": len(list)})
}

func (h *StudyHandler) AddParticipant(c *gin.Context) {
	err := h.Svc.AddParticipant(c.Request.Context(), c.GetString("userID"), c.Param("id"), c.Param("participantID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"linked": true}, "participant added", nil)
}

func (h *StudyHandler) RemoveParticipant(c *gin.Context) {
	err := h.Svc.RemoveParticipant(c.Request.Context(), c.GetString("userID"), c.Param("id"), c.Param("participantID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"unlinked": true}, "participant removed", nil)
}

// SendInvitations accepts the batch and returns before any email is sent.
func (h *StudyHandler) SendInvitations(c *gin.Context) {
	batchID, err := h.Svc.SendInvitationEmail(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success[any](c, http.StatusAccepted, map[string]any{"batch_id": batchID}, "invitations scheduled", nil)
}

func (h *StudyHandler) LastInvitation(c *gin.Context) {
	rep, err := h.Svc.LastInvitationReport(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if rep == nil {
		response.Error[any](c, http.StatusNotFound, "no invitation batch recorded", nil)
		return
	}
	response.Success(c, http.StatusOK, rep, "last invitation batch", nil)
}
