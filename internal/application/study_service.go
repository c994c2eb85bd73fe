package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/qualopt/internal/domain/entity"
	repo "github.com/oksasatya/qualopt/internal/domain/repository"
	"github.com/oksasatya/qualopt/pkg/mailer"
)

var (
	ErrStudyNotFound       = errors.New("study not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrInvitationsDisabled = errors.New("invitation sending is disabled")
	ErrNoParticipants      = errors.New("study has no participants")
)

// ReportStore returns the last completed invitation batch of a study.
type ReportStore interface {
	Last(ctx context.Context, studyID string) (*mailer.Report, bool, error)
}

type StudyService struct {
	Studies      repo.StudyRepository
	Participants repo.ParticipantRepository
	Users        repo.UserRepository
	Scheduler    mailer.Scheduler // nil when sending is disabled
	Reports      ReportStore
	Logger       *logrus.Logger
}

func NewStudyService(studies repo.StudyRepository, participants repo.ParticipantRepository, users repo.UserRepository, scheduler mailer.Scheduler, reports ReportStore, logger *logrus.Logger) *StudyService {
	return &StudyService{
		Studies:      studies,
		Participants: participants,
		Users:        users,
		Scheduler:    scheduler,
		Reports:      reports,
		Logger:       logger,
	}
}

type StudyInput struct {
	Name         string
	Description  string
	EmailSubject string
	EmailBody    *string
}

func (s *StudyService) Create(ctx context.Context, userID string, in StudyInput) (*entity.Study, error) {
	st := &entity.Study{
		UserID:       userID,
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		EmailSubject: in.EmailSubject,
		EmailBody:    in.EmailBody,
	}
	if err := s.Studies.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Get returns the study only if userID owns it.
func (s *StudyService) Get(ctx context.Context, userID, id string) (*entity.Study, error) {
	st, err := s.Studies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrStudyNotFound
		}
		return nil, err
	}
	if st.UserID != userID {
		return nil, ErrStudyNotFound
	}
	return st, nil
}

func (s *StudyService) List(ctx context.Context, userID string) ([]entity.Study, error) {
	return s.Studies.ListByUser(ctx, userID)
}

func (s *StudyService) Update(ctx context.Context, userID, id string, in StudyInput) (*entity.Study, error) {
	st, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		st.Name = name
	}
	st.Description = in.Description
	st.EmailSubject = in.EmailSubject
	st.EmailBody = in.EmailBody
	if err := s.Studies.Update(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *StudyService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.Studies.Delete(ctx, id)
}

func (s *StudyService) AddParticipant(ctx context.Context, userID, studyID, participantID string) error {
	if _, err := s.Get(ctx, userID, studyID); err != nil {
		return err
	}
	if _, err := s.Participants.GetByID(ctx, participantID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}
	return s.Studies.AddParticipant(ctx, studyID, participantID)
}

func (s *StudyService) RemoveParticipant(ctx context.Context, userID, studyID, participantID string) error {
	if _, err := s.Get(ctx, userID, studyID); err != nil {
		return err
	}
	if err := s.Studies.RemoveParticipant(ctx, studyID, participantID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}
	return nil
}

func (s *StudyService) ListParticipants(ctx context.Context, userID, studyID string) ([]entity.Participant, error) {
	if _, err := s.Get(ctx, userID, studyID); err != nil {
		return nil, err
	}
	return s.Studies.ListParticipants(ctx, studyID)
}

// SendInvitationEmail schedules one invitation batch for the study's
// participants, sent from the owner's address. It returns once the batch is
// accepted; delivery outcomes only show up in logs and the last report.
func (s *StudyService) SendInvitationEmail(ctx context.Context, userID, studyID string) (string, error) {
	if s.Scheduler == nil {
		return "", ErrInvitationsDisabled
	}
	st, err := s.Get(ctx, userID, studyID)
	if err != nil {
		return "", err
	}
	owner, err := s.Users.GetByID(ctx, st.UserID)
	if err != nil {
		return "", err
	}
	participants, err := s.Studies.ListParticipants(ctx, st.ID)
	if err != nil {
		return "", err
	}
	if len(participants) == 0 {
		return "", ErrNoParticipants
	}

	batch := NewInvitationBatch(st, owner, participants)
	if err := s.Scheduler.Schedule(ctx, batch); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("study_id", st.ID).Error("failed to schedule invitation batch")
		}
		return "", err
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{
			"study_id":   st.ID,
			"batch_id":   batch.ID,
			"recipients": len(batch.Recipients),
		}).Info("invitation batch scheduled")
	}
	return batch.ID, nil
}

func (s *StudyService) LastInvitationReport(ctx context.Context, userID, studyID string) (*mailer.Report, error) {
	if _, err := s.Get(ctx, userID, studyID); err != nil {
		return nil, err
	}
	if s.Reports == nil {
		return nil, nil
	}
	rep, ok, err := s.Reports.Last(ctx, studyID)
	if err != nil || !ok {
		return nil, err
	}
	return rep, nil
}
