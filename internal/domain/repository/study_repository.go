package repository

import (
	"context"

	"github.com/oksasatya/qualopt/internal/domain/entity"
)

type StudyRepository interface {
	Create(ctx context.Context, s *entity.Study) error
	GetByID(ctx context.Context, id string) (*entity.Study, error)
	ListByUser(ctx context.Context, userID string) ([]entity.Study, error)
	Update(ctx context.Context, s *entity.Study) error
	Delete(ctx context.Context, id string) error

	// Study -> participants side of the study_participants relation.
	AddParticipant(ctx context.Context, studyID, participantID string) error
	RemoveParticipant(ctx context.Context, studyID, participantID string) error
	ListParticipants(ctx context.Context, studyID string) ([]entity.Participant, error)
}
