package repository

import (
	"context"

	"github.com/oksasatya/qualopt/internal/domain/entity"
)

type ParticipantRepository interface {
	Create(ctx context.Context, p *entity.Participant) error
	GetByID(ctx context.Context, id string) (*entity.Participant, error)
	List(ctx context.Context, limit, offset int) ([]entity.Participant, error)
	Update(ctx context.Context, p *entity.Participant) error
	Delete(ctx context.Context, id string) error

	// Participant -> studies side of the study_participants relation.
	ListStudies(ctx context.Context, participantID string) ([]entity.Study, error)
}
