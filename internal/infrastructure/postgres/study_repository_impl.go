package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/qualopt/internal/domain/entity"
	"github.com/oksasatya/qualopt/internal/domain/repository"
)

const studyColumns = `s.id, s.user_id, s.name, s.description, s.email_subject, s.email_body, s.created_at, s.updated_at`

type StudyRepository struct {
	pool *pgxpool.Pool
}

func NewStudyRepository(pool *pgxpool.Pool) *StudyRepository {
	return &StudyRepository{pool: pool}
}

func scanStudy(row pgx.Row, s *entity.Study) error {
	return row.Scan(&s.ID, &s.UserID, &s.Name, &s.Description, &s.EmailSubject, &s.EmailBody, &s.CreatedAt, &s.UpdatedAt)
}

func (r *StudyRepository) Create(ctx context.Context, s *entity.Study) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO studies (user_id, name, description, email_subject, email_body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, s.UserID, s.Name, s.Description, s.EmailSubject, s.EmailBody)
	return row.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *StudyRepository) GetByID(ctx context.Context, id string) (*entity.Study, error) {
	s := &entity.Study{}
	row := r.pool.QueryRow(ctx, `SELECT `+studyColumns+` FROM studies s WHERE s.id = $1`, id)
	if err := scanStudy(row, s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *StudyRepository) ListByUser(ctx context.Context, userID string) ([]entity.Study, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+studyColumns+`
		FROM studies s
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return collectStudies(rows)
}

func (r *StudyRepository) Update(ctx context.Context, s *entity.Study) error {
	s.UpdatedAt = time.Now()
	res, err := r.pool.Exec(ctx, `
		UPDATE studies
		SET name = $1, description = $2, email_subject = $3, email_body = $4, updated_at = $5
		WHERE id = $6
	`, s.Name, s.Description, s.EmailSubject, s.EmailBody, s.UpdatedAt, s.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *StudyRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM studies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *StudyRepository) AddParticipant(ctx context.Context, studyID, participantID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO study_participants (study_id, participant_id)
		VALUES ($1, $2)
		ON CONFLICT (study_id, participant_id) DO NOTHING
	`, studyID, participantID)
	return err
}

func (r *StudyRepository) RemoveParticipant(ctx context.Context, studyID, participantID string) error {
	res, err := r.pool.Exec(ctx, `
		DELETE FROM study_participants
		WHERE study_id = $1 AND participant_id = $2
	`, studyID, participantID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *StudyRepository) ListParticipants(ctx context.Context, studyID string) ([]entity.Participant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+participantColumns+`
		FROM participants p
		JOIN study_participants sp ON sp.participant_id = p.id
		WHERE sp.study_id = $1
	`, studyID)
	if err != nil {
		return nil, err
	}
	return collectParticipants(rows)
}

func collectStudies(rows pgx.Rows) ([]entity.Study, error) {
	defer rows.Close()
	out := make([]entity.Study, 0)
	for rows.Next() {
		var s entity.Study
		if err := scanStudy(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var _ repository.StudyRepository = (*StudyRepository)(nil)
