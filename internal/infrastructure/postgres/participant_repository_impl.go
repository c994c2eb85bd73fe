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

const participantColumns = `p.id, p.email, p.first_name, p.last_name, p.location, p.occupation,
	p.programming_language, p.number_of_contributions, p.number_of_repositories, p.created_at, p.updated_at`

type ParticipantRepository struct {
	pool *pgxpool.Pool
}

func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

func scanParticipant(row pgx.Row, p *entity.Participant) error {
	return row.Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.Location, &p.Occupation,
		&p.ProgrammingLanguage, &p.NumberOfContributions, &p.NumberOfRepositories, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ParticipantRepository) Create(ctx context.Context, p *entity.Participant) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO participants (email, first_name, last_name, location, occupation,
			programming_language, number_of_contributions, number_of_repositories)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, p.Email, p.FirstName, p.LastName, p.Location, p.Occupation,
		p.ProgrammingLanguage, p.NumberOfContributions, p.NumberOfRepositories)
	return row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ParticipantRepository) GetByID(ctx context.Context, id string) (*entity.Participant, error) {
	p := &entity.Participant{}
	row := r.pool.QueryRow(ctx, `SELECT `+participantColumns+` FROM participants p WHERE p.id = $1`, id)
	if err := scanParticipant(row, p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *ParticipantRepository) List(ctx context.Context, limit, offset int) ([]entity.Participant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+participantColumns+`
		FROM participants p
		ORDER BY p.created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectParticipants(rows)
}

func (r *ParticipantRepository) Update(ctx context.Context, p *entity.Participant) error {
	p.UpdatedAt = time.Now()
	res, err := r.pool.Exec(ctx, `
		UPDATE participants
		SET email = $1, first_name = $2, last_name = $3, location = $4, occupation = $5,
			programming_language = $6, number_of_contributions = $7, number_of_repositories = $8,
			updated_at = $9
		WHERE id = $10
	`, p.Email, p.FirstName, p.LastName, p.Location, p.Occupation,
		p.ProgrammingLanguage, p.NumberOfContributions, p.NumberOfRepositories, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ParticipantRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ParticipantRepository) ListStudies(ctx context.Context, participantID string) ([]entity.Study, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+studyColumns+`
		FROM studies s
		JOIN study_participants sp ON sp.study_id = s.id
		WHERE sp.participant_id = $1
		ORDER BY s.created_at DESC
	`, participantID)
	if err != nil {
		return nil, err
	}
	return collectStudies(rows)
}

func collectParticipants(rows pgx.Rows) ([]entity.Participant, error) {
	defer rows.Close()
	out := make([]entity.Participant, 0)
	for rows.Next() {
		var p entity.Participant
		if err := scanParticipant(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ repository.ParticipantRepository = (*ParticipantRepository)(nil)
