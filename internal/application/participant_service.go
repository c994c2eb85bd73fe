package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/qualopt/internal/domain/entity"
	repo "github.com/oksasatya/qualopt/internal/domain/repository"
	"github.com/oksasatya/qualopt/pkg/mailer"
)

var ErrInvalidParticipantEmail = errors.New("invalid participant email")

type ParticipantService struct {
	Repo    repo.ParticipantRepository
	Logger  *logrus.Logger
	ES      *elasticsearch.Client
	ESIndex string
}

// ParticipantMapping is the index mapping for participant search documents.
const ParticipantMapping = `{
  "mappings": {
    "properties": {
      "email":                   {"type": "keyword"},
      "first_name":              {"type": "text"},
      "last_name":               {"type": "text"},
      "location":                {"type": "text"},
      "occupation":              {"type": "text"},
      "programming_language":    {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "number_of_contributions": {"type": "integer"},
      "number_of_repositories":  {"type": "integer"},
      "updated_at":              {"type": "date"}
    }
  }
}`

func NewParticipantService(r repo.ParticipantRepository, logger *logrus.Logger, es *elasticsearch.Client, esIndex string) *ParticipantService {
	return &ParticipantService{Repo: r, Logger: logger, ES: es, ESIndex: esIndex}
}

func (s *ParticipantService) Create(ctx context.Context, p *entity.Participant) error {
	if _, err := mailer.ResolveAddress(p.Email); err != nil {
		return ErrInvalidParticipantEmail
	}
	p.Email = strings.TrimSpace(p.Email)
	if err := s.Repo.Create(ctx, p); err != nil {
		return err
	}
	_ = s.index(ctx, p)
	return nil
}

func (s *ParticipantService) Get(ctx context.Context, id string) (*entity.Participant, error) {
	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *ParticipantService) List(ctx context.Context, limit, offset int) ([]entity.Participant, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.List(ctx, limit, offset)
}

// Update replaces every attribute of the participant with in.
func (s *ParticipantService) Update(ctx context.Context, id string, in entity.Participant) (*entity.Participant, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := mailer.ResolveAddress(in.Email); err != nil {
		return nil, ErrInvalidParticipantEmail
	}
	in.ID = p.ID
	in.CreatedAt = p.CreatedAt
	in.Email = strings.TrimSpace(in.Email)
	if err := s.Repo.Update(ctx, &in); err != nil {
		return nil, err
	}
	_ = s.index(ctx, &in)
	return &in, nil
}

func (s *ParticipantService) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}
	s.unindex(ctx, id)
	return nil
}

func (s *ParticipantService) Studies(ctx context.Context, id string) ([]entity.Study, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.Repo.ListStudies(ctx, id)
}

func participantDoc(p *entity.Participant) map[string]any {
	return map[string]any{
		"id":                      p.ID,
		"email":                   p.Email,
		"first_name":              p.FirstName,
		"last_name":               p.LastName,
		"location":                p.Location,
		"occupation":              p.Occupation,
		"programming_language":    p.ProgrammingLanguage,
		"number_of_contributions": p.NumberOfContributions,
		"number_of_repositories":  p.NumberOfRepositories,
		"updated_at":              p.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func (s *ParticipantService) index(ctx context.Context, p *entity.Participant) error {
	if s.ES == nil || s.ESIndex == "" {
		return nil
	}
	b, _ := json.Marshal(participantDoc(p))
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: p.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("participant_id", p.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("participant_id", p.ID).Warn("es index response error")
	}
	return nil
}

func (s *ParticipantService) unindex(ctx context.Context, id string) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := esapi.DeleteRequest{Index: s.ESIndex, DocumentID: id}.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("participant_id", id).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// Search runs a multi_match query over the profile fields used in invitations.
func (s *ParticipantService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "first_name", "last_name", "location", "occupation", "programming_language^2"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.IsError() {
		return nil, errors.New("search failed: " + res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
