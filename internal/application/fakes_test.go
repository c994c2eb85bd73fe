package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/oksasatya/qualopt/internal/domain/entity"
	repo "github.com/oksasatya/qualopt/internal/domain/repository"
	"github.com/oksasatya/qualopt/pkg/mailer"
)

type memStore struct {
	mu           sync.Mutex
	seq          int
	users        map[string]*entity.User
	studies      map[string]*entity.Study
	participants map[string]*entity.Participant
	links        map[string]map[string]bool // study -> participants
}

func newMemStore() *memStore {
	return &memStore{
		users:        map[string]*entity.User{},
		studies:      map[string]*entity.Study{},
		participants: map[string]*entity.Participant{},
		links:        map[string]map[string]bool{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

type memUsers struct{ *memStore }

func (r memUsers) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = r.nextID("u")
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r memUsers) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

type memStudies struct{ *memStore }

func (r memStudies) Create(_ context.Context, s *entity.Study) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.nextID("s")
	cp := *s
	r.studies[s.ID] = &cp
	return nil
}

func (r memStudies) GetByID(_ context.Context, id string) (*entity.Study, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.studies[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r memStudies) ListByUser(_ context.Context, userID string) ([]entity.Study, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Study
	for _, s := range r.studies {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r memStudies) Update(_ context.Context, s *entity.Study) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.studies[s.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *s
	r.studies[s.ID] = &cp
	return nil
}

func (r memStudies) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.studies[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.studies, id)
	delete(r.links, id)
	return nil
}

func (r memStudies) AddParticipant(_ context.Context, studyID, participantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.links[studyID] == nil {
		r.links[studyID] = map[string]bool{}
	}
	r.links[studyID][participantID] = true
	return nil
}

func (r memStudies) RemoveParticipant(_ context.Context, studyID, participantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.links[studyID][participantID] {
		return repo.ErrNotFound
	}
	delete(r.links[studyID], participantID)
	return nil
}

func (r memStudies) ListParticipants(_ context.Context, studyID string) ([]entity.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Participant
	for id := range r.links[studyID] {
		out = append(out, *r.participants[id])
	}
	return out, nil
}

type memParticipants struct{ *memStore }

func (r memParticipants) Create(_ context.Context, p *entity.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.nextID("p")
	cp := *p
	r.participants[p.ID] = &cp
	return nil
}

func (r memParticipants) GetByID(_ context.Context, id string) (*entity.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memParticipants) List(_ context.Context, limit, offset int) ([]entity.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Participant
	for _, p := range r.participants {
		out = append(out, *p)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memParticipants) Update(_ context.Context, p *entity.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.participants[p.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *p
	r.participants[p.ID] = &cp
	return nil
}

func (r memParticipants) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.participants[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.participants, id)
	for _, l := range r.links {
		delete(l, id)
	}
	return nil
}

func (r memParticipants) ListStudies(_ context.Context, participantID string) ([]entity.Study, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Study
	for sid, l := range r.links {
		if l[participantID] {
			out = append(out, *r.studies[sid])
		}
	}
	return out, nil
}

type captureScheduler struct {
	mu      sync.Mutex
	batches []mailer.Batch
	err     error
}

func (s *captureScheduler) Schedule(_ context.Context, b mailer.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, b)
	return nil
}

type memReports map[string]mailer.Report

func (r memReports) Last(_ context.Context, studyID string) (*mailer.Report, bool, error) {
	rep, ok := r[studyID]
	if !ok {
		return nil, false, nil
	}
	return &rep, true, nil
}
