package mailer

import (
	"context"
	"sync"
	"time"
)

type fakeSession struct {
	factory *fakeFactory
	sendErr map[string]error
}

func (s *fakeSession) Send(_ context.Context, msg Message) error {
	if err := s.sendErr[msg.To.Email]; err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	s.factory.mu.Lock()
	s.factory.sent = append(s.factory.sent, msg)
	s.factory.mu.Unlock()
	return nil
}

func (s *fakeSession) Close() error {
	s.factory.mu.Lock()
	s.factory.active--
	s.factory.closed++
	s.factory.mu.Unlock()
	return nil
}

type fakeFactory struct {
	mu        sync.Mutex
	openErr   error
	sendErr   map[string]error
	hold      time.Duration
	opened    int
	closed    int
	active    int
	maxActive int
	sent      []Message
}

func (f *fakeFactory) Open(_ context.Context) (Session, error) {
	if f.openErr != nil {
		return nil, &TransportError{Op: "dial", Err: f.openErr}
	}
	f.mu.Lock()
	f.opened++
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.mu.Unlock()
	if f.hold > 0 {
		time.Sleep(f.hold)
	}
	return &fakeSession{factory: f, sendErr: f.sendErr}, nil
}

func (f *fakeFactory) messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.sent...)
}
