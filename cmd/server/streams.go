package main

import (
	"sync"

	"github.com/google/uuid"

	"github.com/spdeepak/crm-session-guard/internal/guard"
)

// streams indexes the live watch streams of each browser session so requests from any
// tab of that session can drive the guard running behind a stream.
type streams struct {
	mu    sync.Mutex
	bySid map[string]map[string]guard.Service
}

func newStreams() *streams {
	return &streams{bySid: map[string]map[string]guard.Service{}}
}

// add registers service under sid and returns the stream id plus its removal.
func (s *streams) add(sid string, service guard.Service) (string, func()) {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bySid[sid] == nil {
		s.bySid[sid] = map[string]guard.Service{}
	}
	s.bySid[sid][id] = service
	return id, func() { s.remove(sid, id) }
}

func (s *streams) remove(sid, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bySid[sid], id)
	if len(s.bySid[sid]) == 0 {
		delete(s.bySid, sid)
	}
}

func (s *streams) get(sid, id string) (guard.Service, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	service, ok := s.bySid[sid][id]
	return service, ok
}

func (s *streams) all(sid string) []guard.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	services := make([]guard.Service, 0, len(s.bySid[sid]))
	for _, service := range s.bySid[sid] {
		services = append(services, service)
	}
	return services
}

func (s *streams) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bySid)
}
