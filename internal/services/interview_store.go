package services

import "sync"

// InterviewStore keeps one in-memory interview per signed-in user.
type InterviewStore struct {
	mu         sync.Mutex
	sessions   map[string]*InterviewSession
	newSession func() *InterviewSession
}

func NewInterviewStore(newSession func() *InterviewSession) *InterviewStore {
	return &InterviewStore{
		sessions:   make(map[string]*InterviewSession),
		newSession: newSession,
	}
}

func (s *InterviewStore) Get(userID string) *InterviewSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		session = s.newSession()
		s.sessions[userID] = session
	}
	return session
}
