package google

import (
	"context"
	"sync"
)

type StaticCredentialsStub struct {
	mu    sync.Mutex
	token string
	err   error
	calls int
}

func NewStaticCredentialsStub(token string) *StaticCredentialsStub {
	return &StaticCredentialsStub{token: token}
}

func (s *StaticCredentialsStub) CurrentAccessToken(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

func (s *StaticCredentialsStub) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *StaticCredentialsStub) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *StaticCredentialsStub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
