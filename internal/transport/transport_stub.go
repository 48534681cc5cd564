package transport

import (
	"net/http"
	"sync"
)

type SubmittedRequest struct {
	Handle  Handle
	Request *http.Request
}

// StubTransport records submitted requests and only completes them when told to.
type StubTransport struct {
	mu          sync.Mutex
	submitted   []SubmittedRequest
	completions chan Completion
}

func NewStubTransport() *StubTransport {
	return &StubTransport{
		completions: make(chan Completion, 256),
	}
}

func (s *StubTransport) Submit(req *http.Request) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle := NewHandle()
	s.submitted = append(s.submitted, SubmittedRequest{Handle: handle, Request: req})
	return handle
}

func (s *StubTransport) Completions() <-chan Completion {
	return s.completions
}

func (s *StubTransport) Submitted() []SubmittedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]SubmittedRequest, len(s.submitted))
	copy(result, s.submitted)
	return result
}

// CompletionFor builds the completion of a submitted request without delivering it.
func (s *StubTransport) CompletionFor(handle Handle, body string) Completion {
	completion := Completion{Handle: handle, Body: []byte(body), StatusCode: http.StatusOK}
	for _, r := range s.Submitted() {
		if r.Handle == handle {
			completion.URL = r.Request.URL
		}
	}
	return completion
}

// Complete delivers a 200 completion with body on the completions channel.
func (s *StubTransport) Complete(handle Handle, body string) {
	s.Deliver(s.CompletionFor(handle, body))
}

func (s *StubTransport) Deliver(completion Completion) {
	s.completions <- completion
}

func (s *StubTransport) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = nil
}
