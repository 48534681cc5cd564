package transport

import (
	"fmt"
	"io"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"
)

const defaultCompletionBuffer = 64

type HTTPTransport struct {
	client      *http.Client
	completions chan Completion
	inFlight    sync.WaitGroup
}

func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{
		client:      client,
		completions: make(chan Completion, defaultCompletionBuffer),
	}
}

// Submit starts req on its own goroutine and returns immediately. Once the
// request context is done, a completion nobody receives is dropped.
func (t *HTTPTransport) Submit(req *http.Request) Handle {
	handle := NewHandle()
	log.Tracef("submitting request %s: %s %s", handle, req.Method, req.URL.Path)
	t.inFlight.Add(1)
	go func() {
		defer t.inFlight.Done()
		completion := t.do(handle, req)
		select {
		case t.completions <- completion:
		case <-req.Context().Done():
			log.Debugf("dropping completion of request %s: %v", handle, req.Context().Err())
		}
	}()
	return handle
}

func (t *HTTPTransport) Completions() <-chan Completion {
	return t.completions
}

func (t *HTTPTransport) do(handle Handle, req *http.Request) Completion {
	completion := Completion{Handle: handle, URL: req.URL}

	resp, err := t.client.Do(req)
	if err != nil {
		log.Warnf("request %s to %s failed: %v", handle, req.URL.Path, err)
		completion.Err = err
		return completion
	}
	defer resp.Body.Close()

	completion.StatusCode = resp.StatusCode
	if resp.Request != nil && resp.Request.URL != nil {
		completion.URL = resp.Request.URL
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warnf("reading response of request %s failed: %v", handle, err)
		completion.Err = err
		return completion
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		completion.Err = fmt.Errorf("remote returned non-OK status: %d", resp.StatusCode)
		log.Warnf("request %s to %s: %v", handle, req.URL.Path, completion.Err)
		return completion
	}

	completion.Body = body
	return completion
}
