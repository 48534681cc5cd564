package transport

import (
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// Handle identifies one submitted request until its completion is delivered.
type Handle uuid.UUID

func NewHandle() Handle {
	return Handle(uuid.New())
}

func (h Handle) String() string {
	return uuid.UUID(h).String()
}

// Completion is delivered once for every submitted request whose context is
// still live when the response is in.
type Completion struct {
	Handle Handle
	// URL is the URL the response was served from.
	URL *url.URL
	// Body is empty when the request failed at transport level or the server
	// answered with a non-2xx status.
	Body       []byte
	StatusCode int
	Err        error
}

// Transport submits requests without waiting for them and reports their
// completions, in any order, on a single channel.
type Transport interface {
	Submit(req *http.Request) Handle
	Completions() <-chan Completion
}
