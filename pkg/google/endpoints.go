package google

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/klokku/calsync/internal/config"
)

const (
	authorizationHeader = "Authorization"
	clientHeader        = "X-Javascript-User-Agent"
)

// Endpoints builds the requests sent to the calendar REST API.
type Endpoints struct {
	baseURL      string
	clientHeader string
}

func NewEndpoints(cfg config.Google) Endpoints {
	return Endpoints{
		baseURL:      strings.TrimSuffix(cfg.ApiBaseUrl, "/"),
		clientHeader: cfg.ClientHeader,
	}
}

// CalendarListRequest authenticates with the access_token query parameter.
func (e Endpoints) CalendarListRequest(ctx context.Context, token string) (*http.Request, error) {
	u, err := url.Parse(e.baseURL + "/users/me/calendarList")
	if err != nil {
		return nil, fmt.Errorf("invalid calendar list URL: %w", err)
	}
	q := u.Query()
	q.Set("access_token", token)
	u.RawQuery = q.Encode()

	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

// EventsRequest authenticates with an OAuth authorization header.
func (e Endpoints) EventsRequest(ctx context.Context, calendarID string, token string) (*http.Request, error) {
	raw := e.baseURL + "/calendars/" + escapeCalendarID(calendarID) + "/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid events URL for calendar %s: %w", calendarID, err)
	}
	req.Header.Set(authorizationHeader, "OAuth "+token)
	if e.clientHeader != "" {
		req.Header.Set(clientHeader, e.clientHeader)
	}
	return req, nil
}

// escapeCalendarID percent-encodes every byte except unreserved characters, '/' and ':'.
func escapeCalendarID(id string) string {
	var b strings.Builder
	for i := 0; i < len(id); i++ {
		c := id[i]
		if isUnreserved(c) || c == '/' || c == ':' {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
