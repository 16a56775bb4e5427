// Package dispatchtest provides a fake alert delivery endpoint and a recording URI opener.
package dispatchtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/alert"
)

// Request is a request received by the fake endpoint.
type Request struct {
	Method  string
	Path    string
	Header  http.Header
	Payload alert.Payload
	Raw     []byte
}

// Server is a delivery endpoint that answers every request with a programmable response.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
	status   int
	body     string
}

func NewServer(status int, body string) *Server {
	s := &Server{
		status: status,
		body:   body,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	req := Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Raw:    raw,
	}
	json.Unmarshal(raw, &req.Payload)

	s.mu.Lock()
	s.requests = append(s.requests, req)
	status, body := s.status, s.body
	s.mu.Unlock()

	if body != "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	io.WriteString(w, body)
}

// Respond changes the response of subsequent requests.
func (s *Server) Respond(status int, body string) {
	s.mu.Lock()
	s.status = status
	s.body = body
	s.mu.Unlock()
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// UnreachableURL returns the URL of a server that has already been shut down.
func UnreachableURL() string {
	s := httptest.NewServer(http.NotFoundHandler())
	u := s.URL
	s.Close()
	return u
}

// Opener records the URIs it is asked to open.
type Opener struct {
	mu   sync.Mutex
	uris []string

	// Err is returned from Open when set.
	Err error
}

func (o *Opener) Open(uri string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.uris = append(o.uris, uri)
	return o.Err
}

// Opened returns the URIs opened so far.
func (o *Opener) Opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.uris))
	copy(out, o.uris)
	return out
}
