// Package dispatch delivers alerts to the HydroLake send endpoint and falls back
// to the local mail client when the endpoint cannot be reached.
//
// Only transport failures trigger the fallback. An endpoint that answers and
// declines the alert is reported as a failure, never as a fallback.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/alert"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/bufpool"
)

// FallbackUnavailable is the error of a failed result when the endpoint could
// not be reached and no mail client could be opened.
const FallbackUnavailable = "fallback unavailable"

// Responses larger than this are truncated before being interpreted.
const maxResponseSize = 1 << 20

type Diagnostic interface {
	Delivered(url string, status int, elapsed time.Duration)
	Declined(url string, status int, reason string)
	TransportError(url string, err error)
	FallbackOpened(recipients int)
	FallbackUnavailable(err error)
}

// Doer sends HTTP requests, *http.Client implements it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

type Service struct {
	c    Config
	bp   *bufpool.Pool
	diag Diagnostic

	// HTTPClient performs the delivery request. http.DefaultClient when nil.
	HTTPClient Doer
	// Opener opens the mailto fallback. A nil Opener means no fallback is possible.
	Opener URIOpener
	// Metrics is optional.
	Metrics *Metrics
}

func NewService(c Config, opener URIOpener, d Diagnostic) *Service {
	return &Service{
		c:          c,
		bp:         bufpool.New(),
		diag:       d,
		HTTPClient: http.DefaultClient,
		Opener:     opener,
	}
}

func (s *Service) Open() error {
	return nil
}

func (s *Service) Close() error {
	return nil
}

// Endpoint returns the URL alerts are posted to.
func (s *Service) Endpoint() string {
	return s.c.Endpoint()
}

// Dispatch makes exactly one delivery attempt for p and reports its outcome.
// It never panics and every failure is described by the returned Result.
func (s *Service) Dispatch(ctx context.Context, p alert.Payload) alert.Result {
	start := time.Now()
	r := s.dispatch(ctx, p)
	s.Metrics.observe(r, time.Since(start))
	return r
}

func (s *Service) dispatch(ctx context.Context, p alert.Payload) alert.Result {
	endpoint := s.c.Endpoint()
	start := time.Now()
	status, body, err := s.post(ctx, endpoint, p)
	if err != nil {
		s.diag.TransportError(endpoint, err)
		return s.fallback(p)
	}
	r := interpret(status, body)
	if r.IsFailed() {
		s.diag.Declined(endpoint, status, r.Error)
	} else {
		s.diag.Delivered(endpoint, status, time.Since(start))
	}
	return r
}

// post sends p to endpoint. Any returned error is a transport failure,
// a response from the endpoint is never an error whatever its status.
func (s *Service) post(ctx context.Context, endpoint string, p alert.Payload) (status int, body []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while posting alert: %v", r)
		}
	}()

	if t := time.Duration(s.c.Timeout); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	buf := s.bp.Get()
	defer s.bp.Put(buf)
	if err := json.NewEncoder(buf).Encode(p); err != nil {
		return 0, nil, errors.Wrap(err, "failed to marshal alert payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to create POST request")
	}
	for k, v := range s.c.Headers {
		req.Header.Set(k, v)
	}
	if s.c.BasicAuth.valid() {
		req.SetBasicAuth(s.c.BasicAuth.Username, s.c.BasicAuth.Password)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	// The endpoint has answered, an unreadable body is interpreted as an empty one.
	body, _ = io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	return resp.StatusCode, body, nil
}

func (s *Service) fallback(p alert.Payload) alert.Result {
	if s.Opener == nil {
		s.diag.FallbackUnavailable(ErrNotInteractive)
		return alert.Failed(FallbackUnavailable)
	}
	if err := open(s.Opener, MailtoURI(p.Recipients, p.Subject, p.Body)); err != nil {
		s.diag.FallbackUnavailable(err)
		return alert.Failed(FallbackUnavailable)
	}
	s.diag.FallbackOpened(len(p.Recipients))
	return alert.FallbackOpened()
}

func open(o URIOpener, uri string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while opening URI: %v", r)
		}
	}()
	return o.Open(uri)
}

// interpret maps an endpoint response to a result.
//
//	non 2xx                                failed, reason from the body error or text
//	2xx with {"ok":true} or {"success":true}  delivered
//	2xx with {"ok":false}                  failed
//	2xx with anything else                 delivered
func interpret(status int, body []byte) alert.Result {
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		fields = nil
	}

	if status < 200 || status > 299 {
		if e := stringField(fields, "error"); e != "" {
			return alert.Failed(e)
		}
		// plain text bodies are the reason, JSON without an error is not
		if text := strings.TrimSpace(string(body)); text != "" && !json.Valid(body) {
			return alert.Failed(text)
		}
		return alert.Failed(requestFailed(status))
	}

	message := stringField(fields, "message")
	if boolField(fields, "ok", true) || boolField(fields, "success", true) {
		return alert.Delivered(message, stringField(fields, "previewUrl"))
	}
	if boolField(fields, "ok", false) {
		if e := stringField(fields, "error"); e != "" {
			return alert.Failed(e)
		}
		return alert.Failed(requestFailed(status))
	}
	return alert.Delivered(message, "")
}

func requestFailed(status int) string {
	return fmt.Sprintf("Request failed (%d)", status)
}

func stringField(fields map[string]interface{}, name string) string {
	s, _ := fields[name].(string)
	return s
}

// boolField reports whether fields has name set to the boolean want.
func boolField(fields map[string]interface{}, name string, want bool) bool {
	b, ok := fields[name].(bool)
	return ok && b == want
}
