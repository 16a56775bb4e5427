package httpd

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type Diagnostic interface {
	NewHTTPServerErrorLogger() *log.Logger

	StartingService()
	StoppedService()
	ShutdownTimeout()

	ListeningOn(addr string, proto string)

	HTTP(
		host string,
		start time.Time,
		method string,
		uri string,
		proto string,
		status int,
		referer string,
		userAgent string,
		reqID string,
		duration time.Duration,
	)

	Error(msg string, err error)
	RecoveryError(
		msg string,
		err string,
		method string,
		uri string,
		reqID string,
	)
}

// Service serves the Handler on the configured address.
type Service struct {
	addr  string
	https bool
	cert  string
	key   string
	err   chan error

	externalURL     string
	shutdownTimeout time.Duration

	mu     sync.Mutex
	ln     net.Listener
	server *http.Server
	wg     sync.WaitGroup

	Handler *Handler

	diag Diagnostic
}

func NewService(c Config, hostname string, d Diagnostic) *Service {
	port, _ := c.Port()
	u := url.URL{
		Host:   fmt.Sprintf("%s:%d", hostname, port),
		Scheme: "http",
	}
	if c.HttpsEnabled {
		u.Scheme = "https"
	}
	s := &Service{
		addr:            c.BindAddress,
		https:           c.HttpsEnabled,
		cert:            c.HttpsCertificate,
		key:             c.HTTPSPrivateKey,
		externalURL:     u.String(),
		err:             make(chan error, 1),
		shutdownTimeout: time.Duration(c.ShutdownTimeout),
		Handler:         NewHandler(c.LogEnabled, d),
		diag:            d,
	}
	if s.key == "" {
		s.key = s.cert
	}
	return s
}

// Open binds the listener and starts serving in the background.
func (s *Service) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diag.StartingService()

	ln, proto, err := s.listen()
	if err != nil {
		return err
	}
	s.diag.ListeningOn(ln.Addr().String(), proto)
	s.ln = ln

	s.server = &http.Server{
		Handler:           s.Handler,
		ErrorLog:          s.diag.NewHTTPServerErrorLogger(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	s.wg.Add(1)
	go s.serve(s.server, ln)
	return nil
}

const readHeaderTimeout = 10 * time.Second

func (s *Service) listen() (net.Listener, string, error) {
	if !s.https {
		ln, err := net.Listen("tcp", s.addr)
		return ln, "http", err
	}
	cert, err := tls.LoadX509KeyPair(s.cert, s.key)
	if err != nil {
		return nil, "", errors.Wrap(err, "load https certificate")
	}
	ln, err := tls.Listen("tcp", s.addr, &tls.Config{
		Certificates: []tls.Certificate{cert},
	})
	return ln, "https", err
}

// Close stops accepting connections and waits up to the shutdown timeout
// for in-flight requests. Connections still open after that are closed.
// Hijacked connections, e.g. websockets, belong to whoever hijacked them.
func (s *Service) Close() error {
	defer s.diag.StoppedService()
	s.mu.Lock()
	defer s.mu.Unlock()
	// If server is not set we were never started
	if s.server == nil {
		return nil
	}

	ctx := context.Background()
	if s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}
	err := s.server.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		s.diag.ShutdownTimeout()
		err = s.server.Close()
	}
	s.wg.Wait()
	s.server = nil
	s.ln = nil
	return err
}

func (s *Service) Err() <-chan error {
	return s.err
}

func (s *Service) serve(srv *http.Server, ln net.Listener) {
	defer s.wg.Done()
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		s.err <- nil
		return
	}
	s.err <- fmt.Errorf("listener failed: addr=%s, err=%s", ln.Addr(), err)
}

// Addr is the bound address, nil until opened.
func (s *Service) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr()
	}
	return nil
}

// URL is the base URL of the server on the bound address.
func (s *Service) URL() string {
	addr := s.Addr()
	if addr == nil {
		return ""
	}
	if s.https {
		return "https://" + addr.String()
	}
	return "http://" + addr.String()
}

// ExternalURL is built from the configured hostname, it may not resolve
// if the hostname is wrong.
func (s *Service) ExternalURL() string {
	return s.externalURL
}

func (s *Service) AddRoutes(routes []Route) error {
	return s.Handler.AddRoutes(routes)
}

func (s *Service) AddRawRoutes(routes []Route) error {
	return s.Handler.AddRawRoutes(routes)
}
