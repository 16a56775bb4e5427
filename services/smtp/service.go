package smtp

import (
	"context"
	"crypto/tls"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

var (
	ErrNoRecipients = errors.New("not sending email, no recipients defined")
	ErrNotEnabled   = errors.New("smtp service is not enabled")
	ErrClosed       = errors.New("smtp service is closed")
)

type Diagnostic interface {
	Error(msg string, err error)
	Sent(to []string)
}

// request is a message waiting for the mailer together with where to report the outcome.
type request struct {
	m      *gomail.Message
	to     []string
	result chan error
}

// Service sends mail from a single goroutine that keeps the SMTP connection
// open until it has been idle for the configured timeout.
type Service struct {
	mu          sync.RWMutex
	configValue atomic.Value
	mail        chan request
	updates     chan struct{}
	diag        Diagnostic
	wg          sync.WaitGroup
	opened      bool
}

func NewService(c Config, d Diagnostic) *Service {
	s := &Service{
		updates: make(chan struct{}),
		diag:    d,
	}
	s.configValue.Store(c)
	return s
}

func (s *Service) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened {
		return nil
	}
	s.opened = true

	s.mail = make(chan request)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runMailer()
	}()

	return nil
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return nil
	}
	s.opened = false

	close(s.mail)
	s.wg.Wait()

	return nil
}

func (s *Service) config() Config {
	return s.configValue.Load().(Config)
}

// Update replaces the configuration. An open connection is closed
// and the next message dials the new server.
func (s *Service) Update(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.configValue.Store(c)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.opened {
		// Signal to create new dialer
		s.updates <- struct{}{}
	}
	return nil
}

func (s *Service) Enabled() bool {
	return s.config().Enabled
}

// PreviewURL is where sent messages can be inspected, if configured.
func (s *Service) PreviewURL() string {
	return s.config().PreviewURL
}

func (s *Service) dialer() (d *gomail.Dialer, idleTimeout time.Duration) {
	c := s.config()
	if c.Username == "" {
		d = &gomail.Dialer{Host: c.Host, Port: c.Port}
	} else {
		d = gomail.NewPlainDialer(c.Host, c.Port, c.Username, c.Password)
	}
	if c.NoVerify {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	idleTimeout = time.Duration(c.IdleTimeout)
	if idleTimeout <= 0 {
		idleTimeout = time.Second
	}
	return
}

func (s *Service) runMailer() {
	var idleTimeout time.Duration
	var d *gomail.Dialer
	d, idleTimeout = s.dialer()

	var conn gomail.SendCloser
	defer func() {
		if conn != nil {
			conn.Close()
		}
	}()

	open := false
	for {
		timer := time.NewTimer(idleTimeout)
		select {
		case <-s.updates:
			// Close old connection
			if conn != nil {
				if err := conn.Close(); err != nil {
					s.diag.Error("error closing old connection to SMTP server", err)
				}
				conn = nil
			}
			// Create new dialer
			d, idleTimeout = s.dialer()
			open = false
		case r, ok := <-s.mail:
			if !ok {
				timer.Stop()
				return
			}
			if !open {
				var err error
				if conn, err = d.Dial(); err != nil {
					err = errors.Wrap(err, "error connecting to SMTP server")
					s.diag.Error("error connecting to SMTP server", err)
					r.result <- err
					break
				}
				open = true
			}
			if err := gomail.Send(conn, r.m); err != nil {
				s.diag.Error("failed to send email", err)
				// The server may have dropped the connection, dial again next time.
				conn.Close()
				conn = nil
				open = false
				r.result <- errors.Wrap(err, "failed to send email")
				break
			}
			s.diag.Sent(r.to)
			r.result <- nil
		// Close the connection to the SMTP server if no email was sent in
		// the last IdleTimeout duration.
		case <-timer.C:
			if open {
				if err := conn.Close(); err != nil {
					s.diag.Error("error closing connection to SMTP server", err)
				}
				conn = nil
				open = false
			}
		}
		timer.Stop()
	}
}

// SendMail sends a plain text email and waits until the SMTP server accepted or refused it.
// When to is empty the configured default recipients are used.
func (s *Service) SendMail(ctx context.Context, to []string, subject, body string) error {
	r, err := s.prepareRequest(to, subject, body)
	if err != nil {
		return err
	}

	s.mu.RLock()
	if !s.opened {
		s.mu.RUnlock()
		return ErrClosed
	}
	select {
	case s.mail <- r:
	case <-ctx.Done():
		s.mu.RUnlock()
		return ctx.Err()
	}
	s.mu.RUnlock()

	select {
	case err := <-r.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) prepareRequest(to []string, subject, body string) (request, error) {
	c := s.config()
	if !c.Enabled {
		return request{}, ErrNotEnabled
	}
	if len(to) == 0 {
		to = c.To
	}
	if len(to) == 0 {
		return request{}, ErrNoRecipients
	}
	m := gomail.NewMessage()
	m.SetHeader("From", c.From)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return request{
		m:  m,
		to: to,
		// Buffered, the sender may have stopped waiting.
		result: make(chan error, 1),
	}, nil
}
