// Package smtptest runs a local mail server that keeps what it is sent.
package smtptest

import (
	"io"
	"net"
	"net/mail"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Message is one accepted mail transaction.
type Message struct {
	From   string
	To     []string
	Header mail.Header
	Body   string
}

// Server speaks enough SMTP for a client that neither authenticates
// nor upgrades to TLS.
type Server struct {
	Host string
	Port int

	ln     net.Listener
	reject atomic.Bool
	wg     sync.WaitGroup

	mu       sync.Mutex
	messages []*Message
	errs     []error
}

// NewServer listens on a free loopback port.
func NewServer() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	host, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		ln.Close()
		return nil, err
	}
	s := &Server{Host: host, ln: ln}
	if s.Port, err = strconv.Atoi(port); err != nil {
		ln.Close()
		return nil, err
	}
	s.wg.Add(1)
	go s.accept()
	return s, nil
}

// SetRejectRecipients makes the server refuse recipients until called with false.
func (s *Server) SetRejectRecipients(reject bool) {
	s.reject.Store(reject)
}

func (s *Server) SentMessages() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Message(nil), s.messages...)
}

// Errors are protocol errors of the sessions served so far.
func (s *Server) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

// Close stops listening and waits for open sessions to end.
func (s *Server) Close() error {
	err := s.ln.Close()
	s.wg.Wait()
	return err
}

func (s *Server) accept() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			if err := s.session(textproto.NewConn(conn)); err != nil {
				s.mu.Lock()
				s.errs = append(s.errs, err)
				s.mu.Unlock()
			}
		}()
	}
}

func (s *Server) session(c *textproto.Conn) error {
	if err := c.PrintfLine("220 hydrolake test server"); err != nil {
		return err
	}
	var msg Message
	for {
		line, err := c.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		verb, arg, _ := strings.Cut(line, " ")
		switch strings.ToUpper(verb) {
		case "MAIL":
			msg = Message{From: address(arg)}
			err = c.PrintfLine("250 Ok")
		case "RCPT":
			if s.reject.Load() {
				err = c.PrintfLine("550 No such user here")
				break
			}
			msg.To = append(msg.To, address(arg))
			err = c.PrintfLine("250 Ok")
		case "DATA":
			if err := c.PrintfLine("354 End data with <CR><LF>.<CR><LF>"); err != nil {
				return err
			}
			if err := s.receive(c, msg); err != nil {
				c.PrintfLine("554 Transaction failed")
				return err
			}
			err = c.PrintfLine("250 Ok: queued")
		case "QUIT":
			return c.PrintfLine("221 Bye")
		case "HELO", "EHLO", "RSET", "NOOP":
			err = c.PrintfLine("250 Ok")
		default:
			err = c.PrintfLine("502 Command not implemented")
		}
		if err != nil {
			return err
		}
	}
}

func (s *Server) receive(c *textproto.Conn, msg Message) error {
	m, err := mail.ReadMessage(c.DotReader())
	if err != nil {
		return errors.Wrap(err, "read message")
	}
	body, err := io.ReadAll(m.Body)
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	msg.Header = m.Header
	msg.Body = string(body)
	s.mu.Lock()
	s.messages = append(s.messages, &msg)
	s.mu.Unlock()
	return nil
}

// address extracts the mailbox of "FROM:<a@b>" or "TO:<a@b>".
func address(arg string) string {
	_, a, _ := strings.Cut(arg, ":")
	a = strings.TrimSpace(a)
	if i := strings.IndexByte(a, ' '); i >= 0 {
		a = a[:i]
	}
	return strings.Trim(a, "<>")
}
