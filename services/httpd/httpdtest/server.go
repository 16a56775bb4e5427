// Package httpdtest serves an httpd.Handler from an httptest server.
package httpdtest

import (
	"net/http/httptest"

	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/diagnostic"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/httpd"
	"go.uber.org/zap"
)

type Server struct {
	Handler *httpd.Handler
	Server  *httptest.Server
}

// NewServer starts serving a handler that has no routes besides its own.
// Routes are added with AddRoutes before the first request is made.
func NewServer(verbose bool) *Server {
	ds := diagnostic.NewServiceWithLogger(zap.NewNop())
	s := &Server{
		Handler: httpd.NewHandler(verbose, ds.NewHTTPDHandler()),
	}
	s.Server = httptest.NewServer(s.Handler)
	return s
}

func (s *Server) Close() error {
	s.Server.Close()
	return nil
}

// URL is the base URL of the server.
func (s *Server) URL() string {
	return s.Server.URL
}

func (s *Server) AddRoutes(routes []httpd.Route) error {
	return s.Handler.AddRoutes(routes)
}

func (s *Server) AddRawRoutes(routes []httpd.Route) error {
	return s.Handler.AddRawRoutes(routes)
}
