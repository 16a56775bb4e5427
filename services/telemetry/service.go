// Package telemetry serves fabricated dam sensor and weather data for the dashboard.
package telemetry

import (
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/httpd"
)

const (
	sensorsPath = "/sensors"
	weatherPath = "/weather"
)

type Diagnostic interface {
	Error(msg string, err error)
	Generated(kind string, critical int)
}

type Service struct {
	c       Config
	diag    Diagnostic
	routes  []httpd.Route
	gen     *Generator

	// Clock is the time source readings are stamped and seeded with.
	Clock clock.Clock

	HTTPDService interface {
		AddRoutes([]httpd.Route) error
	}
}

func NewService(c Config, d Diagnostic) *Service {
	return &Service{
		c:     c,
		diag:  d,
		Clock: clock.New(),
	}
}

func (s *Service) Open() error {
	s.gen = NewGenerator(s.c, s.Clock)
	s.routes = []httpd.Route{
		{
			Name:        "sensors",
			Method:      "GET",
			Pattern:     sensorsPath,
			HandlerFunc: s.handleSensors,
		},
		{
			Name:        "weather",
			Method:      "GET",
			Pattern:     weatherPath,
			HandlerFunc: s.handleWeather,
		},
	}
	if s.HTTPDService != nil {
		if err := s.HTTPDService.AddRoutes(s.routes); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) Close() error {
	return nil
}

// Generator returns the generator backing the routes, nil before Open.
func (s *Service) Generator() *Generator {
	return s.gen
}

func (s *Service) handleSensors(w http.ResponseWriter, r *http.Request) {
	report := s.gen.Sensors()
	critical := 0
	for _, sensor := range report.Sensors {
		if sensor.Status == StatusCritical {
			critical++
		}
	}
	s.diag.Generated("sensors", critical)
	httpd.WriteJSON(w, http.StatusOK, report)
}

func (s *Service) handleWeather(w http.ResponseWriter, r *http.Request) {
	report := s.gen.Weather()
	critical := 0
	if report.FloodRisk == "high" {
		critical = 1
	}
	s.diag.Generated("weather", critical)
	httpd.WriteJSON(w, http.StatusOK, report)
}
