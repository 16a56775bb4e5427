// Package alerts serves the dashboard alert API, including the endpoint
// alerts are delivered to by email.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/alert"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/authority"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/httpd"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/i18n"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/storage"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/telemetry"
)

const (
	alertsPath       = "/alerts"
	sendPath         = "/alerts/send"
	translationsPath = "/translations"
	authoritiesPath  = "/authorities"

	// Bodies of POST requests larger than this are rejected.
	maxRequestSize = 1 << 20
)

type Diagnostic interface {
	Error(msg string, err error)
	AlertCreated(id, level string)
	AlertSent(recipients int, subject string)
	Escalated(id string, recipients int, result string)
}

// SendResponse is the body returned by the send endpoint.
type SendResponse struct {
	OK         bool   `json:"ok"`
	Message    string `json:"message,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
	Error      string `json:"error,omitempty"`
}

type TranslationsResponse struct {
	Language     string            `json:"language"`
	Languages    []string          `json:"languages"`
	Translations map[string]string `json:"translations"`
}

type AuthoritiesRequest struct {
	Emails []string `json:"emails"`
}

type AuthoritiesResponse struct {
	Emails []string `json:"emails"`
}

type Service struct {
	c       Config
	diag    Diagnostic
	routes  []httpd.Route
	history *history

	wg      sync.WaitGroup
	closing chan struct{}

	Clock clock.Clock

	HTTPDService interface {
		AddRoutes([]httpd.Route) error
	}
	StorageService interface {
		Store(namespace string) storage.Interface
	}
	SMTPService interface {
		Enabled() bool
		PreviewURL() string
		SendMail(ctx context.Context, to []string, subject, body string) error
	}
	TelemetryService interface {
		Generator() *telemetry.Generator
	}
	AuthorityDirectory interface {
		List() []string
		Save(emails []string) authority.SaveResult
	}
	// Dispatcher delivers escalated alerts.
	Dispatcher interface {
		Dispatch(ctx context.Context, p alert.Payload) alert.Result
	}
	Translations *i18n.Table
}

func NewService(c Config, d Diagnostic) *Service {
	return &Service{
		c:            c,
		diag:         d,
		Clock:        clock.New(),
		Translations: i18n.Default(),
	}
}

func (s *Service) Open() error {
	var store storage.Interface
	if s.StorageService != nil {
		store = s.StorageService.Store(historyNamespace)
	} else {
		store = storage.NewMemStore(historyNamespace)
	}
	h, err := newHistory(store)
	if err != nil {
		return errors.Wrap(err, "failed to create alert history")
	}
	s.history = h
	s.closing = make(chan struct{})

	s.routes = []httpd.Route{
		{
			Name:        "alerts",
			Method:      "GET",
			Pattern:     alertsPath,
			HandlerFunc: s.handleListAlerts,
		},
		{
			Name:        "alerts-create",
			Method:      "POST",
			Pattern:     alertsPath,
			HandlerFunc: s.handleCreateAlert,
		},
		{
			Name:        "alerts-send",
			Method:      "POST",
			Pattern:     sendPath,
			HandlerFunc: s.handleSend,
		},
		{
			Name:        "translations",
			Method:      "GET",
			Pattern:     translationsPath,
			HandlerFunc: s.handleTranslations,
		},
	}
	if s.AuthorityDirectory != nil {
		s.routes = append(s.routes,
			httpd.Route{
				Name:        "authorities",
				Method:      "GET",
				Pattern:     authoritiesPath,
				HandlerFunc: s.handleListAuthorities,
			},
			httpd.Route{
				Name:        "authorities-save",
				Method:      "POST",
				Pattern:     authoritiesPath,
				HandlerFunc: s.handleSaveAuthorities,
			},
		)
	}
	if s.HTTPDService != nil {
		return s.HTTPDService.AddRoutes(s.routes)
	}
	return nil
}

// Close abandons pending escalations and waits for them to return.
func (s *Service) Close() error {
	if s.closing != nil {
		close(s.closing)
		s.wg.Wait()
		s.closing = nil
	}
	return nil
}

func (s *Service) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	list, err := s.history.recent(s.c.HistoryLimit)
	if err != nil {
		s.diag.Error("failed to read alert history", err)
		list = nil
	}
	if s.TelemetryService != nil {
		list = append(list, fabricate(s.TelemetryService.Generator().Sensors())...)
	}
	if list == nil {
		list = []alert.Data{}
	}
	httpd.WriteJSON(w, http.StatusOK, list)
}

func (s *Service) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var d alert.Data
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize)).Decode(&d); err != nil {
		httpd.HttpError(w, "invalid alert: "+err.Error(), true, http.StatusBadRequest)
		return
	}
	d.Message = strings.TrimSpace(d.Message)
	if d.Message == "" {
		httpd.HttpError(w, "alert message is required", true, http.StatusBadRequest)
		return
	}
	d.ID = uuid.New().String()
	d.Time = s.Clock.Now().UTC()
	d.Acknowledged = false

	if err := s.history.add(d); err != nil {
		s.diag.Error("failed to store alert", err)
		httpd.HttpError(w, "failed to store alert", true, http.StatusInternalServerError)
		return
	}
	s.diag.AlertCreated(d.ID, d.Level.String())
	if s.shouldEscalate(d) {
		s.escalate(d)
	}
	httpd.WriteJSON(w, http.StatusCreated, d)
}

func (s *Service) handleSend(w http.ResponseWriter, r *http.Request) {
	var p alert.Payload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize)).Decode(&p); err != nil {
		httpd.WriteJSON(w, http.StatusBadRequest, SendResponse{Error: "invalid alert payload: " + err.Error()})
		return
	}
	recipients := authority.Normalize(p.Recipients)
	if len(recipients) == 0 {
		httpd.WriteJSON(w, http.StatusBadRequest, SendResponse{Error: "at least one recipient is required"})
		return
	}
	subject := strings.TrimSpace(p.Subject)
	if subject == "" {
		httpd.WriteJSON(w, http.StatusBadRequest, SendResponse{Error: "subject is required"})
		return
	}

	if s.SMTPService == nil || !s.SMTPService.Enabled() {
		httpd.WriteJSON(w, http.StatusBadGateway, SendResponse{Error: "email delivery is not configured"})
		return
	}
	body := renderBody(p, s.Clock.Now())
	if err := s.SMTPService.SendMail(r.Context(), recipients, subject, body); err != nil {
		s.diag.Error("failed to send alert email", err)
		httpd.WriteJSON(w, http.StatusBadGateway, SendResponse{Error: err.Error()})
		return
	}
	s.diag.AlertSent(len(recipients), subject)
	httpd.WriteJSON(w, http.StatusOK, SendResponse{
		OK:         true,
		Message:    fmt.Sprintf("Alert sent to %d recipient(s)", len(recipients)),
		PreviewURL: s.SMTPService.PreviewURL(),
	})
}

func (s *Service) handleTranslations(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if !s.Translations.Supported(lang) {
		lang = i18n.DefaultLanguage
	}
	httpd.WriteJSON(w, http.StatusOK, TranslationsResponse{
		Language:     lang,
		Languages:    s.Translations.Languages(),
		Translations: s.Translations.Dictionary(lang),
	})
}

func (s *Service) handleListAuthorities(w http.ResponseWriter, r *http.Request) {
	httpd.WriteJSON(w, http.StatusOK, AuthoritiesResponse{Emails: s.AuthorityDirectory.List()})
}

func (s *Service) handleSaveAuthorities(w http.ResponseWriter, r *http.Request) {
	var req AuthoritiesRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize)).Decode(&req); err != nil {
		httpd.HttpError(w, "invalid authority list: "+err.Error(), true, http.StatusBadRequest)
		return
	}
	result := s.AuthorityDirectory.Save(req.Emails)
	code := http.StatusOK
	if !result.OK {
		code = http.StatusInternalServerError
	}
	httpd.WriteJSON(w, code, result)
}
