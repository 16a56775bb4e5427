package alerts_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/influxdata/influxdb/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/alert"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/alerts"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/authority"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/httpd/httpdtest"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/smtp"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/smtp/smtptest"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/storage"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/storage/storagetest"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/telemetry"
)

type nopDiag struct{}

func (nopDiag) Error(string, error)           {}
func (nopDiag) AlertCreated(string, string)   {}
func (nopDiag) AlertSent(int, string)         {}
func (nopDiag) Escalated(string, int, string) {}
func (nopDiag) Saved(int)                     {}
func (nopDiag) Sent([]string)                 {}

type fakeMailer struct {
	mu      sync.Mutex
	enabled bool
	err     error
	sent    [][]string
}

func (m *fakeMailer) Enabled() bool      { return m.enabled }
func (m *fakeMailer) PreviewURL() string { return "" }
func (m *fakeMailer) SendMail(ctx context.Context, to []string, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return m.err
}

func (m *fakeMailer) calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.sent...)
}

type telemetryService struct {
	gen *telemetry.Generator
}

func (t telemetryService) Generator() *telemetry.Generator { return t.gen }

type dispatcher struct {
	payloads chan alert.Payload
}

func (d dispatcher) Dispatch(ctx context.Context, p alert.Payload) alert.Result {
	d.payloads <- p
	return alert.Delivered("", "")
}

// blockingDispatcher holds each dispatch until its context is done.
type blockingDispatcher struct {
	started chan struct{}
	errs    chan error
}

func (d blockingDispatcher) Dispatch(ctx context.Context, p alert.Payload) alert.Result {
	close(d.started)
	<-ctx.Done()
	d.errs <- ctx.Err()
	return alert.Failed(ctx.Err().Error())
}

type server struct {
	hs  *httpdtest.Server
	svc *alerts.Service
	clk *clock.Mock
}

func newServer(t *testing.T, configure func(s *alerts.Service)) *server {
	return newServerWithConfig(t, alerts.NewConfig(), configure)
}

func newServerWithConfig(t *testing.T, c alerts.Config, configure func(s *alerts.Service)) *server {
	hs := httpdtest.NewServer(false)
	t.Cleanup(func() { hs.Close() })

	clk := clock.NewMock()
	clk.Set(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	s := alerts.NewService(c, nopDiag{})
	s.Clock = clk
	s.HTTPDService = hs
	if configure != nil {
		configure(s)
	}
	require.NoError(t, s.Open())
	t.Cleanup(func() { s.Close() })
	return &server{hs: hs, svc: s, clk: clk}
}

func (s *server) do(t *testing.T, method, path string, body interface{}) (int, []byte) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.hs.URL()+path, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestService_SendDeliversEmail(t *testing.T) {
	ss, err := smtptest.NewServer()
	require.NoError(t, err)
	defer ss.Close()

	c := smtp.NewConfig()
	c.Enabled = true
	c.Host = ss.Host
	c.Port = ss.Port
	c.IdleTimeout = toml.Duration(time.Second)
	c.PreviewURL = "http://localhost:8025"
	mailer := smtp.NewService(c, nopDiag{})
	require.NoError(t, mailer.Open())
	defer mailer.Close()

	s := newServer(t, func(s *alerts.Service) { s.SMTPService = mailer })
	code, body := s.do(t, "POST", "/api/alerts/send", alert.Payload{
		Recipients: []string{" ops@dam.gov", "", "engineer@dam.gov "},
		Subject:    "Water level critical",
		Body:       "Open the spillway",
		Metadata:   map[string]interface{}{"sensor": "water-level", "value": 516.2, "unit": "m"},
	})
	require.Equal(t, http.StatusOK, code, string(body))
	assert.JSONEq(t, `{"ok":true,"message":"Alert sent to 2 recipient(s)","previewUrl":"http://localhost:8025"}`, string(body))

	mailer.Close()
	msgs := ss.SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Water level critical", msgs[0].Header.Get("Subject"))
	assert.Equal(t, "ops@dam.gov, engineer@dam.gov", msgs[0].Header.Get("To"))
	assert.Contains(t, msgs[0].Body, "Open the spillway")
	assert.Contains(t, msgs[0].Body, "516.2 m")
}

func TestService_SendValidation(t *testing.T) {
	mailer := &fakeMailer{enabled: true}
	s := newServer(t, func(s *alerts.Service) { s.SMTPService = mailer })

	testCases := []struct {
		name string
		body interface{}
		exp  string
	}{
		{
			name: "no recipients",
			body: alert.Payload{Subject: "Seepage", Body: "rising"},
			exp:  `{"ok":false,"error":"at least one recipient is required"}`,
		},
		{
			name: "blank recipients",
			body: alert.Payload{Recipients: []string{" ", ""}, Subject: "Seepage"},
			exp:  `{"ok":false,"error":"at least one recipient is required"}`,
		},
		{
			name: "no subject",
			body: alert.Payload{Recipients: []string{"ops@dam.gov"}},
			exp:  `{"ok":false,"error":"subject is required"}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := s.do(t, "POST", "/api/alerts/send", tc.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.JSONEq(t, tc.exp, string(body))
		})
	}

	code, body := s.do(t, "POST", "/api/alerts/send", "{not json")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), `"ok":false`)
	assert.Empty(t, mailer.calls())
}

func TestService_SendMailerUnavailable(t *testing.T) {
	p := alert.Payload{Recipients: []string{"ops@dam.gov"}, Subject: "Gate stuck", Body: "Gate 3"}

	s := newServer(t, nil)
	code, body := s.do(t, "POST", "/api/alerts/send", p)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.JSONEq(t, `{"ok":false,"error":"email delivery is not configured"}`, string(body))

	s = newServer(t, func(s *alerts.Service) { s.SMTPService = &fakeMailer{} })
	code, _ = s.do(t, "POST", "/api/alerts/send", p)
	assert.Equal(t, http.StatusBadGateway, code)

	mailer := &fakeMailer{enabled: true, err: errors.New("mailbox unavailable")}
	s = newServer(t, func(s *alerts.Service) { s.SMTPService = mailer })
	code, body = s.do(t, "POST", "/api/alerts/send", p)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.JSONEq(t, `{"ok":false,"error":"mailbox unavailable"}`, string(body))
	assert.Equal(t, [][]string{{"ops@dam.gov"}}, mailer.calls())
}

func TestService_CreateAndListAlerts(t *testing.T) {
	store := storagetest.New(t)
	s := newServer(t, func(s *alerts.Service) { s.StorageService = store })

	code, body := s.do(t, "GET", "/api/alerts", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(body))

	code, body = s.do(t, "POST", "/api/alerts", map[string]interface{}{
		"level":   "high",
		"sensor":  "seepage",
		"message": "Seepage above warning threshold",
		"value":   44.5,
	})
	require.Equal(t, http.StatusCreated, code, string(body))
	var first alert.Data
	require.NoError(t, json.Unmarshal(body, &first))
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, alert.High, first.Level)
	assert.Equal(t, s.clk.Now(), first.Time)
	assert.False(t, first.Acknowledged)

	s.clk.Add(time.Minute)
	code, body = s.do(t, "POST", "/api/alerts", map[string]interface{}{
		"level":   "critical",
		"message": "Vibration critical",
	})
	require.Equal(t, http.StatusCreated, code, string(body))

	code, body = s.do(t, "GET", "/api/alerts", nil)
	require.Equal(t, http.StatusOK, code)
	var list []alert.Data
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Vibration critical", list[0].Message)
	assert.Equal(t, first, list[1])
}

func TestService_CreateAlertValidation(t *testing.T) {
	s := newServer(t, nil)

	code, body := s.do(t, "POST", "/api/alerts", map[string]interface{}{"level": "high", "message": "  "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "alert message is required")

	code, _ = s.do(t, "POST", "/api/alerts", map[string]interface{}{"level": "severe", "message": "x"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestService_ListAlertsIncludesLiveAlerts(t *testing.T) {
	var gen *telemetry.Generator
	s := newServer(t, func(s *alerts.Service) {
		gen = telemetry.NewGenerator(telemetry.NewConfig(), s.Clock)
		s.TelemetryService = telemetryService{gen: gen}
	})

	code, body := s.do(t, "GET", "/api/alerts", nil)
	require.Equal(t, http.StatusOK, code)
	var list []alert.Data
	require.NoError(t, json.Unmarshal(body, &list))

	report := gen.Sensors()
	raised := 0
	for _, sensor := range report.Sensors {
		if sensor.Status != telemetry.StatusNormal {
			raised++
		}
	}
	require.Len(t, list, raised+1)
	summary := list[len(list)-1]
	assert.Equal(t, alert.Low, summary.Level)
	assert.Equal(t, report.Summary, summary.Message)
	assert.True(t, summary.Acknowledged)

	ids := make(map[string]bool)
	for _, a := range list {
		assert.False(t, ids[a.ID], "duplicate id %s", a.ID)
		ids[a.ID] = true
	}

	// Same instant, same alerts.
	_, again := s.do(t, "GET", "/api/alerts", nil)
	assert.JSONEq(t, string(body), string(again))
}

func TestService_Translations(t *testing.T) {
	s := newServer(t, nil)

	code, body := s.do(t, "GET", "/api/translations?lang=hi", nil)
	require.Equal(t, http.StatusOK, code)
	var resp alerts.TranslationsResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "hi", resp.Language)
	assert.Equal(t, []string{"en", "hi", "mr", "ta", "te"}, resp.Languages)
	assert.Equal(t, "High", resp.Translations["alerts.high"])

	_, body = s.do(t, "GET", "/api/translations?lang=fr", nil)
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "en", resp.Language)
}

func TestService_Authorities(t *testing.T) {
	dir := authority.NewDirectory(storage.NewMemStore(authority.Namespace), nopDiag{})
	s := newServer(t, func(s *alerts.Service) { s.AuthorityDirectory = dir })

	code, body := s.do(t, "GET", "/api/authorities", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"emails":[]}`, string(body))

	code, body = s.do(t, "POST", "/api/authorities", alerts.AuthoritiesRequest{Emails: []string{" a@x.com", "", "b@y.com"}})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, []string{"a@x.com", "b@y.com"}, dir.List())

	code, body = s.do(t, "GET", "/api/authorities", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"emails":["a@x.com","b@y.com"]}`, string(body))
}

func TestService_AuthoritiesNotServedWithoutDirectory(t *testing.T) {
	s := newServer(t, nil)
	code, _ := s.do(t, "GET", "/api/authorities", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestService_EscalatesCriticalAlerts(t *testing.T) {
	dir := authority.NewDirectory(storage.NewMemStore(authority.Namespace), nopDiag{})
	require.True(t, dir.Save([]string{"ops@dam.gov", "engineer@dam.gov"}).OK)
	d := dispatcher{payloads: make(chan alert.Payload, 1)}

	c := alerts.NewConfig()
	c.EscalateCritical = true
	s := newServerWithConfig(t, c, func(s *alerts.Service) {
		s.AuthorityDirectory = dir
		s.Dispatcher = d
	})

	code, _ := s.do(t, "POST", "/api/alerts", map[string]interface{}{"level": "high", "message": "Seepage rising"})
	require.Equal(t, http.StatusCreated, code)
	code, body := s.do(t, "POST", "/api/alerts", map[string]interface{}{
		"level":   "critical",
		"sensor":  "water-level",
		"message": "Water level critical",
		"value":   516.5,
	})
	require.Equal(t, http.StatusCreated, code)
	var created alert.Data
	require.NoError(t, json.Unmarshal(body, &created))

	select {
	case p := <-d.payloads:
		assert.Equal(t, []string{"ops@dam.gov", "engineer@dam.gov"}, p.Recipients)
		assert.Equal(t, "HydroLake critical alert (water-level)", p.Subject)
		assert.Equal(t, "Water level critical", p.Body)
		assert.Equal(t, created.ID, p.Metadata["alertId"])
		assert.Equal(t, 516.5, p.Metadata["value"])
	case <-time.After(5 * time.Second):
		t.Fatal("critical alert was not escalated")
	}
	require.NoError(t, s.svc.Close())
	assert.Empty(t, d.payloads)
}

func TestService_CloseCancelsPendingEscalation(t *testing.T) {
	dir := authority.NewDirectory(storage.NewMemStore(authority.Namespace), nopDiag{})
	require.True(t, dir.Save([]string{"ops@dam.gov"}).OK)
	d := blockingDispatcher{started: make(chan struct{}), errs: make(chan error, 1)}

	c := alerts.NewConfig()
	c.EscalateCritical = true
	c.EscalationTimeout = toml.Duration(time.Hour)
	s := newServerWithConfig(t, c, func(s *alerts.Service) {
		s.AuthorityDirectory = dir
		s.Dispatcher = d
	})

	code, _ := s.do(t, "POST", "/api/alerts", map[string]interface{}{"level": "critical", "message": "Spillway gate stuck"})
	require.Equal(t, http.StatusCreated, code)
	select {
	case <-d.started:
	case <-time.After(5 * time.Second):
		t.Fatal("escalation did not start")
	}

	require.NoError(t, s.svc.Close())
	select {
	case err := <-d.errs:
		assert.ErrorIs(t, err, context.Canceled)
	default:
		t.Fatal("Close returned before the escalation finished")
	}
	require.NoError(t, s.svc.Close())
}

func TestService_NoEscalationByDefault(t *testing.T) {
	dir := authority.NewDirectory(storage.NewMemStore(authority.Namespace), nopDiag{})
	require.True(t, dir.Save([]string{"ops@dam.gov"}).OK)
	d := dispatcher{payloads: make(chan alert.Payload, 1)}
	s := newServer(t, func(s *alerts.Service) {
		s.AuthorityDirectory = dir
		s.Dispatcher = d
	})

	code, _ := s.do(t, "POST", "/api/alerts", map[string]interface{}{"level": "critical", "message": "Vibration critical"})
	require.Equal(t, http.StatusCreated, code)
	require.NoError(t, s.svc.Close())
	assert.Empty(t, d.payloads)
}

func TestConfig_Validate(t *testing.T) {
	c := alerts.NewConfig()
	assert.NoError(t, c.Validate())
	c.HistoryLimit = 0
	assert.Error(t, c.Validate())
}
