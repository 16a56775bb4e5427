package smtp_test

import (
	"context"
	"testing"
	"time"

	"github.com/influxdata/influxdb/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/smtp"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/smtp/smtptest"
)

type nopDiag struct{}

func (nopDiag) Error(string, error) {}
func (nopDiag) Sent([]string)       {}

func newService(t *testing.T, ss *smtptest.Server) *smtp.Service {
	c := smtp.NewConfig()
	c.Enabled = true
	c.Host = ss.Host
	c.Port = ss.Port
	c.From = "hydrolake@dam.gov"
	c.IdleTimeout = toml.Duration(time.Second)
	s := smtp.NewService(c, nopDiag{})
	require.NoError(t, s.Open())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestService_SendMail(t *testing.T) {
	ss, err := smtptest.NewServer()
	require.NoError(t, err)
	defer ss.Close()
	s := newService(t, ss)

	ctx := context.Background()
	require.NoError(t, s.SendMail(ctx, []string{"ops@dam.gov", "engineer@dam.gov"}, "Water level critical", "Open the spillway"))
	require.NoError(t, s.SendMail(ctx, []string{"ops@dam.gov"}, "Water level normal", "All clear"))
	s.Close()

	msgs := ss.SentMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Water level critical", msgs[0].Header.Get("Subject"))
	assert.Equal(t, "hydrolake@dam.gov", msgs[0].Header.Get("From"))
	assert.Equal(t, "ops@dam.gov, engineer@dam.gov", msgs[0].Header.Get("To"))
	assert.Equal(t, "hydrolake@dam.gov", msgs[0].From)
	assert.Equal(t, []string{"ops@dam.gov", "engineer@dam.gov"}, msgs[0].To)
	assert.Contains(t, msgs[0].Body, "Open the spillway")
	assert.Equal(t, "Water level normal", msgs[1].Header.Get("Subject"))
}

func TestService_SendMailDefaultRecipients(t *testing.T) {
	ss, err := smtptest.NewServer()
	require.NoError(t, err)
	defer ss.Close()

	c := smtp.NewConfig()
	c.Enabled = true
	c.Host = ss.Host
	c.Port = ss.Port
	s := smtp.NewService(c, nopDiag{})
	require.NoError(t, s.Open())
	defer s.Close()

	assert.Equal(t, smtp.ErrNoRecipients, s.SendMail(context.Background(), nil, "s", "b"))

	c.To = []string{"control-room@dam.gov"}
	require.NoError(t, s.Update(c))
	require.NoError(t, s.SendMail(context.Background(), nil, "s", "b"))
	s.Close()

	msgs := ss.SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "control-room@dam.gov", msgs[0].Header.Get("To"))
}

func TestService_Rejected(t *testing.T) {
	ss, err := smtptest.NewServer()
	require.NoError(t, err)
	defer ss.Close()
	ss.SetRejectRecipients(true)
	s := newService(t, ss)

	err = s.SendMail(context.Background(), []string{"nobody@dam.gov"}, "s", "b")
	assert.Error(t, err)
	assert.Empty(t, ss.SentMessages())

	// the next message dials again
	ss.SetRejectRecipients(false)
	assert.NoError(t, s.SendMail(context.Background(), []string{"ops@dam.gov"}, "s", "b"))
}

func TestService_Unreachable(t *testing.T) {
	ss, err := smtptest.NewServer()
	require.NoError(t, err)
	ss.Close()

	s := newService(t, ss)
	assert.Error(t, s.SendMail(context.Background(), []string{"ops@dam.gov"}, "s", "b"))
}

func TestService_NotEnabledOrClosed(t *testing.T) {
	s := smtp.NewService(smtp.NewConfig(), nopDiag{})
	assert.Equal(t, smtp.ErrNotEnabled, s.SendMail(context.Background(), []string{"ops@dam.gov"}, "s", "b"))

	c := smtp.NewConfig()
	c.Enabled = true
	s = smtp.NewService(c, nopDiag{})
	assert.Equal(t, smtp.ErrClosed, s.SendMail(context.Background(), []string{"ops@dam.gov"}, "s", "b"))
}

func TestConfig_Validate(t *testing.T) {
	c := smtp.NewConfig()
	assert.NoError(t, c.Validate())

	c.From = "not-an-address"
	assert.Error(t, c.Validate())

	c = smtp.NewConfig()
	c.To = []string{"ops@dam.gov", "ops"}
	assert.Error(t, c.Validate())

	c = smtp.NewConfig()
	c.Port = 0
	assert.Error(t, c.Validate())
}
