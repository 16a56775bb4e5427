package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/alert"
)

const defaultEscalationTimeout = 30 * time.Second

func (s *Service) shouldEscalate(d alert.Data) bool {
	return s.c.EscalateCritical && s.Dispatcher != nil && s.AuthorityDirectory != nil && d.Level >= alert.Critical
}

// escalate dispatches d to the authority list in the background.
func (s *Service) escalate(d alert.Data) {
	recipients := s.AuthorityDirectory.List()
	if len(recipients) == 0 {
		s.diag.Escalated(d.ID, 0, "no authorities configured")
		return
	}
	p := escalationPayload(s.c.EscalationSubject, d, recipients)

	closing := s.closing
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := s.escalationContext(closing)
		defer cancel()
		r := s.Dispatcher.Dispatch(ctx, p)
		s.diag.Escalated(d.ID, len(recipients), r.String())
	}()
}

// escalationContext is cancelled when closing is closed or the configured
// timeout elapses.
func (s *Service) escalationContext(closing <-chan struct{}) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-closing:
			cancel()
		case <-ctx.Done():
		}
	}()
	if t := time.Duration(s.c.EscalationTimeout); t > 0 {
		tctx, tcancel := context.WithTimeout(ctx, t)
		return tctx, func() {
			tcancel()
			cancel()
		}
	}
	return ctx, cancel
}

func escalationPayload(subject string, d alert.Data, recipients []string) alert.Payload {
	var sensor string
	if d.Sensor != "" {
		sensor = fmt.Sprintf(" (%s)", d.Sensor)
	}
	return alert.Payload{
		Recipients: recipients,
		Subject:    strings.TrimSpace(fmt.Sprintf("%s%s", subject, sensor)),
		Body:       d.Message,
		Metadata: map[string]interface{}{
			"alertId":   d.ID,
			"level":     d.Level.String(),
			"sensor":    d.Sensor,
			"value":     d.Value,
			"threshold": d.Threshold,
			"time":      d.Time.Format(time.RFC3339),
		},
	}
}
