package alerts

import (
	"github.com/influxdata/influxdb/toml"
	"github.com/pkg/errors"
)

type Config struct {
	// Maximum number of stored alerts returned by GET /api/alerts.
	HistoryLimit int `toml:"history-limit"`
	// Dispatch critical alerts posted to the API to the authority list.
	EscalateCritical bool `toml:"escalate-critical"`
	// Subject prefix of escalated alerts.
	EscalationSubject string `toml:"escalation-subject"`
	// How long an escalation may take before it is abandoned.
	EscalationTimeout toml.Duration `toml:"escalation-timeout"`
}

func NewConfig() Config {
	return Config{
		HistoryLimit:      100,
		EscalationSubject: "HydroLake critical alert",
		EscalationTimeout: toml.Duration(defaultEscalationTimeout),
	}
}

func (c Config) Validate() error {
	if c.HistoryLimit <= 0 {
		return errors.New("history-limit must be positive")
	}
	if c.EscalationTimeout < 0 {
		return errors.New("escalation-timeout must not be negative")
	}
	return nil
}
