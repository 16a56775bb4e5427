package smtp

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/influxdata/influxdb/toml"
	"github.com/pkg/errors"
)

const (
	DefaultHost        = "localhost"
	DefaultPort        = 25
	DefaultFrom        = "hydrolake@localhost"
	DefaultIdleTimeout = toml.Duration(30 * time.Second)
)

// Config of the mail relay used by POST /api/alerts/send.
type Config struct {
	Enabled bool   `toml:"enabled"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`

	// Credentials for PLAIN auth, none when Username is empty.
	Username string `toml:"username"`
	Password string `toml:"password"`
	NoVerify bool   `toml:"no-verify"`

	From string `toml:"from"`
	// Recipients of alerts that name none.
	To []string `toml:"to"`

	// The connection to the relay is closed after being idle this long.
	IdleTimeout toml.Duration `toml:"idle-timeout"`
	// Web UI of the relay, e.g. MailHog, handed back as the preview URL.
	PreviewURL string `toml:"preview-url"`
}

func NewConfig() Config {
	return Config{
		Host:        DefaultHost,
		Port:        DefaultPort,
		From:        DefaultFrom,
		IdleTimeout: DefaultIdleTimeout,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Host == "":
		return errors.New("host cannot be empty")
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid port %d", c.Port)
	case c.IdleTimeout < 0:
		return errors.New("idle-timeout must not be negative")
	}
	if c.From != "" {
		if _, err := mail.ParseAddress(c.From); err != nil {
			return errors.Wrapf(err, "invalid from address %q", c.From)
		}
	}
	for _, to := range c.To {
		if _, err := mail.ParseAddress(to); err != nil {
			return errors.Wrapf(err, "invalid to address %q", to)
		}
	}
	return nil
}
