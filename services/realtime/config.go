package realtime

import (
	"net/url"
	"time"

	"github.com/influxdata/influxdb/toml"
	"github.com/pkg/errors"
)

const (
	DefaultBroadcastInterval = 5 * time.Second
	DefaultURL               = "ws://localhost:9292" + Path
	DefaultSendBuffer        = 16
	DefaultWriteTimeout      = 10 * time.Second
)

type Config struct {
	Enabled bool `toml:"enabled"`
	// How often connected clients receive a sensor update.
	BroadcastInterval toml.Duration `toml:"broadcast-interval"`
	// Updates queued per client before the client is considered too slow and dropped.
	SendBuffer   int           `toml:"send-buffer"`
	WriteTimeout toml.Duration `toml:"write-timeout"`

	// URL clients connect to.
	URL string `toml:"url"`
}

func NewConfig() Config {
	return Config{
		Enabled:           true,
		BroadcastInterval: toml.Duration(DefaultBroadcastInterval),
		SendBuffer:        DefaultSendBuffer,
		WriteTimeout:      toml.Duration(DefaultWriteTimeout),
		URL:               DefaultURL,
	}
}

func (c Config) Validate() error {
	if c.BroadcastInterval <= 0 {
		return errors.New("broadcast-interval must be positive")
	}
	if c.SendBuffer <= 0 {
		return errors.New("send-buffer must be positive")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("write-timeout must be positive")
	}
	if c.URL != "" {
		u, err := url.Parse(c.URL)
		if err != nil {
			return errors.Wrapf(err, "invalid url %q", c.URL)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return errors.Errorf("url %q must use the ws or wss scheme", c.URL)
		}
	}
	return nil
}
