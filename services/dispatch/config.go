package dispatch

import (
	"net/url"
	"strings"
	"time"

	"github.com/influxdata/influxdb/toml"
	"github.com/pkg/errors"
)

const (
	DefaultURL     = "http://localhost:9292"
	DefaultPath    = "/api/alerts/send"
	DefaultTimeout = 10 * time.Second
)

type BasicAuth struct {
	Username string `toml:"username" json:"username"`
	Password string `toml:"password" json:"password"`
}

func (b BasicAuth) valid() bool {
	return b.Username != "" && b.Password != ""
}

type Config struct {
	// Base URL of the delivery endpoint.
	URL string `toml:"url"`
	// Path of the send operation, appended to URL.
	Path string `toml:"path"`
	// Timeout of a single delivery attempt. Zero disables the timeout.
	Timeout   toml.Duration     `toml:"timeout"`
	Headers   map[string]string `toml:"headers"`
	BasicAuth BasicAuth         `toml:"basic-auth"`
	// Program used to open the mailto fallback, e.g. "xdg-open".
	// The platform default is used when empty.
	OpenCommand string `toml:"open-command"`
}

func NewConfig() Config {
	return Config{
		URL:     DefaultURL,
		Path:    DefaultPath,
		Timeout: toml.Duration(DefaultTimeout),
	}
}

func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("must specify url")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return errors.Wrapf(err, "invalid URL %q", c.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("invalid URL %q: scheme must be http or https", c.URL)
	}
	if !strings.HasPrefix(c.Path, "/") {
		return errors.Errorf("path %q must start with /", c.Path)
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if (c.BasicAuth.Username != "" || c.BasicAuth.Password != "") && !c.BasicAuth.valid() {
		return errors.New("basic-auth must set both \"username\" and \"password\" parameters")
	}
	return nil
}

// Endpoint is the full URL alerts are posted to.
func (c Config) Endpoint() string {
	return strings.TrimRight(c.URL, "/") + c.Path
}
