package httpd

import (
	"net"
	"strconv"
	"time"

	"github.com/influxdata/influxdb/toml"
	"github.com/pkg/errors"
)

const (
	DefaultShutdownTimeout = toml.Duration(time.Second * 10)
	DefaultBindAddress     = ":9292"
)

type Config struct {
	BindAddress      string        `toml:"bind-address"`
	LogEnabled       bool          `toml:"log-enabled"`
	HttpsEnabled     bool          `toml:"https-enabled"`
	HttpsCertificate string        `toml:"https-certificate"`
	HTTPSPrivateKey  string        `toml:"https-private-key"`
	ShutdownTimeout  toml.Duration `toml:"shutdown-timeout"`
}

func NewConfig() Config {
	return Config{
		BindAddress:      DefaultBindAddress,
		LogEnabled:       true,
		HttpsCertificate: "/etc/ssl/hydrolake.pem",
		ShutdownTimeout:  DefaultShutdownTimeout,
	}
}

func (c Config) Validate() error {
	if _, err := c.Port(); err != nil {
		return err
	}
	if c.ShutdownTimeout < 0 {
		return errors.New("shutdown-timeout must not be negative")
	}
	if c.HttpsEnabled && c.HttpsCertificate == "" {
		return errors.New("https-certificate must be set when https is enabled")
	}
	return nil
}

// Port returns the port the service binds to.
func (c Config) Port() (int, error) {
	_, portStr, err := net.SplitHostPort(c.BindAddress)
	if err != nil {
		return -1, errors.Wrapf(err, "invalid bind address %q", c.BindAddress)
	}
	port, err := strconv.ParseInt(portStr, 10, 32)
	if err != nil {
		return -1, errors.Wrapf(err, "invalid port number %q", portStr)
	}
	return int(port), nil
}
