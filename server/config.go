package server

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/alerts"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/diagnostic"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/dispatch"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/httpd"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/realtime"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/smtp"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/storage"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/telemetry"
)

// EnvPrefix prefixes every environment variable that overrides the configuration.
const EnvPrefix = "HYDROLAKE"

// Config represents the configuration format shared by the hydrolaked and hydrolake binaries.
type Config struct {
	Hostname string `toml:"hostname"`
	DataDir  string `toml:"data_dir"`

	HTTP      httpd.Config      `toml:"http"`
	Logging   diagnostic.Config `toml:"logging"`
	Storage   storage.Config    `toml:"storage"`
	Dispatch  dispatch.Config   `toml:"dispatch"`
	SMTP      smtp.Config       `toml:"smtp"`
	Telemetry telemetry.Config  `toml:"telemetry"`
	Alerts    alerts.Config     `toml:"alerts"`
	Realtime  realtime.Config   `toml:"realtime"`
}

// NewConfig returns an instance of Config with reasonable defaults.
func NewConfig() *Config {
	c := &Config{
		Hostname: "localhost",
	}

	c.HTTP = httpd.NewConfig()
	c.Logging = diagnostic.NewConfig()
	c.Storage = storage.NewConfig()
	c.Dispatch = dispatch.NewConfig()
	c.SMTP = smtp.NewConfig()
	c.Telemetry = telemetry.NewConfig()
	c.Alerts = alerts.NewConfig()
	c.Realtime = realtime.NewConfig()

	return c
}

// NewDemoConfig returns the config that runs when no config is specified.
// State is kept under ~/.hydrolake.
func NewDemoConfig() (*Config, error) {
	c := NewConfig()

	var homeDir string
	u, err := user.Current()
	if err == nil {
		homeDir = u.HomeDir
	} else if os.Getenv("HOME") != "" {
		homeDir = os.Getenv("HOME")
	} else {
		return nil, fmt.Errorf("failed to determine current user for storage")
	}

	c.DataDir = filepath.Join(homeDir, ".hydrolake")
	c.Storage.BoltDBPath = filepath.Join(c.DataDir, "hydrolake.db")

	return c, nil
}

// Validate returns an error if the config is invalid.
func (c *Config) Validate() error {
	if c.Hostname == "" {
		return fmt.Errorf("must configure valid hostname")
	}
	if err := c.HTTP.Validate(); err != nil {
		return errors.Wrap(err, "http")
	}
	if err := c.Logging.Validate(); err != nil {
		return errors.Wrap(err, "logging")
	}
	if err := c.Storage.Validate(); err != nil {
		return errors.Wrap(err, "storage")
	}
	if err := c.Dispatch.Validate(); err != nil {
		return errors.Wrap(err, "dispatch")
	}
	if err := c.SMTP.Validate(); err != nil {
		return errors.Wrap(err, "smtp")
	}
	if err := c.Telemetry.Validate(); err != nil {
		return errors.Wrap(err, "telemetry")
	}
	if err := c.Alerts.Validate(); err != nil {
		return errors.Wrap(err, "alerts")
	}
	if err := c.Realtime.Validate(); err != nil {
		return errors.Wrap(err, "realtime")
	}
	return nil
}

// ApplyEnvOverrides sets fields from HYDROLAKE_<SECTION>_<KEY> environment variables.
// Hyphens in toml keys become underscores, e.g. HYDROLAKE_HTTP_BIND_ADDRESS.
func (c *Config) ApplyEnvOverrides() error {
	return c.applyEnvOverrides(EnvPrefix, "", reflect.ValueOf(c))
}

func (c *Config) applyEnvOverrides(prefix string, fieldDesc string, spec reflect.Value) error {
	// If we have a pointer, dereference it
	s := spec
	if spec.Kind() == reflect.Ptr {
		s = spec.Elem()
	}

	var value string

	if s.Kind() != reflect.Struct && s.Kind() != reflect.Map {
		value = os.Getenv(prefix)
		// Skip any fields we don't have a value to set
		if value == "" {
			return nil
		}

		if fieldDesc != "" {
			fieldDesc = " to " + fieldDesc
		}
	}

	switch s.Kind() {
	case reflect.String:
		s.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:

		var intValue int64

		// Handle toml.Duration
		if s.Type().Name() == "Duration" {
			dur, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("failed to apply %v%v using type %v and value '%v'", prefix, fieldDesc, s.Type().String(), value)
			}
			intValue = dur.Nanoseconds()
		} else {
			var err error
			intValue, err = strconv.ParseInt(value, 0, s.Type().Bits())
			if err != nil {
				return fmt.Errorf("failed to apply %v%v using type %v and value '%v'", prefix, fieldDesc, s.Type().String(), value)
			}
		}

		s.SetInt(intValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("failed to apply %v%v using type %v and value '%v'", prefix, fieldDesc, s.Type().String(), value)
		}
		s.SetBool(boolValue)
	case reflect.Float32, reflect.Float64:
		floatValue, err := strconv.ParseFloat(value, s.Type().Bits())
		if err != nil {
			return fmt.Errorf("failed to apply %v%v using type %v and value '%v'", prefix, fieldDesc, s.Type().String(), value)
		}
		s.SetFloat(floatValue)
	case reflect.Slice:
		// A comma separated list replaces a string slice.
		if s.Type().Elem().Kind() != reflect.String {
			return nil
		}
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		s.Set(reflect.ValueOf(items))
	case reflect.Map:
		if s.IsNil() && s.CanSet() {
			s.Set(reflect.MakeMap(s.Type()))
		}
		if err := applyEnvOverridesToMap(prefix, s); err != nil {
			return err
		}
	case reflect.Struct:
		if err := c.applyEnvOverridesToStruct(prefix, s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) applyEnvOverridesToStruct(prefix string, s reflect.Value) error {
	typeOfSpec := s.Type()
	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		// Get the toml tag to determine what env var name to use
		configName := typeOfSpec.Field(i).Tag.Get("toml")
		if configName == "" || configName == "-" {
			continue
		}
		// Replace hyphens with underscores to avoid issues with shells
		configName = strings.Replace(configName, "-", "_", -1)
		fieldName := typeOfSpec.Field(i).Name

		// Skip any fields that we cannot set
		if !f.CanSet() {
			continue
		}

		// Use the upper-case prefix and toml name for the env var
		key := strings.ToUpper(configName)
		if prefix != "" {
			key = strings.ToUpper(fmt.Sprintf("%s_%s", prefix, configName))
		}
		if err := c.applyEnvOverrides(key, fieldName, f); err != nil {
			return err
		}
	}
	return nil
}

// applyEnvOverridesToMap sets an entry for every environment variable starting with prefix.
// The remainder of the variable name is the map key, its case is kept.
func applyEnvOverridesToMap(prefix string, s reflect.Value) error {
	if s.IsNil() {
		return errors.New("cannot apply env to nil map")
	}
	t := s.Type()
	if t.Key().Kind() != reflect.String || t.Elem().Kind() != reflect.String {
		return errors.New("map is not a map[string]string")
	}
	prefix += "_"
	for _, env := range os.Environ() {
		key, value, _ := strings.Cut(env, "=")
		name, ok := strings.CutPrefix(key, prefix)
		if !ok || name == "" {
			continue
		}
		s.SetMapIndex(reflect.ValueOf(name), reflect.ValueOf(value))
	}
	return nil
}
