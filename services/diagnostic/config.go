package diagnostic

import (
	"fmt"
	"strings"
)

type Config struct {
	// STDERR, STDOUT or a file path.
	File string `toml:"file"`
	// DEBUG, INFO, WARN or ERROR.
	Level string `toml:"level"`
	// json or console.
	Encoding string `toml:"encoding"`
}

func NewConfig() Config {
	return Config{
		File:     "STDERR",
		Level:    "INFO",
		Encoding: "console",
	}
}

func (c Config) Validate() error {
	if c.File == "" {
		return fmt.Errorf("logging file must not be empty")
	}
	if _, err := parseLevel(c.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Encoding) {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log encoding %q", c.Encoding)
	}
	return nil
}
