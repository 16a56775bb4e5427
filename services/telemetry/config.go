package telemetry

import "github.com/pkg/errors"

type Config struct {
	DamID    string `toml:"dam-id"`
	DamName  string `toml:"dam-name"`
	Location string `toml:"location"`
}

func NewConfig() Config {
	return Config{
		DamID:    "hydrolake-01",
		DamName:  "HydroLake Dam",
		Location: "Catchment Area",
	}
}

func (c Config) Validate() error {
	if c.DamID == "" {
		return errors.New("dam-id must not be empty")
	}
	if c.DamName == "" {
		return errors.New("dam-name must not be empty")
	}
	return nil
}
