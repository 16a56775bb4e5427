package run

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/server"
)

// PrintConfig writes the effective configuration as TOML: the demo defaults,
// the file found for configPath, then environment overrides and hostname.
func PrintConfig(w, diag io.Writer, configPath, hostname string) error {
	config, err := server.NewDemoConfig()
	if err != nil {
		config = server.NewConfig()
	}
	if path := FindConfigPath(configPath); path != "" {
		fmt.Fprintln(diag, "Merging with configuration at:", path)
		if _, err := toml.DecodeFile(path, config); err != nil {
			return errors.Wrap(err, "parse config")
		}
	}
	if err := config.ApplyEnvOverrides(); err != nil {
		return errors.Wrap(err, "apply env config")
	}
	if hostname != "" {
		config.Hostname = hostname
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("%s. To generate a valid configuration file run `hydrolaked config > hydrolake.generated.conf`", err)
	}
	if err := toml.NewEncoder(w).Encode(config); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w)
	return err
}

// FindConfigPath resolves the configuration file. In order:
//
//	configPath, os.DevNull meaning none
//	$HYDROLAKE_CONFIG_PATH
//	~/.hydrolake/hydrolake.conf when not empty
//	/etc/hydrolake/hydrolake.conf when not empty
func FindConfigPath(configPath string) string {
	switch {
	case configPath == os.DevNull:
		return ""
	case configPath != "":
		return configPath
	}
	if p := os.Getenv("HYDROLAKE_CONFIG_PATH"); p != "" {
		return p
	}
	candidates := []string{"/etc/hydrolake/hydrolake.conf"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append([]string{home + "/.hydrolake/hydrolake.conf"}, candidates...)
	}
	for _, p := range candidates {
		if fi, err := os.Stat(p); err == nil && fi.Size() > 0 {
			return p
		}
	}
	return ""
}
