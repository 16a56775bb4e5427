// Package run starts a HydroLake server from a configuration file.
package run

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/server"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/diagnostic"
)

const logo = `
 _   _           _           _           _
| | | |_   _  __| |_ __ ___ | |    __ _ | | _____
| |_| | | | |/ _' | '__/ _ \| |   / _' || |/ / _ \
|  _  | |_| | (_| | | | (_) | |__| (_| ||   <  __/
|_| |_|\__, |\__,_|_|  \___/|_____\__,_||_|\_\___|
       |___/

`

// ErrShutdownTimeout is returned by Shutdown when the server did not close in time.
var ErrShutdownTimeout = errors.New("time limit reached, shutdown incomplete")

// Options are the command line overrides of the configuration.
type Options struct {
	ConfigPath string
	// EnvFile is a dotenv file of HYDROLAKE_* variables, ignored when missing.
	EnvFile    string
	PIDFile    string
	Hostname   string
	CPUProfile string
	MemProfile string
	LogFile    string
	LogLevel   string
}

// Command runs one server for the lifetime of the process.
type Command struct {
	server.BuildInfo

	Stdout io.Writer
	Stderr io.Writer

	Server *server.Server
	Diag   *diagnostic.CmdHandler

	diagService *diagnostic.Service
	closeOnce   sync.Once
	closing     chan struct{}
	// Closed is closed once Close has returned.
	Closed chan struct{}
	err    error
}

func NewCommand(info server.BuildInfo) *Command {
	return &Command{
		BuildInfo: info,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		closing:   make(chan struct{}),
		Closed:    make(chan struct{}),
	}
}

// Run loads the configuration and opens the server. It returns once the
// server is serving, Close stops it.
func (cmd *Command) Run(opts Options) error {
	fmt.Fprint(cmd.Stdout, logo)

	// Variables already in the environment win over the env file.
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return errors.Wrap(err, "load env file")
	}
	config, err := cmd.ParseConfig(FindConfigPath(opts.ConfigPath))
	if err != nil {
		return errors.Wrap(err, "parse config")
	}
	if err := config.ApplyEnvOverrides(); err != nil {
		return errors.Wrap(err, "apply env config")
	}
	opts.apply(config)

	cmd.diagService = diagnostic.NewService(config.Logging, cmd.Stdout, cmd.Stderr)
	if err := cmd.diagService.Open(); err != nil {
		return errors.Wrap(err, "init logging")
	}
	cmd.Diag = cmd.diagService.NewCmdHandler()
	cmd.Diag.Starting(cmd.Version, cmd.Commit)
	cmd.Diag.GoVersion()

	if err := writePIDFile(opts.PIDFile); err != nil {
		return errors.Wrap(err, "write pid file")
	}

	s, err := server.New(config, cmd.BuildInfo, cmd.diagService)
	if err != nil {
		return errors.Wrap(err, "create server")
	}
	s.CPUProfile = opts.CPUProfile
	s.MemProfile = opts.MemProfile
	if err := s.Open(); err != nil {
		return errors.Wrap(err, "open server")
	}
	cmd.Server = s

	go cmd.logServerErrors()
	return nil
}

func (o Options) apply(c *server.Config) {
	if o.Hostname != "" {
		c.Hostname = o.Hostname
	}
	if o.LogFile != "" {
		c.Logging.File = o.LogFile
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
}

// Close stops the server and the logger. Later calls return the first result.
func (cmd *Command) Close() error {
	cmd.closeOnce.Do(func() {
		defer close(cmd.Closed)
		close(cmd.closing)
		if cmd.Server != nil {
			cmd.err = cmd.Server.Close()
		}
		if cmd.diagService != nil {
			cmd.diagService.Close()
		}
	})
	return cmd.err
}

// Shutdown closes the command in the background and waits up to limit for it.
func (cmd *Command) Shutdown(limit time.Duration) error {
	go cmd.Close()
	select {
	case <-cmd.Closed:
		return cmd.err
	case <-time.After(limit):
		return ErrShutdownTimeout
	}
}

func (cmd *Command) logServerErrors() {
	for {
		select {
		case err := <-cmd.Server.Err():
			if err != nil {
				cmd.Diag.Error("encountered error", err)
			}
		case <-cmd.closing:
			return
		}
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}

// ParseConfig decodes the file at path over the defaults.
// An empty path gives the demo configuration.
func (cmd *Command) ParseConfig(path string) (*server.Config, error) {
	if path == "" {
		fmt.Fprintln(cmd.Stderr, "no configuration provided, using default settings")
		return server.NewDemoConfig()
	}
	fmt.Fprintf(cmd.Stderr, "Using configuration at: %s\n", path)
	config := server.NewConfig()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, err
	}
	return config, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}
