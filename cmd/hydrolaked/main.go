// Command hydrolaked runs the HydroLake server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/cmd/hydrolaked/run"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/server"
)

// These variables are populated via the Go linker.
var (
	version = "unknown"
	commit  = "unknown"
	branch  = "unknown"
)

// Time the server gets to close after a signal.
const shutdownLimit = 30 * time.Second

func main() {
	app := newApp(os.Stdout, os.Stderr, waitForSignal)
	if err := app.RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code := 1
		if ec, ok := err.(cli.ExitCoder); ok {
			code = ec.ExitCode()
		}
		os.Exit(code)
	}
}

// waitForSignal blocks until the process is asked to stop. Once it returns
// a second signal terminates the process.
func waitForSignal(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
}

func newApp(stdout, stderr io.Writer, wait func(context.Context)) *cli.App {
	runFlags := []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "path to the configuration file", EnvVars: []string{"HYDROLAKE_CONFIG_PATH"}},
		&cli.StringFlag{Name: "env-file", Usage: "dotenv file of HYDROLAKE_* overrides", Value: ".env"},
		&cli.StringFlag{Name: "hostname", Usage: "override the configured hostname"},
		&cli.StringFlag{Name: "pidfile", Usage: "write the process ID to a file"},
		&cli.StringFlag{Name: "log-file", Usage: "write logs to a file"},
		&cli.StringFlag{Name: "log-level", Usage: "one of debug, info, warn, error"},
		&cli.StringFlag{Name: "cpuprofile", Usage: "write a CPU profile to a file"},
		&cli.StringFlag{Name: "memprofile", Usage: "write a memory profile to a file on exit"},
	}
	serve := func(c *cli.Context) error {
		if c.Args().Present() {
			return cli.Exit(fmt.Sprintf("unknown command %q\nRun 'hydrolaked help' for usage", c.Args().First()), 2)
		}
		return runServer(c, stdout, stderr, wait)
	}
	return &cli.App{
		Name:      "hydrolaked",
		Usage:     "HydroLake dam monitoring server",
		Version:   fmt.Sprintf("%s (git: %s %s)", version, branch, commit),
		Writer:    stdout,
		ErrWriter: stderr,
		// main reports errors and picks the exit code.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags:          runFlags,
		Action:         serve,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "run the server, the default command",
				Flags:  runFlags,
				Action: serve,
			},
			{
				Name:  "config",
				Usage: "display the effective configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Usage: "configuration file merged over the defaults", EnvVars: []string{"HYDROLAKE_CONFIG_PATH"}},
					&cli.StringFlag{Name: "hostname", Usage: "override the configured hostname"},
				},
				Action: func(c *cli.Context) error {
					if err := run.PrintConfig(stdout, stderr, c.String("config"), c.String("hostname")); err != nil {
						return cli.Exit(fmt.Sprintf("config: %s", err), 1)
					}
					return nil
				},
			},
			{
				Name:  "version",
				Usage: "display the HydroLake version",
				Action: func(c *cli.Context) error {
					_, err := fmt.Fprintf(stdout, "HydroLake version %s (git: %s %s)\n", version, branch, commit)
					return err
				},
			},
		},
	}
}

func runServer(c *cli.Context, stdout, stderr io.Writer, wait func(context.Context)) error {
	cmd := run.NewCommand(server.BuildInfo{Version: version, Commit: commit, Branch: branch})
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	err := cmd.Run(run.Options{
		ConfigPath: c.String("config"),
		EnvFile:    c.String("env-file"),
		PIDFile:    c.String("pidfile"),
		Hostname:   c.String("hostname"),
		CPUProfile: c.String("cpuprofile"),
		MemProfile: c.String("memprofile"),
		LogFile:    c.String("log-file"),
		LogLevel:   c.String("log-level"),
	})
	if err != nil {
		if cmd.Diag != nil {
			cmd.Diag.Error("encountered error", err)
		}
		cmd.Close()
		return cli.Exit(fmt.Sprintf("run: %s", err), 1)
	}

	diag := cmd.Diag
	diag.Info("listening for signals")
	wait(c.Context)
	diag.Info("signal received, initializing clean shutdown...")
	if err := cmd.Shutdown(shutdownLimit); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}
