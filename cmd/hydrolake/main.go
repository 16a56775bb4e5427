// Command hydrolake sends alerts, manages authorities and watches live
// telemetry of a HydroLake server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/diagnostic"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/dispatch"
)

// These variables are populated via the Go linker.
var (
	version string
	commit  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(os.Stdout, os.Stderr)
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code := 1
		if ec, ok := err.(cli.ExitCoder); ok {
			code = ec.ExitCode()
		}
		os.Exit(code)
	}
}

// env is shared by the commands of one invocation.
type env struct {
	stdout io.Writer
	stderr io.Writer
	diag   *diagnostic.Service
}

func newApp(stdout, stderr io.Writer) *cli.App {
	e := &env{stdout: stdout, stderr: stderr}
	return &cli.App{
		Name:      "hydrolake",
		Usage:     "HydroLake dam monitoring client",
		UsageText: "hydrolake [global options] command [command options] [arguments...]",
		Version:   fmt.Sprintf("%s (git: %s)", version, commit),
		Writer:    stdout,
		ErrWriter: stderr,
		// main reports errors and picks the exit code.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "base URL of the HydroLake server",
				Value:   dispatch.DefaultURL,
				EnvVars: []string{"HYDROLAKE_URL"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "one of debug, info, warn, error",
				Value:   "WARN",
				EnvVars: []string{"HYDROLAKE_LOG_LEVEL"},
			},
		},
		Before: e.setup,
		After:  e.teardown,
		Commands: []*cli.Command{
			newSendAlertCmd(e),
			newAuthoritiesCmd(e),
			newTranslateCmd(e),
			newWatchCmd(e),
		},
	}
}

// setup opens the logger, log lines go to stderr so they never mix with command output.
func (e *env) setup(ctx *cli.Context) error {
	c := diagnostic.NewConfig()
	c.Level = ctx.String("log-level")
	e.diag = diagnostic.NewService(c, e.stderr, e.stderr)
	if err := e.diag.Open(); err != nil {
		return cli.Exit(fmt.Sprintf("init logging: %s", err), 1)
	}
	return nil
}

func (e *env) teardown(ctx *cli.Context) error {
	if e.diag != nil {
		return e.diag.Close()
	}
	return nil
}
