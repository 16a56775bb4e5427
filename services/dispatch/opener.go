package dispatch

import (
	"context"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/command"
)

// ErrNotInteractive is returned by openers that have no way to show a URI to a user.
var ErrNotInteractive = errors.New("environment is not interactive")

// URIOpener hands a URI to whatever the host uses to open it, usually the default mail client.
type URIOpener interface {
	Open(uri string) error
}

// NoOpener is used on headless hosts.
type NoOpener struct{}

func (NoOpener) Open(string) error {
	return ErrNotInteractive
}

// CommandOpener opens URIs by running an external program with the URI as its last argument.
type CommandOpener struct {
	Commander command.Commander
	Prog      string
	Args      []string
	// Timeout bounds the run of Prog, defaultOpenTimeout when zero.
	Timeout time.Duration
}

const defaultOpenTimeout = 10 * time.Second

func (o *CommandOpener) Open(uri string) error {
	prog, err := o.Commander.LookPath(o.Prog)
	if err != nil {
		return errors.Wrapf(ErrNotInteractive, "%s: %v", o.Prog, err)
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = defaultOpenTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	args := append(append([]string(nil), o.Args...), uri)
	if err := o.Commander.Run(ctx, command.Info{Prog: prog, Args: args}); err != nil {
		return errors.Wrapf(err, "%s failed", o.Prog)
	}
	return nil
}

// DetectOpener picks an opener for the current host.
// openCommand overrides the platform default program; it may carry arguments.
func DetectOpener(commander command.Commander, openCommand string) URIOpener {
	return detectOpener(runtime.GOOS, os.Getenv, commander, openCommand)
}

func detectOpener(goos string, getenv func(string) string, commander command.Commander, openCommand string) URIOpener {
	var prog string
	var args []string
	if f := strings.Fields(openCommand); len(f) > 0 {
		prog, args = f[0], f[1:]
	} else {
		switch goos {
		case "darwin":
			prog = "open"
		case "windows":
			prog = "rundll32"
			args = []string{"url.dll,FileProtocolHandler"}
		default:
			// Without a display there is nobody to compose the mail.
			if getenv("DISPLAY") == "" && getenv("WAYLAND_DISPLAY") == "" {
				return NoOpener{}
			}
			prog = "xdg-open"
		}
	}
	if _, err := commander.LookPath(prog); err != nil {
		return NoOpener{}
	}
	return &CommandOpener{
		Commander: commander,
		Prog:      prog,
		Args:      args,
	}
}
