// Package command runs external programs behind an interface tests can replace.
package command

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// Info describes one invocation of a program.
type Info struct {
	Prog string
	Args []string
	// Env replaces the environment when not empty.
	Env []string
}

type Commander interface {
	// LookPath reports the full path of prog, or an error if it cannot be found.
	LookPath(prog string) (string, error)
	// Run starts the program and waits for it to exit.
	// The program is killed when ctx is done.
	Run(ctx context.Context, info Info) error
}

// Error is returned by Run when the program could not be run or exited
// unsuccessfully.
type Error struct {
	Err    error
	Stderr string
}

func (e *Error) Error() string {
	if e.Stderr == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Stderr
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ExecCommander runs programs with os/exec.
var ExecCommander Commander = execCommander{}

type execCommander struct{}

func (execCommander) LookPath(prog string) (string, error) {
	return exec.LookPath(prog)
}

func (execCommander) Run(ctx context.Context, info Info) error {
	cmd := exec.CommandContext(ctx, info.Prog, info.Args...)
	if len(info.Env) > 0 {
		cmd.Env = info.Env
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &Error{Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}
	return nil
}
