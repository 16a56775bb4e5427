// Package commandtest records programs instead of running them.
package commandtest

import (
	"context"
	"errors"
	"sync"

	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/command"
)

// Commander implements command.Commander.
type Commander struct {
	// Paths maps program names to the path LookPath returns.
	// Programs missing from Paths are not found.
	Paths map[string]string
	// Result, when set, decides the error of each run.
	Result func(command.Info) error

	mu   sync.Mutex
	runs []command.Info
}

func (c *Commander) LookPath(prog string) (string, error) {
	if p, ok := c.Paths[prog]; ok {
		return p, nil
	}
	return "", errors.New("executable file not found in $PATH")
}

func (c *Commander) Run(ctx context.Context, info command.Info) error {
	c.mu.Lock()
	c.runs = append(c.runs, info)
	c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.Result != nil {
		return c.Result(info)
	}
	return nil
}

// Runs returns the programs run so far in order.
func (c *Commander) Runs() []command.Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]command.Info(nil), c.runs...)
}
