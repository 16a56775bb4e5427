package command_test

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/command"
)

func TestExecCommander_Run(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	sh, err := command.ExecCommander.LookPath("sh")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, command.ExecCommander.Run(ctx, command.Info{Prog: sh, Args: []string{"-c", "exit 0"}}))

	err = command.ExecCommander.Run(ctx, command.Info{Prog: sh, Args: []string{"-c", "echo no mail client >&2; exit 3"}})
	require.Error(t, err)
	assert.Equal(t, "exit status 3: no mail client", err.Error())
	var exitErr *exec.ExitError
	assert.True(t, errors.As(err, &exitErr))
}

func TestExecCommander_LookPathMissing(t *testing.T) {
	_, err := command.ExecCommander.LookPath("hydrolake-no-such-program")
	assert.Error(t, err)
}
