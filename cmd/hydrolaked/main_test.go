package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/server"
)

func runApp(t *testing.T, wait func(context.Context), args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	if wait == nil {
		wait = func(context.Context) { t.Fatal("server should not start") }
	}
	err := newApp(&stdout, &stderr, wait).Run(append([]string{"hydrolaked"}, args...))
	return stdout.String(), err
}

func TestVersion(t *testing.T) {
	out, err := runApp(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "HydroLake version unknown")
}

func TestUnknownCommand(t *testing.T) {
	_, err := runApp(t, nil, "reticulate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hydrolaked help")
	ec, ok := err.(cli.ExitCoder)
	require.True(t, ok)
	assert.Equal(t, 2, ec.ExitCode())
}

func TestConfig(t *testing.T) {
	t.Setenv("HYDROLAKE_CONFIG_PATH", "")
	out, err := runApp(t, nil, "config", "-config", os.DevNull, "-hostname", "gauge-07")
	require.NoError(t, err)

	c := server.NewConfig()
	_, err = toml.Decode(out, c)
	require.NoError(t, err)
	assert.Equal(t, "gauge-07", c.Hostname)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hydrolake.conf")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir = "`+dir+`"

[http]
bind-address = "127.0.0.1:0"

[storage]
backend = "memory"
`), 0600))

	waited := false
	_, err := runApp(t, func(context.Context) { waited = true },
		"run", "-config", path, "-env-file", "", "-log-file", filepath.Join(dir, "hydrolake.log"))
	require.NoError(t, err)
	assert.True(t, waited)
	assert.FileExists(t, filepath.Join(dir, "hydrolake.log"))
}

func TestRun_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hydrolake.conf")
	require.NoError(t, os.WriteFile(path, []byte("hostname = "), 0600))
	_, err := runApp(t, nil, "-config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
