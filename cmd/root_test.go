package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hermes/config"
)

func TestVersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"--version"})

	// Version must print and exit before configuration is touched; no
	// config file exists at the default path in the test environment.
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "hermes version "+Version+"\n", out.String())
}

func TestMissingConfigFile(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--config", "/nonexistent/hermes.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrLoad)
}
