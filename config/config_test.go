package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
bind_address: 0.0.0.0
port: 9000
workers: 4
secret_key: 30a2a66e4ba6e7cf8d52b5b30eefd517
database: sqlite:///var/lib/hermes/hermes.db
domain: hermes.example.com
count_events: true
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, validYAML)

	cfg, err := Load(path, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.BindAddress)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "30a2a66e4ba6e7cf8d52b5b30eefd517", cfg.SecretKey)
	assert.Equal(t, "sqlite:///var/lib/hermes/hermes.db", cfg.DatabaseURI)
	assert.Equal(t, "hermes.example.com", cfg.Domain)
	assert.True(t, cfg.CountEvents)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr())

	// Fields absent from the file take defaults.
	assert.Equal(t, "console", cfg.LogFormat)
	assert.False(t, cfg.Debug)
	assert.Empty(t, cfg.SentryDSN)
}

func TestLoadPortOverride(t *testing.T) {
	path := writeConfig(t, validYAML)

	t.Run("explicit override wins over file value", func(t *testing.T) {
		cfg, err := Load(path, Overrides{Port: 9100, PortSet: true})
		require.NoError(t, err)
		assert.Equal(t, 9100, cfg.Port)
	})

	t.Run("absent override preserves file value", func(t *testing.T) {
		cfg, err := Load(path, Overrides{Port: 9100, PortSet: false})
		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.Port)
	})

	t.Run("override only touches the port", func(t *testing.T) {
		cfg, err := Load(path, Overrides{Port: 9100, PortSet: true})
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.Workers)
		assert.Equal(t, "0.0.0.0", cfg.BindAddress)
	})
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), Overrides{})
		require.ErrorIs(t, err, ErrLoad)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "port: [not, a, port\n")
		_, err := Load(path, Overrides{})
		require.ErrorIs(t, err, ErrLoad)
	})
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{
			name: "missing bind address",
			contents: `
port: 9000
secret_key: abc
database: hermes.db
`,
		},
		{
			name: "missing secret key",
			contents: `
bind_address: 0.0.0.0
port: 9000
database: hermes.db
`,
		},
		{
			name: "missing database uri",
			contents: `
bind_address: 0.0.0.0
port: 9000
secret_key: abc
`,
		},
		{
			name: "port out of range",
			contents: `
bind_address: 0.0.0.0
port: 70000
secret_key: abc
database: hermes.db
`,
		},
		{
			name: "zero workers",
			contents: `
bind_address: 0.0.0.0
port: 9000
workers: 0
secret_key: abc
database: hermes.db
`,
		},
		{
			name: "unknown log format",
			contents: `
bind_address: 0.0.0.0
port: 9000
secret_key: abc
database: hermes.db
log_format: xml
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.contents)
			_, err := Load(path, Overrides{})
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}
