package viper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverSection struct {
	Addr        string `mapstructure:"addr"`
	MaxInflight int    `mapstructure:"max_inflight"`
}

type testConfig struct {
	Server serverSection `mapstructure:"server"`
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	c := New("")
	require.NoError(t, c.LoadFile(writeFile(t, "c.yaml", "server:\n  addr: \":9000\"\n  max_inflight: 8\n")))

	var cfg testConfig
	require.NoError(t, c.Unmarshal(&cfg))
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 8, cfg.Server.MaxInflight)
}

func TestLoadTOMLAndKey(t *testing.T) {
	c := New("")
	require.NoError(t, c.LoadFile(writeFile(t, "c.toml", "[server]\naddr = \":9100\"\n")))

	var s serverSection
	require.NoError(t, c.UnmarshalKey("server", &s))
	assert.Equal(t, ":9100", s.Addr)
}

func TestEnvOverridesDefault(t *testing.T) {
	t.Setenv("MPTEST_SERVER_ADDR", ":7000")

	c := New("MPTEST")
	c.SetDefault("server.addr", ":8080")
	c.SetDefault("server.max_inflight", 64)
	require.NoError(t, c.LoadFile(""))

	var cfg testConfig
	require.NoError(t, c.Unmarshal(&cfg))
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 64, cfg.Server.MaxInflight)
	assert.Equal(t, ":7000", c.Get("server.addr"))
}

func TestLoadMissingFile(t *testing.T) {
	c := New("")
	assert.Error(t, c.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}
