package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReturnsDefaultsWhenFileAbsent(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "./Snippet.txt", cfg.Output.ScriptPath)
	assert.Equal(t, ":8088", cfg.Server.ListenAddr)
}

func TestLoadOverlaysYAMLAndExpandsEnv(t *testing.T) {
	t.Setenv("SCRIPTGEND_VERSION", "3.2.1")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
templates:
  product_version: "${SCRIPTGEND_VERSION}"
output:
  script_path: "/tmp/out.txt"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "3.2.1", cfg.Templates.ProductVersion)
	assert.Equal(t, "/tmp/out.txt", cfg.Output.ScriptPath)
	assert.Equal(t, ":8088", cfg.Server.ListenAddr) // default retained
}

func TestValidateRejectsEmptyScriptPathOrListenAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.ScriptPath = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.ListenAddr = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	assert.NoError(t, cfg.Validate())
}
