package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	internalApp "github.com/haierkeys/post-revisions-service/internal/app"
	pkgapp "github.com/haierkeys/post-revisions-service/pkg/app"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityWarnings(t *testing.T) {
	cfg := &internalApp.AppConfig{}
	cfg.Security.AuthTokenKey = defaultAuthTokenPlaceholder
	assert.Len(t, securityWarnings(cfg), 2)

	cfg.Security.AuthTokenKey = "s3cret"
	cfg.Security.HookToken = "hook"
	assert.Empty(t, securityWarnings(cfg))
}

func TestResolveConfig_WritesDefaultWithRandomKey(t *testing.T) {
	t.Chdir(t.TempDir())
	old := configDefault
	t.Cleanup(func() { configDefault = old })
	configDefault = "security:\n  auth-token-key: " + defaultAuthTokenPlaceholder + "\n"

	runEnv := &runFlags{}
	require.NoError(t, resolveConfig(runEnv))
	assert.Equal(t, "config/config.yaml", runEnv.config)

	body, err := os.ReadFile(runEnv.config)
	require.NoError(t, err)
	assert.NotContains(t, string(body), defaultAuthTokenPlaceholder)

	// an existing file wins over writing a new one
	again := &runFlags{}
	require.NoError(t, resolveConfig(again))
	assert.Equal(t, "config/config.yaml", again.config)
	reread, _ := os.ReadFile(again.config)
	assert.Equal(t, body, reread)
}

func TestVersionCommand_JSON(t *testing.T) {
	t.Cleanup(func() { versionJSON = false })
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version", "--json"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	require.NoError(t, rootCmd.Execute())

	var info pkgapp.VersionInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, internalApp.BuildInfo(), info)
}
