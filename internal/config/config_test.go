package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoot_ResolvesRelative(t *testing.T) {
	root, err := NewRoot(".")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(root.Dir))
}

func TestRoot_Paths(t *testing.T) {
	root := Root{Dir: "/tmp/drivemd-conf"}
	assert.Equal(t, "/tmp/drivemd-conf/credentials.json", root.CredentialsPath())
	assert.Equal(t, "/tmp/drivemd-conf/token.json", root.TokenPath())
}

func TestInstallCredentials(t *testing.T) {
	src := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"installed":{}}`), 0o600))

	root := Root{Dir: filepath.Join(t.TempDir(), "conf")}
	assert.False(t, root.HasCredentials())

	require.NoError(t, root.InstallCredentials(src))
	assert.True(t, root.HasCredentials())

	data, err := os.ReadFile(root.CredentialsPath())
	require.NoError(t, err)
	assert.Equal(t, `{"installed":{}}`, string(data))
}

func TestInstallCredentials_MissingSource(t *testing.T) {
	root := Root{Dir: t.TempDir()}
	assert.Error(t, root.InstallCredentials(filepath.Join(t.TempDir(), "nope.json")))
}

func TestClearToken(t *testing.T) {
	root := Root{Dir: t.TempDir()}

	// nothing cached is not an error
	assert.NoError(t, root.ClearToken())

	require.NoError(t, os.WriteFile(root.TokenPath(), []byte("{}"), 0o600))
	require.NoError(t, root.ClearToken())
	assert.NoFileExists(t, root.TokenPath())
}
