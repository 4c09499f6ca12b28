package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetToken_None(t *testing.T) {
	t.Setenv(EnvToken, "")
	m, err := NewCredentialManager(filepath.Join(t.TempDir(), ".zbdeploy.ini"))
	require.NoError(t, err)

	_, source, err := m.GetToken()
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Equal(t, SourceNone, source)
	assert.False(t, m.HasToken())
}

func TestGetToken_FromEnv(t *testing.T) {
	t.Setenv(EnvToken, " env-token ")
	m, err := NewCredentialManager(filepath.Join(t.TempDir(), ".zbdeploy.ini"))
	require.NoError(t, err)

	token, source, err := m.GetToken()
	require.NoError(t, err)
	assert.Equal(t, "env-token", token)
	assert.Equal(t, SourceEnv, source)
}

func TestSetToken_PersistsAndKeepsOtherSections(t *testing.T) {
	t.Setenv(EnvToken, "env-token")
	path := filepath.Join(t.TempDir(), "nested", ".zbdeploy.ini")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = debug\n"), 0644))

	m, err := NewCredentialManager(path)
	require.NoError(t, err)
	require.NoError(t, m.SetToken("file-token"))

	reloaded, err := NewCredentialManager(path)
	require.NoError(t, err)
	token, source, err := reloaded.GetToken()
	require.NoError(t, err)
	assert.Equal(t, "file-token", token)
	assert.Equal(t, SourceFile, source)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "level")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSetToken_Empty(t *testing.T) {
	m, err := NewCredentialManager(filepath.Join(t.TempDir(), ".zbdeploy.ini"))
	require.NoError(t, err)
	assert.Error(t, m.SetToken("   "))
}

func TestRemoveToken(t *testing.T) {
	t.Setenv(EnvToken, "")
	path := filepath.Join(t.TempDir(), ".zbdeploy.ini")
	m, err := NewCredentialManager(path)
	require.NoError(t, err)
	require.NoError(t, m.SetToken("file-token"))
	require.NoError(t, m.RemoveToken())

	reloaded, err := NewCredentialManager(path)
	require.NoError(t, err)
	assert.False(t, reloaded.HasToken())
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "****", MaskToken("short"))
	assert.Equal(t, "abcd****wxyz", MaskToken("abcdefghijklmnopqrstuvwxyz"))
}
