package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileUtils(t *testing.T) {
	var fu FileUtils
	dir := t.TempDir()

	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, fu.EnsureDir(nested))
	assert.True(t, fu.IsDir(nested))
	assert.False(t, fu.FileExists(filepath.Join(nested, "missing")))

	file := filepath.Join(nested, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.True(t, fu.FileExists(file))
	assert.False(t, fu.IsDir(file))
}

func TestNetworkUtils_IsValidIP(t *testing.T) {
	var nu NetworkUtils
	assert.True(t, nu.IsValidIP("192.168.1.10"))
	assert.True(t, nu.IsValidIP("::1"))
	assert.False(t, nu.IsValidIP("999.1.1.1"))
	assert.False(t, nu.IsValidIP("not-an-ip"))
}

func TestNetworkUtils_IsValidPort(t *testing.T) {
	var nu NetworkUtils
	assert.True(t, nu.IsValidPort(1))
	assert.True(t, nu.IsValidPort(65535))
	assert.False(t, nu.IsValidPort(0))
	assert.False(t, nu.IsValidPort(70000))
}

func TestNetworkUtils_IsValidDomain(t *testing.T) {
	var nu NetworkUtils
	assert.True(t, nu.IsValidDomain("www.google.com"))
	assert.True(t, nu.IsValidDomain("example.com"))
	assert.False(t, nu.IsValidDomain("!!bad!!"))
	assert.False(t, nu.IsValidDomain(""))
}
