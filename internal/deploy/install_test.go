package deploy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInstaller(t *testing.T, opts InstallOptions) *Installer {
	t.Helper()
	inst := NewInstaller(opts, nil, nil)
	inst.runner.execFn = fakeExec(map[string]string{
		"ip route get 8.8.8.8": "8.8.8.8 via 192.168.1.1 dev eth0 src 192.168.1.10",
		"ip -o -4 addr show dev eth0 scope global primary": "2: eth0 inet 192.168.1.10/24 scope global eth0",
		"dpkg --print-architecture":                        "arm64",
	})
	return inst
}

func TestResolveEnv_DetectsAndWrites(t *testing.T) {
	dir := t.TempDir()
	inst := newTestInstaller(t, InstallOptions{
		Dir:     dir,
		Servers: []string{"vps.example.com:uuid-1"},
	})

	env, servers, err := inst.resolveEnv(context.Background())
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "proxy", servers[0].Tag)
	assert.Equal(t, "arm64", env["ARCH"])
	assert.Equal(t, "eth0", env["IFACE"])
	assert.Equal(t, "192.168.1.10", env["ADDR"])
	assert.Equal(t, "192.168.1.0/24", env["LAN"])

	// .env written so the next install can skip detection.
	loaded, err := LoadEnv(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "vps.example.com:uuid-1", loaded["SERVERS"])
}

func TestResolveEnv_KeepsNetworkWhenComplete(t *testing.T) {
	dir := t.TempDir()
	existing := "ARCH=armhf\nIFACE=wlan0\nLAN=10.0.0.0/24\nADDR=10.0.0.5\nSERVERS=old.example.com:u0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(existing), 0o644))

	inst := NewInstaller(InstallOptions{
		Dir:     dir,
		Servers: []string{"new.example.com:u1"},
	}, nil, nil)
	inst.runner.execFn = fakeExec(nil) // any detection attempt fails the test

	env, servers, err := inst.resolveEnv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "armhf", env["ARCH"], "existing network settings survive a server update")
	assert.Equal(t, "new.example.com", servers[0].Host)
	assert.Equal(t, "new.example.com:u1", env["SERVERS"])
}

func TestResolveEnv_ForceRedetects(t *testing.T) {
	dir := t.TempDir()
	existing := "ARCH=armhf\nIFACE=wlan0\nLAN=10.0.0.0/24\nADDR=10.0.0.5\nSERVERS=old.example.com:u0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(existing), 0o644))

	inst := newTestInstaller(t, InstallOptions{
		Dir:     dir,
		Servers: []string{"new.example.com:u1"},
		Force:   true,
	})

	env, _, err := inst.resolveEnv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "arm64", env["ARCH"])
	assert.Equal(t, "eth0", env["IFACE"])
}

func TestResolveEnv_ReusesCompleteEnvWithoutFlags(t *testing.T) {
	dir := t.TempDir()
	existing := "ARCH=arm64\nIFACE=eth0\nLAN=192.168.1.0/24\nADDR=192.168.1.10\nSERVERS=a.example.com:u1,b.example.com:u2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(existing), 0o644))

	inst := NewInstaller(InstallOptions{Dir: dir}, nil, nil)
	inst.runner.execFn = fakeExec(nil)

	_, servers, err := inst.resolveEnv(context.Background())
	require.NoError(t, err)
	require.Len(t, servers, 2)
	assert.Equal(t, "proxy2", servers[1].Tag)
}

func TestResolveEnv_IncompleteEnvNeedsForce(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("SERVERS=a.example.com:u1\n"), 0o644))

	inst := NewInstaller(InstallOptions{Dir: dir}, nil, nil)
	inst.runner.execFn = fakeExec(nil)

	_, _, err := inst.resolveEnv(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing keys")
}

func TestResolveEnv_NothingToGoOn(t *testing.T) {
	inst := NewInstaller(InstallOptions{Dir: t.TempDir()}, nil, nil)
	inst.runner.execFn = fakeExec(nil)

	_, _, err := inst.resolveEnv(context.Background())
	require.Error(t, err)
}
