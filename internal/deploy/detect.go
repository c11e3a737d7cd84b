package deploy

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

var (
	reDev  = regexp.MustCompile(` dev (\S+)`)
	reCIDR = regexp.MustCompile(`(\d+\.\d+\.\d+\.\d+)/(\d+)`)
)

// DetectInterface finds the interface carrying the default route.
func (r *Runner) DetectInterface(ctx context.Context) (string, error) {
	if out, err := r.Probe(ctx, "ip", "route", "get", "8.8.8.8"); err == nil {
		if m := reDev.FindStringSubmatch(out); m != nil {
			return m[1], nil
		}
	}
	out, err := r.Probe(ctx, "ip", "route", "show", "default", "0.0.0.0/0")
	if err != nil {
		return "", fmt.Errorf("detect interface: %w", err)
	}
	m := reDev.FindStringSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("detect interface: no default route device in %q", out)
	}
	return m[1], nil
}

// DetectAddrPrefix returns the primary global IPv4 address and prefix of
// the interface.
func (r *Runner) DetectAddrPrefix(ctx context.Context, iface string) (string, int, error) {
	out, err := r.Probe(ctx, "ip", "-o", "-4", "addr", "show", "dev", iface, "scope", "global", "primary")
	if err != nil {
		return "", 0, fmt.Errorf("detect address: %w", err)
	}
	m := reCIDR.FindStringSubmatch(out)
	if m == nil {
		return "", 0, fmt.Errorf("detect address: no IPv4 for %s", iface)
	}
	prefix, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, err
	}
	return m[1], prefix, nil
}

// CalcNetwork derives the LAN CIDR from an address and prefix length.
func CalcNetwork(addr string, prefix int) (string, error) {
	_, network, err := net.ParseCIDR(fmt.Sprintf("%s/%d", addr, prefix))
	if err != nil {
		return "", err
	}
	return network.String(), nil
}

// DetectArch 通过 dpkg 获取系统架构
func (r *Runner) DetectArch(ctx context.Context) (string, error) {
	return r.Probe(ctx, "dpkg", "--print-architecture")
}

// DetectDistro 读取 /etc/os-release 的 ID 字段
func DetectDistro(osRelease string) string {
	return osReleaseValue(osRelease, "ID")
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

func cutKV(line string) (key, value string, ok bool) {
	k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return "", "", false
	}
	v = strings.Trim(v, `"`)
	return k, v, true
}
