package deploy

import (
	"fmt"
	"os"
	"strings"
)

// RequiredEnvKeys .env 必须包含的键, SERVERS 为 host:uuid 的 CSV
var RequiredEnvKeys = []string{"ARCH", "IFACE", "LAN", "ADDR", "SERVERS"}

// ServerSpec 一个 xray 出口服务器
type ServerSpec struct {
	Host string
	UUID string
	Tag  string
}

// ParseServers parses repeated host:uuid flags. The first server gets tag
// "proxy", later ones "proxyN".
func ParseServers(values []string) ([]ServerSpec, error) {
	var servers []ServerSpec
	for _, v := range values {
		host, uuid, ok := strings.Cut(v, ":")
		if !ok {
			return nil, fmt.Errorf("invalid --server format (expected host:uuid): %s", v)
		}
		host = strings.TrimSpace(host)
		uuid = strings.TrimSpace(uuid)
		if host == "" || uuid == "" {
			return nil, fmt.Errorf("invalid empty host/uuid in: %s", v)
		}
		servers = append(servers, ServerSpec{Host: host, UUID: uuid})
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("at least one --server required")
	}
	tagServers(servers)
	return servers, nil
}

func tagServers(servers []ServerSpec) {
	for i := range servers {
		if i == 0 {
			servers[i].Tag = "proxy"
		} else {
			servers[i].Tag = fmt.Sprintf("proxy%d", i+1)
		}
	}
}

// ServersToEnvValue 序列化为 .env 的 SERVERS 值
func ServersToEnvValue(servers []ServerSpec) string {
	parts := make([]string, 0, len(servers))
	for _, s := range servers {
		parts = append(parts, s.Host+":"+s.UUID)
	}
	return strings.Join(parts, ",")
}

// ServersFromEnvValue 从 .env 的 SERVERS 值解析, 跳过无效片段
func ServersFromEnvValue(value string) []ServerSpec {
	var servers []ServerSpec
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		host, uuid, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		servers = append(servers, ServerSpec{Host: host, UUID: uuid})
	}
	tagServers(servers)
	return servers
}

// LoadEnv 读取 .env 文件, 不存在时返回空表
func LoadEnv(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	env := map[string]string{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		env[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return env, nil
}

// WriteEnv 按固定键序写出 .env
func WriteEnv(path string, env map[string]string) error {
	var b strings.Builder
	for _, k := range RequiredEnvKeys {
		if v, ok := env[k]; ok {
			fmt.Fprintf(&b, "%s=%s\n", k, v)
		}
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// MissingEnvKeys 返回缺失的必需键
func MissingEnvKeys(env map[string]string) []string {
	var missing []string
	for _, k := range RequiredEnvKeys {
		if _, ok := env[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}
