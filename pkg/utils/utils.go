package utils

import (
	"net"
	"os"
	"regexp"
)

// FileUtils 文件工具函数
type FileUtils struct{}

// EnsureDir 确保目录存在
func (f *FileUtils) EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists 检查文件是否存在
func (f *FileUtils) FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// IsDir 检查路径是否为目录
func (f *FileUtils) IsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// NetworkUtils 网络工具函数
type NetworkUtils struct{}

// IsValidIP 检查是否为有效的 IP 地址
func (n *NetworkUtils) IsValidIP(ip string) bool {
	return net.ParseIP(ip) != nil
}

// IsValidPort 检查是否为有效的端口号
func (n *NetworkUtils) IsValidPort(port int) bool {
	return port > 0 && port <= 65535
}

var domainPattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?)*$`)

// IsValidDomain 检查是否为有效的域名
func (n *NetworkUtils) IsValidDomain(domain string) bool {
	return domainPattern.MatchString(domain)
}
