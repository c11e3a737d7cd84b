package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/winspan/xraysync/pkg/utils"
)

// Artifact 一个需要同步的远程数据文件
type Artifact struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Path string `yaml:"path"`
}

// Config 应用配置结构
type Config struct {
	// 基础配置
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Debug       bool   `yaml:"debug"`
	} `yaml:"app"`

	// 容器配置
	Container struct {
		Name    string `yaml:"name"`
		DataDir string `yaml:"data_dir"` // artifact directory inside the container
	} `yaml:"container"`

	// 同步配置
	Sync struct {
		Enabled   bool       `yaml:"enabled"`
		Interval  string     `yaml:"interval"`
		Timeout   string     `yaml:"timeout"`
		Mode      string     `yaml:"mode"` // "local" 或 "container"
		Dir       string     `yaml:"dir"`  // local 模式的数据目录
		Artifacts []Artifact `yaml:"artifacts"`
	} `yaml:"sync"`

	// 管理接口配置
	Admin struct {
		Listen string `yaml:"listen"`
		Token  string `yaml:"token"`
	} `yaml:"admin"`

	// 监控配置
	Monitoring struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"monitoring"`

	// 数据库配置
	Database struct {
		SQLiteFile string `yaml:"sqlite_file"`
		KeepRuns   int    `yaml:"keep_runs"`
	} `yaml:"database"`

	// 日志配置
	Logging struct {
		Level   string `yaml:"level"`
		Format  string `yaml:"format"`
		Output  string `yaml:"output"`
		MaxSize int    `yaml:"max_size"`
	} `yaml:"logging"`

	// 重启后就绪探测
	Health struct {
		Enabled     bool   `yaml:"enabled"`
		DNSAddr     string `yaml:"dns_addr"`
		ProbeDomain string `yaml:"probe_domain"`
		Timeout     string `yaml:"timeout"`
	} `yaml:"health"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = getDefaultConfigPath()
	}

	var config Config
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %v", err)
		}
	case os.IsNotExist(err):
		// 无配置文件时使用默认值运行
	default:
		return nil, fmt.Errorf("读取配置文件失败: %v", err)
	}

	setDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %v", err)
	}
	return &config, nil
}

// getDefaultConfigPath 获取默认配置文件路径
func getDefaultConfigPath() string {
	paths := []string{
		"configs/config.yaml",
		"config.yaml",
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return "configs/config.yaml"
}

// setDefaults 设置默认配置值
func setDefaults(config *Config) {
	if config.App.Name == "" {
		config.App.Name = "xraysync"
	}
	if config.App.Environment == "" {
		config.App.Environment = "production"
	}

	if config.Container.Name == "" {
		config.Container.Name = "xray_server"
	}
	if config.Container.DataDir == "" {
		config.Container.DataDir = "/usr/local/share/xray"
	}

	if config.Sync.Interval == "" {
		config.Sync.Interval = "12h"
	}
	if config.Sync.Timeout == "" {
		config.Sync.Timeout = "15s"
	}
	if config.Sync.Mode == "" {
		config.Sync.Mode = "local"
	}
	if config.Sync.Dir == "" {
		config.Sync.Dir = "geoip"
	}
	if len(config.Sync.Artifacts) == 0 {
		config.Sync.Artifacts = []Artifact{
			{
				Name: "geoip.dat",
				URL:  "https://github.com/Loyalsoldier/v2ray-rules-dat/raw/release/geoip.dat",
				Path: "geoip.dat",
			},
			{
				Name: "geosite.dat",
				URL:  "https://github.com/Loyalsoldier/v2ray-rules-dat/raw/release/geosite.dat",
				Path: "geosite.dat",
			},
		}
	}
	for i := range config.Sync.Artifacts {
		if config.Sync.Artifacts[i].Path == "" {
			config.Sync.Artifacts[i].Path = config.Sync.Artifacts[i].Name
		}
	}

	if config.Admin.Listen == "" {
		config.Admin.Listen = ":8090"
	}

	if config.Monitoring.Path == "" {
		config.Monitoring.Path = "/metrics"
	}

	if config.Database.SQLiteFile == "" {
		config.Database.SQLiteFile = "data/xraysync.db"
	}
	if config.Database.KeepRuns == 0 {
		config.Database.KeepRuns = 500
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
	if config.Logging.Output == "" {
		config.Logging.Output = "stdout"
	}
	if config.Logging.MaxSize == 0 {
		config.Logging.MaxSize = 50
	}

	if config.Health.DNSAddr == "" {
		config.Health.DNSAddr = "127.0.0.1:5353"
	}
	if config.Health.ProbeDomain == "" {
		config.Health.ProbeDomain = "www.google.com"
	}
	if config.Health.Timeout == "" {
		config.Health.Timeout = "30s"
	}
}

// validateConfig 验证配置
func validateConfig(config *Config) error {
	if config.Container.Name == "" {
		return fmt.Errorf("容器名称不能为空")
	}
	if config.Sync.Mode != "local" && config.Sync.Mode != "container" {
		return fmt.Errorf("无效的同步模式: %s", config.Sync.Mode)
	}
	if _, err := time.ParseDuration(config.Sync.Interval); err != nil {
		return fmt.Errorf("无效的同步间隔: %s", config.Sync.Interval)
	}
	if _, err := time.ParseDuration(config.Sync.Timeout); err != nil {
		return fmt.Errorf("无效的同步超时: %s", config.Sync.Timeout)
	}
	for _, a := range config.Sync.Artifacts {
		if a.Name == "" || a.URL == "" {
			return fmt.Errorf("同步文件需要 name 和 url: %+v", a)
		}
		if !strings.HasPrefix(a.URL, "http://") && !strings.HasPrefix(a.URL, "https://") {
			return fmt.Errorf("无效的下载地址: %s", a.URL)
		}
	}
	if !isValidLogLevel(config.Logging.Level) {
		return fmt.Errorf("无效的日志级别: %s", config.Logging.Level)
	}
	if config.Health.Enabled {
		if _, err := time.ParseDuration(config.Health.Timeout); err != nil {
			return fmt.Errorf("无效的探测超时: %s", config.Health.Timeout)
		}
		var nu utils.NetworkUtils
		if !nu.IsValidDomain(config.Health.ProbeDomain) {
			return fmt.Errorf("无效的探测域名: %s", config.Health.ProbeDomain)
		}
	}
	return nil
}

// isValidLogLevel 验证日志级别
func isValidLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error", "fatal":
		return true
	}
	return false
}

// GetSyncInterval 返回解析后的同步间隔
func (c *Config) GetSyncInterval() time.Duration {
	d, err := time.ParseDuration(c.Sync.Interval)
	if err != nil {
		return 12 * time.Hour
	}
	return d
}

// GetSyncTimeout 返回解析后的下载超时
func (c *Config) GetSyncTimeout() time.Duration {
	d, err := time.ParseDuration(c.Sync.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// GetHealthTimeout 返回解析后的就绪探测超时
func (c *Config) GetHealthTimeout() time.Duration {
	d, err := time.ParseDuration(c.Health.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// IsDebug 检查是否启用调试模式
func (c *Config) IsDebug() bool {
	return c.App.Debug
}
