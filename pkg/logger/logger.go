package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level 日志级别
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

// String 返回日志级别的字符串表示
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel 从配置字符串解析日志级别, 未知值回退到 INFO
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// Config 日志配置
type Config struct {
	Level   Level
	Format  string // "text" 或 "json"
	Output  string // "stdout", "stderr" 或文件路径
	MaxSize int    // 单个日志文件上限 (MB), 超过后轮转
	Prefix  string
}

// Logger 日志记录器
type Logger struct {
	mu      sync.Mutex
	level   Level
	output  io.Writer
	format  string
	maxSize int
	file    *os.File
	prefix  string
}

// NewLogger 创建新的日志记录器
func NewLogger(config *Config) (*Logger, error) {
	l := &Logger{
		level:   config.Level,
		format:  config.Format,
		maxSize: config.MaxSize,
		prefix:  config.Prefix,
	}
	if err := l.setOutput(config.Output); err != nil {
		return nil, err
	}
	return l, nil
}

// Default 返回一个输出到 stderr 的文本日志记录器
func Default(prefix string) *Logger {
	return &Logger{level: INFO, format: "text", output: os.Stderr, prefix: prefix}
}

func (l *Logger) setOutput(output string) error {
	switch output {
	case "", "stdout":
		l.output = os.Stdout
	case "stderr":
		l.output = os.Stderr
	default:
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return fmt.Errorf("创建日志目录失败: %v", err)
		}
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("打开日志文件失败: %v", err)
		}
		l.file = file
		l.output = file
	}
	return nil
}

// rotateIfNeeded 写入前检查文件大小, 超限则轮转 (调用方持有锁)
func (l *Logger) rotateIfNeeded() {
	if l.file == nil || l.maxSize <= 0 {
		return
	}
	info, err := l.file.Stat()
	if err != nil || info.Size() <= int64(l.maxSize)*1024*1024 {
		return
	}

	name := l.file.Name()
	l.file.Close()
	os.Rename(name, name+"."+time.Now().Format("2006-01-02-15-04-05"))
	if file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		l.file = file
		l.output = file
	}
}

func (l *Logger) formatMessage(level Level, message string) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	if l.format == "json" {
		return fmt.Sprintf(`{"timestamp":"%s","level":"%s","prefix":"%s","message":"%s"}`,
			timestamp, level.String(), l.prefix, message)
	}
	return fmt.Sprintf("[%s] %s [%s] %s", timestamp, level.String(), l.prefix, message)
}

func (l *Logger) log(level Level, message string) {
	if level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rotateIfNeeded()
	if l.output != nil {
		fmt.Fprintln(l.output, l.formatMessage(level, message))
	}
}

// Debug 记录调试日志
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, fmt.Sprintf(format, args...))
}

// Info 记录信息日志
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, fmt.Sprintf(format, args...))
}

// Warn 记录警告日志
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, fmt.Sprintf(format, args...))
}

// Error 记录错误日志
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, fmt.Sprintf(format, args...))
}

// Fatal 记录致命错误日志并退出
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(FATAL, fmt.Sprintf(format, args...))
	os.Exit(1)
}

// SetLevel 设置日志级别
func (l *Logger) SetLevel(level Level) {
	l.level = level
}

// Close 关闭日志记录器
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
