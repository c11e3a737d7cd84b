package geodata

import (
	"errors"
	"fmt"
)

// ErrNotFound 目标路径上确认不存在该文件 (不是错误, 视为"无当前指纹")
var ErrNotFound = errors.New("artifact not found at target")

// ErrChannelUnavailable 命令通道或目标环境不可达, 整个运行中止
var ErrChannelUnavailable = errors.New("deployment target unreachable")

// TransportError is a target access failure that is neither confirmed
// absence nor total channel loss. It fails the current artifact only;
// other artifacts keep going. Never coerced into ErrNotFound.
type TransportError struct {
	Op   string // "exists", "read", "commit"
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FetchError 远程下载失败 (网络/HTTP 状态/读取失败)
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
