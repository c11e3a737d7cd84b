package geodata

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/winspan/xraysync/internal/docker"
)

// ContainerTarget 容器内文件系统后端, 通过 docker 命令通道访问
//
// The container's own filesystem is opaque; the only capabilities are
// `test -e` (existence), `cat` (read) and `docker cp` (write). The copy
// primitive's atomicity belongs to docker; this target's job is to never
// hand it anything but a fully staged file.
type ContainerTarget struct {
	cli       *docker.Client
	Container string
	Dir       string // artifact directory inside the container
}

func NewContainerTarget(cli *docker.Client, container, dir string) *ContainerTarget {
	return &ContainerTarget{cli: cli, Container: container, Dir: dir}
}

func (t *ContainerTarget) resolve(p string) string {
	if path.IsAbs(p) {
		return p
	}
	return path.Join(t.Dir, p)
}

// Ping verifies the channel end to end: docker present, container known.
func (t *ContainerTarget) Ping(ctx context.Context) error {
	if !t.cli.Available() {
		return fmt.Errorf("%w: docker command not found in PATH", ErrChannelUnavailable)
	}
	exists, err := t.cli.ContainerExists(ctx, t.Container)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}
	if !exists {
		return fmt.Errorf("%w: container %s not found", ErrChannelUnavailable, t.Container)
	}
	return nil
}

// Exists distinguishes definitive absence (test exits 1) from a channel
// failure (any other non-zero exit, e.g. container not running).
func (t *ContainerTarget) Exists(ctx context.Context, p string) (bool, error) {
	res, err := t.cli.Exec(ctx, t.Container, "test", "-e", t.resolve(p))
	if err != nil {
		return false, &TransportError{Op: "exists", Path: p, Err: err}
	}
	switch res.Code {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, &TransportError{Op: "exists", Path: p, Err: fmt.Errorf("exit %d: %s", res.Code, res.Stderr)}
	}
}

// Read streams the deployed bytes out through `cat`. Absence is checked
// first so that a failing cat is always a transport error, never coerced
// into "file missing".
func (t *ContainerTarget) Read(ctx context.Context, p string) ([]byte, error) {
	exists, err := t.Exists(ctx, p)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	res, err := t.cli.Exec(ctx, t.Container, "cat", t.resolve(p))
	if err != nil {
		return nil, &TransportError{Op: "read", Path: p, Err: err}
	}
	if res.Code != 0 {
		return nil, &TransportError{Op: "read", Path: p, Err: fmt.Errorf("exit %d: %s", res.Code, res.Stderr)}
	}
	return res.Stdout, nil
}

// Commit stages data in a private local temp file and transfers it as a
// unit with docker cp.
func (t *ContainerTarget) Commit(ctx context.Context, data []byte, p string) error {
	tmp, err := os.CreateTemp("", "xraysync-*"+tempSuffix)
	if err != nil {
		return &TransportError{Op: "commit", Path: p, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &TransportError{Op: "commit", Path: p, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &TransportError{Op: "commit", Path: p, Err: err}
	}
	if err := t.cli.CopyTo(ctx, filepath.Clean(tmpName), t.Container, t.resolve(p)); err != nil {
		return &TransportError{Op: "commit", Path: p, Err: err}
	}
	return nil
}

// ContainerRestarter restarts the dependent service through the same
// serialized channel the target uses.
type ContainerRestarter struct {
	cli       *docker.Client
	Container string
}

func NewContainerRestarter(cli *docker.Client, container string) *ContainerRestarter {
	return &ContainerRestarter{cli: cli, Container: container}
}

func (r *ContainerRestarter) Restart(ctx context.Context) error {
	return r.cli.Restart(ctx, r.Container)
}
