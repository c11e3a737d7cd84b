package geodata

import "context"

// Target 部署目标: 已部署文件所在的位置
//
// Two backends share this capability set: the local filesystem and a
// running container reachable only through the docker command channel.
// The reconciler drives either one with the same algorithm.
//
// Contract:
//   - Read returns ErrNotFound only on confirmed absence. Every other
//     failure is a *TransportError; it is never silently treated as
//     "file missing".
//   - Commit installs the bytes such that a reader observes either the
//     fully-old or the fully-new content, never a mixture.
//   - Ping fails with ErrChannelUnavailable (wrapped) when the backend is
//     unreachable as a whole; the run aborts before touching any artifact.
type Target interface {
	// Ping verifies the target is reachable and prepares it for a run
	// (directory creation, orphaned temp cleanup).
	Ping(ctx context.Context) error

	// Exists reports whether path currently holds a deployed artifact.
	Exists(ctx context.Context, path string) (bool, error)

	// Read returns the deployed bytes at path, or ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)

	// Commit atomically installs data at path.
	Commit(ctx context.Context, data []byte, path string) error
}

// Restarter 重启依赖该数据的服务
type Restarter interface {
	Restart(ctx context.Context) error
}

// RestarterFunc adapts a plain function to the Restarter interface.
type RestarterFunc func(ctx context.Context) error

func (f RestarterFunc) Restart(ctx context.Context) error { return f(ctx) }
