package deploy

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/winspan/xraysync/internal/docker"
	"github.com/winspan/xraysync/pkg/logger"
	"github.com/winspan/xraysync/pkg/utils"
)

// DefaultContainers 安装流程创建的容器
var DefaultContainers = []string{"xray_server", "xray_tun2socks"}

// UninstallOptions 卸载参数
type UninstallOptions struct {
	Dir        string
	Containers []string
	RemoveEnv  bool // .env is kept by default so a reinstall can reuse it
	DryRun     bool
	Yes        bool
}

// Uninstaller 移除容器、镜像和生成的配置
type Uninstaller struct {
	opts UninstallOptions
	cli  *docker.Client
	log  *logger.Logger

	Stdin  io.Reader
	Stdout io.Writer

	files utils.FileUtils
}

func NewUninstaller(opts UninstallOptions, cli *docker.Client, log *logger.Logger) *Uninstaller {
	if log == nil {
		log = logger.Default("uninstall")
	}
	if len(opts.Containers) == 0 {
		opts.Containers = DefaultContainers
	}
	return &Uninstaller{
		opts:   opts,
		cli:    cli,
		log:    log,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	}
}

func (u *Uninstaller) configPath() string { return filepath.Join(u.opts.Dir, "config_client.json") }
func (u *Uninstaller) envPath() string    { return filepath.Join(u.opts.Dir, ".env") }

// Run 执行卸载
func (u *Uninstaller) Run(ctx context.Context) error {
	if os.Geteuid() != 0 && !u.opts.DryRun {
		return fmt.Errorf("must be run as root (sudo)")
	}

	dockerOK := u.cli.Available()
	if !dockerOK {
		u.log.Warn("docker not found, only files will be removed")
	}

	u.summarize()
	if !u.opts.Yes {
		if !Confirm(u.Stdin, u.Stdout, "Proceed with uninstall?") {
			u.log.Info("aborted by user")
			return nil
		}
	}

	// Record the tun2socks image before its container disappears.
	var tun2socksImage string
	if dockerOK {
		if id, err := u.cli.ContainerImageID(ctx, "xray_tun2socks"); err == nil {
			tun2socksImage = id
		}
	}

	if dockerOK {
		for _, name := range u.opts.Containers {
			u.removeContainer(ctx, name)
		}
	}

	// Never rmi a suspiciously short id.
	if tun2socksImage != "" && len(tun2socksImage) > 8 {
		if u.opts.DryRun {
			u.log.Info("(dry-run) would remove image %s", tun2socksImage)
		} else if err := u.cli.RemoveImage(ctx, tun2socksImage); err != nil {
			u.log.Warn("%v", err)
		}
	}

	u.removeFile(u.configPath())
	if u.opts.RemoveEnv {
		u.removeFile(u.envPath())
	}

	u.log.Info("uninstall complete")
	return nil
}

func (u *Uninstaller) summarize() {
	u.log.Info("targets:")
	for _, c := range u.opts.Containers {
		u.log.Info("  - container: %s", c)
	}
	u.log.Info("  - file: %s (if exists)", u.configPath())
	if u.opts.RemoveEnv {
		u.log.Info("  - file: %s (will remove)", u.envPath())
	}
	u.log.Info("  - image: tun2socks build image (if found)")
	if u.opts.DryRun {
		u.log.Info("DRY-RUN: no changes will be applied")
	}
}

func (u *Uninstaller) removeContainer(ctx context.Context, name string) {
	exists, err := u.cli.ContainerExists(ctx, name)
	if err != nil {
		u.log.Warn("check container %s: %v", name, err)
		return
	}
	if !exists {
		u.log.Info("- container %s not found (skip)", name)
		return
	}
	if u.opts.DryRun {
		u.log.Info("(dry-run) would remove container %s", name)
		return
	}
	if err := u.cli.RemoveContainer(ctx, name); err != nil {
		u.log.Warn("%v", err)
	}
}

func (u *Uninstaller) removeFile(path string) {
	if !u.files.FileExists(path) {
		u.log.Info("%s not present (skip)", path)
		return
	}
	if u.opts.DryRun {
		u.log.Info("(dry-run) would delete %s", path)
		return
	}
	if err := os.Remove(path); err != nil {
		u.log.Warn("failed to remove %s: %v", path, err)
		return
	}
	u.log.Info("removed %s", path)
}
