// Package docker drives the docker CLI as a narrow command channel.
//
// 所有命令串行执行: the CLI endpoint is a shared resource, so the client
// holds a mutex across every invocation (concurrent artifact pipelines
// still fetch in parallel, they only queue here).
package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Result 单次 docker 命令的执行结果
type Result struct {
	Stdout []byte
	Stderr string
	Code   int
}

// Runner executes one docker invocation. A non-nil error means the command
// could not run at all (binary missing, context cancelled); a command that
// ran and exited non-zero reports through Result.Code instead.
type Runner func(ctx context.Context, args ...string) (Result, error)

func execRunner(ctx context.Context, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, "docker", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: strings.TrimSpace(stderr.String())}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.Code = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

// Client 串行化的 docker 命令通道
type Client struct {
	mu  sync.Mutex
	run Runner
}

// NewClient returns a client backed by the real docker binary.
func NewClient() *Client {
	return &Client{run: execRunner}
}

// NewClientWithRunner 用于测试: 注入假的命令执行器
func NewClientWithRunner(run Runner) *Client {
	return &Client{run: run}
}

func (c *Client) command(ctx context.Context, args ...string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run(ctx, args...)
}

// Available 检查 docker 命令是否存在
func (c *Client) Available() bool {
	_, err := exec.LookPath("docker")
	return err == nil
}

// ContainerExists reports whether a container with the given name exists,
// running or not.
func (c *Client) ContainerExists(ctx context.Context, name string) (bool, error) {
	res, err := c.command(ctx, "ps", "-a", "--format", "{{.Names}}")
	if err != nil {
		return false, err
	}
	if res.Code != 0 {
		return false, fmt.Errorf("docker ps: %s", res.Stderr)
	}
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		if strings.TrimSpace(line) == name {
			return true, nil
		}
	}
	return false, nil
}

// Exec runs a command inside the container and returns the raw result.
// Callers interpret exit codes themselves (e.g. `test -e` uses 1 for
// "absent", which is not a channel failure).
func (c *Client) Exec(ctx context.Context, container string, cmd ...string) (Result, error) {
	args := append([]string{"exec", container}, cmd...)
	return c.command(ctx, args...)
}

// CopyTo transfers a fully staged local file into the container.
func (c *Client) CopyTo(ctx context.Context, src, container, dst string) error {
	res, err := c.command(ctx, "cp", src, container+":"+dst)
	if err != nil {
		return err
	}
	if res.Code != 0 {
		return fmt.Errorf("docker cp: %s", res.Stderr)
	}
	return nil
}

// Restart 重启容器
func (c *Client) Restart(ctx context.Context, container string) error {
	res, err := c.command(ctx, "restart", container)
	if err != nil {
		return err
	}
	if res.Code != 0 {
		return fmt.Errorf("docker restart %s: %s", container, res.Stderr)
	}
	return nil
}

// RemoveContainer force-removes a container. Missing containers are not an
// error; the uninstaller calls this unconditionally.
func (c *Client) RemoveContainer(ctx context.Context, name string) error {
	res, err := c.command(ctx, "rm", "-f", name)
	if err != nil {
		return err
	}
	if res.Code != 0 && !strings.Contains(res.Stderr, "No such container") {
		return fmt.Errorf("docker rm %s: %s", name, res.Stderr)
	}
	return nil
}

// ContainerImageID returns the image id a container was created from, or
// the empty string when the container does not exist.
func (c *Client) ContainerImageID(ctx context.Context, name string) (string, error) {
	exists, err := c.ContainerExists(ctx, name)
	if err != nil || !exists {
		return "", err
	}
	res, err := c.command(ctx, "inspect", "--format", "{{.Image}}", name)
	if err != nil {
		return "", err
	}
	if res.Code != 0 {
		return "", fmt.Errorf("docker inspect %s: %s", name, res.Stderr)
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

// RemoveImage 删除镜像
func (c *Client) RemoveImage(ctx context.Context, imageID string) error {
	res, err := c.command(ctx, "rmi", imageID)
	if err != nil {
		return err
	}
	if res.Code != 0 {
		return fmt.Errorf("docker rmi %s: %s", imageID, res.Stderr)
	}
	return nil
}

// ComposeUp brings the compose project in dir up in detached mode.
func (c *Client) ComposeUp(ctx context.Context, dir string) error {
	res, err := c.command(ctx, "compose", "--project-directory", dir, "up", "-d")
	if err != nil {
		return err
	}
	if res.Code != 0 {
		return fmt.Errorf("docker compose up: %s", res.Stderr)
	}
	return nil
}
