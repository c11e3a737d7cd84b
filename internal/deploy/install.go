package deploy

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/winspan/xraysync/internal/docker"
	"github.com/winspan/xraysync/internal/geodata"
	"github.com/winspan/xraysync/pkg/logger"
	"github.com/winspan/xraysync/pkg/utils"
)

// InstallOptions 安装参数
type InstallOptions struct {
	Dir     string   // client directory: .env, template, compose file
	Servers []string // host:uuid specs from the command line
	DryRun  bool
	Yes     bool
	Force   bool // re-detect network settings even when .env is complete
}

// Installer 执行完整的客户端安装流程
type Installer struct {
	opts   InstallOptions
	runner *Runner
	cli    *docker.Client
	log    *logger.Logger

	Stdin  io.Reader
	Stdout io.Writer

	files utils.FileUtils
}

func NewInstaller(opts InstallOptions, cli *docker.Client, log *logger.Logger) *Installer {
	if log == nil {
		log = logger.Default("install")
	}
	return &Installer{
		opts:   opts,
		runner: NewRunner(opts.DryRun, log),
		cli:    cli,
		log:    log,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	}
}

func (i *Installer) envPath() string      { return filepath.Join(i.opts.Dir, ".env") }
func (i *Installer) templatePath() string { return filepath.Join(i.opts.Dir, "config_client.json.tmpl") }
func (i *Installer) configPath() string   { return filepath.Join(i.opts.Dir, "config_client.json") }
func (i *Installer) composePath() string  { return filepath.Join(i.opts.Dir, "docker-compose.yml") }
func (i *Installer) geoipDir() string     { return filepath.Join(i.opts.Dir, "geoip") }

// Run 执行安装
func (i *Installer) Run(ctx context.Context) error {
	if os.Geteuid() != 0 && !i.opts.DryRun {
		return fmt.Errorf("must be run as root (sudo)")
	}

	env, servers, err := i.resolveEnv(ctx)
	if err != nil {
		return err
	}

	if !i.opts.Yes {
		i.summarize(env, servers)
		if !Confirm(i.Stdin, i.Stdout, "Proceed with installation?") {
			i.log.Info("installation cancelled by user")
			return nil
		}
	}

	rendered, err := RenderClientConfig(i.templatePath(), i.configPath(), servers, i.opts.DryRun)
	if err != nil {
		return err
	}
	i.log.Info("rendered config_client.json (%d bytes)", len(rendered))

	if err := i.enableIPForward(ctx); err != nil {
		return err
	}
	i.firewallForwardAccept(ctx)
	if err := i.installDocker(ctx); err != nil {
		return err
	}
	i.bootstrapArtifacts(ctx)

	if !i.files.FileExists(i.composePath()) {
		i.log.Warn("docker-compose.yml not found, skipping docker compose up")
	} else if i.opts.DryRun {
		i.log.Info("(dry-run) docker compose up -d")
	} else if err := i.cli.ComposeUp(ctx, i.opts.Dir); err != nil {
		return err
	}

	i.log.Info("done. Test SOCKS5: curl http://ifconfig.me/ip --socks5 127.0.0.1:1080")
	return nil
}

// resolveEnv merges command-line servers with the existing .env, detecting
// network settings when they are missing or --force was given.
func (i *Installer) resolveEnv(ctx context.Context) (map[string]string, []ServerSpec, error) {
	env, err := LoadEnv(i.envPath())
	if err != nil {
		return nil, nil, err
	}

	netKeys := []string{"ARCH", "IFACE", "ADDR", "LAN"}
	haveNet := true
	for _, k := range netKeys {
		if _, ok := env[k]; !ok {
			haveNet = false
		}
	}

	if len(i.opts.Servers) > 0 {
		servers, err := ParseServers(i.opts.Servers)
		if err != nil {
			return nil, nil, err
		}
		if haveNet && !i.opts.Force {
			i.log.Info("updating servers, keeping existing network settings")
		} else {
			if err := i.detectNetwork(ctx, env); err != nil {
				return nil, nil, err
			}
		}
		env["SERVERS"] = ServersToEnvValue(servers)
		if err := i.writeEnv(env); err != nil {
			return nil, nil, err
		}
		return env, servers, nil
	}

	if v, ok := env["SERVERS"]; ok {
		servers := ServersFromEnvValue(v)
		if len(servers) == 0 {
			return nil, nil, fmt.Errorf("SERVERS in .env is empty; provide --server host:uuid")
		}
		if missing := MissingEnvKeys(env); len(missing) > 0 {
			return nil, nil, fmt.Errorf(".env missing keys %v; use --force with --server to regenerate", missing)
		}
		i.log.Info("using existing .env values")
		return env, servers, nil
	}

	return nil, nil, fmt.Errorf("no .env found and no --server argument provided")
}

func (i *Installer) detectNetwork(ctx context.Context, env map[string]string) error {
	iface, err := i.runner.DetectInterface(ctx)
	if err != nil {
		return err
	}
	addr, prefix, err := i.runner.DetectAddrPrefix(ctx, iface)
	if err != nil {
		return err
	}
	lan, err := CalcNetwork(addr, prefix)
	if err != nil {
		return err
	}
	arch, err := i.runner.DetectArch(ctx)
	if err != nil {
		return err
	}
	env["ARCH"] = arch
	env["IFACE"] = iface
	env["ADDR"] = addr
	env["LAN"] = lan
	return nil
}

func (i *Installer) writeEnv(env map[string]string) error {
	i.log.Info("writing %s", i.envPath())
	if i.opts.DryRun {
		return nil
	}
	return WriteEnv(i.envPath(), env)
}

func (i *Installer) summarize(env map[string]string, servers []ServerSpec) {
	fmt.Fprintln(i.Stdout, "Detected configuration:")
	fmt.Fprintf(i.Stdout, "  Architecture:  %s\n", env["ARCH"])
	fmt.Fprintf(i.Stdout, "  Interface:     %s\n", env["IFACE"])
	fmt.Fprintf(i.Stdout, "  IP Address:    %s\n", env["ADDR"])
	fmt.Fprintf(i.Stdout, "  Network:       %s\n", env["LAN"])
	fmt.Fprintf(i.Stdout, "  Servers (%d):\n", len(servers))
	for _, s := range servers {
		uuid := s.UUID
		if len(uuid) > 8 {
			uuid = uuid[:8] + "..."
		}
		fmt.Fprintf(i.Stdout, "    [%s] %s (UUID: %s)\n", s.Tag, s.Host, uuid)
	}
	if i.opts.DryRun {
		fmt.Fprintln(i.Stdout, "DRY-RUN mode: no changes will be applied")
	}
}

func (i *Installer) enableIPForward(ctx context.Context) error {
	const sysctlConf = "/etc/sysctl.d/99-xray.conf"
	i.log.Info("enable IPv4 forwarding")
	if i.opts.DryRun {
		return nil
	}
	if err := os.WriteFile(sysctlConf, []byte("net.ipv4.ip_forward=1\n"), 0o644); err != nil {
		return err
	}
	_, err := i.runner.Run(ctx, "sysctl", "-p", sysctlConf)
	return err
}

func (i *Installer) firewallForwardAccept(ctx context.Context) {
	if _, err := i.runner.Probe(ctx, "which", "iptables"); err != nil {
		return
	}
	i.runner.RunBestEffort(ctx, "iptables", "-P", "FORWARD", "ACCEPT")
	i.runner.RunBestEffort(ctx, "apt", "update")
	i.runner.RunBestEffort(ctx, "apt", "install", "-y", "iptables-persistent")
	i.runner.RunBestEffort(ctx, "netfilter-persistent", "save")
}

func (i *Installer) installDocker(ctx context.Context) error {
	osRelease, _ := os.ReadFile("/etc/os-release")
	distro := DetectDistro(string(osRelease))
	i.log.Info("detected distro: %s", distro)

	if distro == "raspbian" {
		if _, err := i.runner.Run(ctx, "apt", "update"); err != nil {
			return err
		}
		if _, err := i.runner.Run(ctx, "apt", "install", "-y", "ca-certificates", "curl", "gnupg"); err != nil {
			return err
		}
		if !i.opts.DryRun {
			if err := i.files.EnsureDir("/etc/apt/keyrings"); err != nil {
				return err
			}
		}
		if _, err := i.runner.Run(ctx, "curl", "-fsSL",
			"https://download.docker.com/linux/raspbian/gpg",
			"-o", "/etc/apt/keyrings/docker.asc"); err != nil {
			return err
		}
		if !i.opts.DryRun {
			os.Chmod("/etc/apt/keyrings/docker.asc", 0o644)
		}
		arch, _ := i.runner.DetectArch(ctx)
		codename := osReleaseValue(string(osRelease), "VERSION_CODENAME")
		if codename == "" {
			codename = "stable"
		}
		line := fmt.Sprintf(
			"deb [arch=%s signed-by=/etc/apt/keyrings/docker.asc] https://download.docker.com/linux/raspbian %s stable\n",
			arch, codename)
		if i.opts.DryRun {
			i.log.Info("(dry-run) %s", line)
		} else if err := os.WriteFile("/etc/apt/sources.list.d/docker.list", []byte(line), 0o644); err != nil {
			return err
		}
		if _, err := i.runner.Run(ctx, "apt", "update"); err != nil {
			return err
		}
		if _, err := i.runner.Run(ctx, "apt", "install", "-y",
			"docker-ce", "docker-ce-cli", "containerd.io",
			"docker-buildx-plugin", "docker-compose-plugin"); err != nil {
			return err
		}
	} else {
		if _, err := i.runner.Run(ctx, "apt", "update"); err != nil {
			return err
		}
		if _, err := i.runner.Run(ctx, "apt", "install", "-y", "docker.io", "docker-compose"); err != nil {
			return err
		}
	}

	i.runner.RunBestEffort(ctx, "systemctl", "enable", "--now", "docker")
	if user := sudoUser(); user != "" {
		i.runner.RunBestEffort(ctx, "usermod", "-aG", "docker", user)
	}
	return nil
}

// bootstrapArtifacts downloads the rule databases into the local geoip dir
// through the same engine the sync command uses. Failures are warnings;
// the first sync run will fill the gap.
func (i *Installer) bootstrapArtifacts(ctx context.Context) {
	i.log.Info("downloading geoip files...")
	if i.opts.DryRun {
		for _, a := range geodata.DefaultArtifacts() {
			i.log.Info("(dry-run) would download %s", a.Name)
		}
		return
	}

	target := geodata.NewLocalTarget(i.geoipDir())
	if err := target.Ping(ctx); err != nil {
		i.log.Warn("prepare %s: %v", i.geoipDir(), err)
		return
	}
	fetcher := geodata.NewFetcher(0)
	for _, a := range geodata.DefaultArtifacts() {
		data, err := fetcher.Fetch(ctx, a.URL)
		if err != nil {
			i.log.Warn("failed to download %s: %v", a.Name, err)
			continue
		}
		if err := target.Commit(ctx, data, a.Path); err != nil {
			i.log.Warn("failed to install %s: %v", a.Name, err)
			continue
		}
		i.log.Info("%s (MD5: %.16s...)", a.Name, geodata.Fingerprint(data))
	}
}

func osReleaseValue(osRelease, key string) string {
	for _, line := range splitLines(osRelease) {
		k, v, ok := cutKV(line)
		if ok && k == key {
			return v
		}
	}
	return ""
}

func sudoUser() string {
	if u := os.Getenv("SUDO_USER"); u != "" {
		return u
	}
	return os.Getenv("USER")
}
