// Package config loads the honeypot's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	FatalScopeGlobal  = "global"
	FatalScopeSession = "session"
)

type ServerConfig struct {
	ListenAddr     string        `yaml:"listen_addr"`
	MaxConnections int           `yaml:"max_connections"`
	MaxBufferSize  int           `yaml:"max_buffer_size"`
	ChannelTimeout time.Duration `yaml:"channel_timeout"`
	ShellTimeout   time.Duration `yaml:"shell_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	HostKeyPath    string        `yaml:"host_key_path"`
	ServerVersion  string        `yaml:"server_version"`
	Banner         string        `yaml:"banner"`
	Distro         string        `yaml:"distro"`
	// FatalScope decides what an unexpected session fault takes down: the
	// whole accept loop ("global") or just that session ("session").
	FatalScope string `yaml:"fatal_scope"`
	HealthAddr string `yaml:"health_addr"`
}

type FilesystemConfig struct {
	SourceDir   string `yaml:"source_dir"`
	// LayoutFile describes extra empty files and directories, one per line,
	// indented with tabs.
	LayoutFile  string `yaml:"layout_file"`
	DiskFile    string `yaml:"disk_file"`
	TotalInodes int    `yaml:"total_inodes"`
	TotalBlocks int    `yaml:"total_blocks"`
	BlockSize   int    `yaml:"block_size"`
	Owner       string `yaml:"owner"`
	Group       string `yaml:"group"`
	Path        string `yaml:"path"`
	Home        string `yaml:"home"`
	Hostname    string `yaml:"hostname"`
	Lang        string `yaml:"lang"`
}

type LogConfig struct {
	Dir        string `yaml:"dir"`
	Level      string `yaml:"level"`
	Stdout     bool   `yaml:"stdout"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type Config struct {
	NodeID     string           `yaml:"node_id"`
	Server     ServerConfig     `yaml:"server"`
	Filesystem FilesystemConfig `yaml:"filesystem"`
	Log        LogConfig        `yaml:"log"`
}

const defaultBanner = "Welcome to the research data center for the Ukraine Conservation Biology Team!\r\n" +
	"Ласкаво просимо до каталогу даних дослідницької групи з охорони біорізноманіття!\r\n"

func Default() *Config {
	return &Config{
		NodeID: "sandtrap",
		Server: ServerConfig{
			ListenAddr:     "0.0.0.0:2222",
			MaxConnections: 20,
			MaxBufferSize:  4096,
			ChannelTimeout: 20 * time.Second,
			ShellTimeout:   10 * time.Second,
			PollInterval:   time.Second,
			HostKeyPath:    "./data/host_key",
			ServerVersion:  "SSH-2.0-OpenSSH_7.4p1 Debian-10+deb9u7",
			Banner:         defaultBanner,
			Distro:         "debian",
			FatalScope:     FatalScopeGlobal,
		},
		Filesystem: FilesystemConfig{
			TotalInodes: 200,
			TotalBlocks: 1000,
			BlockSize:   4096,
			Owner:       "root",
			Group:       "root",
			Path:        "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin",
			Home:        "/home/admin",
			Hostname:    "debian",
			Lang:        "en_US.UTF-8",
		},
		Log: LogConfig{
			Dir:        "./data/logs",
			Level:      "INFO",
			MaxSizeMB:  50,
			MaxBackups: 5,
		},
	}
}

// LoadConfig reads the YAML file at path on top of Default. A missing file is
// created with the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal default config: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Server.ListenAddr == "":
		return fmt.Errorf("%w: server.listen_addr is empty", ErrInvalidConfig)
	case c.Server.MaxConnections <= 0:
		return fmt.Errorf("%w: server.max_connections must be positive", ErrInvalidConfig)
	case c.Server.MaxBufferSize <= 0:
		return fmt.Errorf("%w: server.max_buffer_size must be positive", ErrInvalidConfig)
	case c.Server.ChannelTimeout <= 0 || c.Server.ShellTimeout <= 0 || c.Server.PollInterval <= 0:
		return fmt.Errorf("%w: server timeouts must be positive", ErrInvalidConfig)
	case c.Server.FatalScope != FatalScopeGlobal && c.Server.FatalScope != FatalScopeSession:
		return fmt.Errorf("%w: server.fatal_scope must be %q or %q", ErrInvalidConfig, FatalScopeGlobal, FatalScopeSession)
	case c.Filesystem.TotalInodes <= 0 || c.Filesystem.TotalBlocks <= 0 || c.Filesystem.BlockSize <= 0:
		return fmt.Errorf("%w: filesystem sizes must be positive", ErrInvalidConfig)
	case c.Log.Dir == "":
		return fmt.Errorf("%w: log.dir is empty", ErrInvalidConfig)
	}
	return nil
}
