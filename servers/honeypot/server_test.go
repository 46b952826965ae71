package honeypot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnishMulay/sandtrap/internal/config"
	"github.com/AnishMulay/sandtrap/internal/fs_loader"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Server.ListenAddr = "127.0.0.1:0"
	cfg.Server.HostKeyPath = filepath.Join(dir, "host_key")
	cfg.Log.Dir = filepath.Join(dir, "logs")
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestBuild(t *testing.T) {
	cfg := testConfig(t)
	srcDir := filepath.Join(t.TempDir(), "seed")
	writeFile(t, filepath.Join(srcDir, "readme.md"), "# research data\n")
	writeFile(t, filepath.Join(srcDir, "notes", "species.txt"), "lynx\n")

	layout := filepath.Join(t.TempDir(), "layout.txt")
	writeFile(t, layout, "-- etc\n\t- passwd\n-- home\n\t-- admin\n")

	cfg.Filesystem.SourceDir = srcDir
	cfg.Filesystem.LayoutFile = layout

	r, err := Build(Options{Config: cfg})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	srv := r.(*honeypotServer)
	defer srv.close()

	if _, err := os.Stat(cfg.Server.HostKeyPath); err != nil {
		t.Errorf("host key not written: %v", err)
	}
	if srv.sup == nil {
		t.Fatal("supervisor not built")
	}
	if srv.health != nil {
		t.Error("health service built without an address")
	}

	master, err := srv.buildFilesystem()
	if err != nil {
		t.Fatalf("buildFilesystem() error = %v", err)
	}
	for _, path := range []string{"/etc/passwd", "/home/admin", "/readme.md", "/notes/species.txt"} {
		if _, err := master.Resolve(path); err != nil {
			t.Errorf("Resolve(%q) error = %v", path, err)
		}
	}
	if got := master.Cat([]string{"/notes/species.txt"}); got != "lynx" {
		t.Errorf("Cat() = %q, want %q", got, "lynx")
	}
	if got := master.CwdPath(); got != "/" {
		t.Errorf("CwdPath() = %q, want /", got)
	}
}

func TestBuildWithDiskFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Filesystem.DiskFile = filepath.Join(t.TempDir(), "blocks.img")
	cfg.Filesystem.BlockSize = 64
	cfg.Server.HealthAddr = "127.0.0.1:0"

	r, err := Build(Options{Config: cfg})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	srv := r.(*honeypotServer)
	defer srv.close()

	if srv.disk == nil {
		t.Error("disk block service not opened")
	}
	if srv.health == nil {
		t.Error("health service not built")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr error
	}{
		{
			name:    "invalid config",
			mutate:  func(cfg *config.Config) { cfg.Server.FatalScope = "process" },
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "missing seed directory",
			mutate:  func(cfg *config.Config) { cfg.Filesystem.SourceDir = filepath.Join(cfg.Log.Dir, "nope") },
			wantErr: fs_loader.ErrLoadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			_, err := Build(Options{Config: cfg})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Build() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
