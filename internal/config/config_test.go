package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.DefaultProfile = "work"
	cfg.Store.Driver = DriverBolt
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
	if loaded.Store.Driver != DriverBolt {
		t.Errorf("Store.Driver = %q, want %q", loaded.Store.Driver, DriverBolt)
	}
	if loaded.Identity.TokenTTL.Duration != 12*time.Hour {
		t.Errorf("TokenTTL = %s, want 12h", loaded.Identity.TokenTTL)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[console]\npage_size = 25\n\n[identity]\ntoken_ttl = \"30m\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Console.PageSize != 25 {
		t.Errorf("PageSize = %d, want 25", cfg.Console.PageSize)
	}
	if cfg.Console.MemberWriteMode != MemberWriteAppend {
		t.Errorf("MemberWriteMode = %q, want default %q", cfg.Console.MemberWriteMode, MemberWriteAppend)
	}
	if cfg.Identity.TokenTTL.Duration != 30*time.Minute {
		t.Errorf("TokenTTL = %s, want 30m", cfg.Identity.TokenTTL)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CHATADMIN_DEFAULT_PROFILE", "ops")
	t.Setenv("CHATADMIN_STORE_DRIVER", "bolt")
	t.Setenv("CHATADMIN_CONSOLE_MEMBER_WRITE_MODE", "overwrite")

	cfg, err := LoadWithEnv(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("LoadWithEnv() error = %v", err)
	}
	if cfg.DefaultProfile != "ops" {
		t.Errorf("DefaultProfile = %q, want ops", cfg.DefaultProfile)
	}
	if cfg.Store.Driver != DriverBolt {
		t.Errorf("Store.Driver = %q, want bolt", cfg.Store.Driver)
	}
	if cfg.Console.MemberWriteMode != MemberWriteOverwrite {
		t.Errorf("MemberWriteMode = %q, want overwrite", cfg.Console.MemberWriteMode)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"redis", func(c *Config) { c.Store.Driver = DriverRedis }, false},
		{"redis without addr", func(c *Config) { c.Store.Driver = DriverRedis; c.Store.RedisAddr = "" }, true},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, true},
		{"unknown write mode", func(c *Config) { c.Console.MemberWriteMode = "merge" }, true},
		{"zero page size", func(c *Config) { c.Console.PageSize = 0 }, true},
		{"zero ttl", func(c *Config) { c.Identity.TokenTTL = Duration{} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
