package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"sewernet/internal/domain"
	"sewernet/internal/logging"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Database.Path == "" {
		t.Error("Database.Path should not be empty")
	}
	if cfg.Watch.Debounce.Duration() != 500*time.Millisecond {
		t.Errorf("Watch.Debounce = %s, want 500ms", cfg.Watch.Debounce.Duration())
	}
	if cfg.Profiles.Pump.Shape != string(domain.ProfileRound) {
		t.Errorf("Profiles.Pump.Shape = %s, want round", cfg.Profiles.Pump.Shape)
	}
	if cfg.Profiles.Weir.Width <= 0 {
		t.Error("Profiles.Weir.Width should be positive")
	}
}

func TestDefaultProfilesUseGeneratedNames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Profiles.Pump.Width = 0.6

	defs := cfg.DefaultProfiles()
	if len(defs) != 2 {
		t.Fatalf("DefaultProfiles() returned %d definitions, want 2", len(defs))
	}
	if defs[0].Name != domain.DefaultPumpProfileName || defs[0].Width != 0.6 {
		t.Errorf("pump profile = %+v", defs[0])
	}
	if defs[1].Name != domain.DefaultWeirProfileName {
		t.Errorf("weir profile name = %s", defs[1].Name)
	}
}

func TestLoggerConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.JSON = true

	lc := cfg.LoggerConfig("sewerctl")
	if lc.Level != logging.LevelDebug || !lc.JSON || lc.Service != "sewerctl" {
		t.Errorf("LoggerConfig() = %+v", lc)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Database.Path = "/var/lib/sewernet/net.db"
	cfg.Watch.Debounce = Duration(2 * time.Second)
	cfg.Profiles.Weir = ProfileConfig{Shape: "rectangular", Width: 1.5, Height: 0.5}

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, path, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %s, want %s", path, configPath)
	}
	if loaded.Database.Path != "/var/lib/sewernet/net.db" {
		t.Errorf("Database.Path = %s", loaded.Database.Path)
	}
	if loaded.Watch.Debounce.Duration() != 2*time.Second {
		t.Errorf("Watch.Debounce = %s, want 2s", loaded.Watch.Debounce.Duration())
	}
	if loaded.Profiles.Weir.Width != 1.5 {
		t.Errorf("Profiles.Weir.Width = %v, want 1.5", loaded.Profiles.Weir.Width)
	}
}

func TestLoadFromPathAppliesDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("logging:\n  level: warn\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %s, want warn", cfg.Logging.Level)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %s, want :8080", cfg.Server.Addr)
	}
}

func TestLoadFromPathInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("watch:\n  debounce: soon\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := LoadFromPath(configPath); err == nil {
		t.Error("LoadFromPath() should fail on an invalid duration")
	}
}

func TestFindConfigPathFromEnv(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(configPath, []byte("version: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigPath, configPath)

	if got := FindConfigPath(); got != configPath {
		t.Errorf("FindConfigPath() = %s, want %s", got, configPath)
	}
}
