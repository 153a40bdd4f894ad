package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultServerConfig(t *testing.T) {
	defCfg := DefaultServerConfig()
	t.Logf("%+v", defCfg)
	if err := Validate(defCfg); err != nil {
		t.Fatalf("error validated: %v\n", err)
	}
	if len(defCfg.GetGeneratorOptions()) != 0 {
		t.Fatalf("expected no generator options by default")
	}
}

func TestReadServerConfig(t *testing.T) {
	cfg, err := ReadServerConfig("./test.toml")
	if err != nil {
		t.Fatal(err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("error validated: %v\n", err)
	}
	if cfg.Node != 0xDEADBEEF {
		t.Fatalf("expected: %x, actual: %x", 0xDEADBEEF, cfg.Node)
	}
	if cfg.MaxBatch != 256 || !cfg.SpinYield || cfg.MetricsAddr != "127.0.0.1:7411" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.GetGeneratorOptions()) != 1 {
		t.Fatalf("expected spin yield option")
	}
	cfg.MakeLogger()
	cfg.GetLogger().Info("success")
}

func TestReadServerConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.toml")
	if err := os.WriteFile(path, []byte("node = 7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := ReadServerConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Node != 7 || cfg.ServiceAddr != defaultServiceAddr || cfg.MaxBatch != defaultMaxBatch {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestReadServerConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unknown.toml")
	if err := os.WriteFile(path, []byte("node = 7\nnodeID = 8\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadServerConfig(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.ServiceAddr = "localhost"
	if err := Validate(cfg); !errors.Is(err, ErrInvalidServiceAddr) {
		t.Fatalf("expected ErrInvalidServiceAddr, actual: %v", err)
	}

	cfg = DefaultServerConfig()
	cfg.MetricsAddr = "9090"
	if err := Validate(cfg); !errors.Is(err, ErrInvalidMetricsAddr) {
		t.Fatalf("expected ErrInvalidMetricsAddr, actual: %v", err)
	}

	cfg = DefaultServerConfig()
	cfg.MaxBatch = 0
	if err := Validate(cfg); !errors.Is(err, ErrInvalidMaxBatch) {
		t.Fatalf("expected ErrInvalidMaxBatch, actual: %v", err)
	}

	cfg = DefaultServerConfig()
	cfg.LogLevel = "verbose"
	if err := Validate(cfg); !errors.Is(err, ErrInvalidLogLevel) {
		t.Fatalf("expected ErrInvalidLogLevel, actual: %v", err)
	}
}
