package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// runCLI executes the root command with an empty config file and a private
// database directory, and returns stdout.
func runCLI(t *testing.T, dbDir string, args ...string) (string, error) {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), configFileName)
	if err := os.WriteFile(configPath, nil, 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath, "--db-dir", dbDir}, args...))

	err := cmd.Execute()
	return stdout.String(), err
}

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "rtps" {
			t.Errorf("expected use 'rtps', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions and version", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" || cmd.Long == "" {
			t.Error("expected non-empty descriptions")
		}
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has global flags", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		for _, name := range []string{"config", "db-dir"} {
			if cmd.PersistentFlags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := map[string]bool{
			"serve": false, "check": false, "hosts": false,
			"detections": false, "init": false, "version": false,
		}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("explicit missing file is an error", func(t *testing.T) {
		t.Parallel()

		_, err := runCLI(t, t.TempDir(), "--config", filepath.Join(t.TempDir(), "missing.yaml"), "hosts", "list")
		if err == nil {
			t.Fatal("expected error for missing config file")
		}
	})

	t.Run("file values and flags are applied", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), configFileName)
		content := "server:\n  listen: 127.0.0.1:9999\nengine:\n  historyLimit: 25\n"
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		dbDir := t.TempDir()

		cmd := NewRootCmd()
		if err := cmd.ParseFlags([]string{"--config", configPath, "--db-dir", dbDir, "-v"}); err != nil {
			t.Fatalf("ParseFlags() error = %v", err)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.ListenAddress != "127.0.0.1:9999" {
			t.Errorf("ListenAddress = %q", cfg.ListenAddress)
		}
		if cfg.HistoryLimit != 25 {
			t.Errorf("HistoryLimit = %d", cfg.HistoryLimit)
		}
		if cfg.DBDir != dbDir {
			t.Errorf("DBDir = %q, want %q", cfg.DBDir, dbDir)
		}
		if !cfg.Verbose {
			t.Error("expected verbose from flag")
		}
		if cfg.File == nil {
			t.Error("expected loaded file to be kept")
		}
	})
}
