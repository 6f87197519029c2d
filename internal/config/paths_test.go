package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestDefaultPaths(t *testing.T) {
	paths := DefaultPaths()

	if paths.ConfigDir == "" {
		t.Error("ConfigDir is empty")
	}
	if paths.StateDir == "" {
		t.Error("StateDir is empty")
	}
	if !filepath.IsAbs(paths.ConfigDir) {
		t.Errorf("ConfigDir should be absolute: %s", paths.ConfigDir)
	}
	if !filepath.IsAbs(paths.StateDir) {
		t.Errorf("StateDir should be absolute: %s", paths.StateDir)
	}
}

func TestDefaultPaths_XDG(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG test not applicable on Windows")
	}

	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	t.Setenv("XDG_STATE_HOME", "/custom/state")

	paths := DefaultPaths()

	if paths.ConfigDir != "/custom/config/termpick" {
		t.Errorf("ConfigDir should respect XDG_CONFIG_HOME: %s", paths.ConfigDir)
	}
	if paths.StateDir != "/custom/state/termpick" {
		t.Errorf("StateDir should respect XDG_STATE_HOME: %s", paths.StateDir)
	}
	if paths.LogFile() != "/custom/state/termpick/termpick.log" {
		t.Errorf("LogFile = %s", paths.LogFile())
	}
}

func TestDefaultPaths_HomeFallback(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG test not applicable on Windows")
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")

	paths := DefaultPaths()

	if paths.ConfigDir != filepath.Join(home, ".config", "termpick") {
		t.Errorf("ConfigDir = %s", paths.ConfigDir)
	}
	if paths.StateDir != filepath.Join(home, ".local", "state", "termpick") {
		t.Errorf("StateDir = %s", paths.StateDir)
	}
}

func TestPaths_ConfigFile(t *testing.T) {
	paths := DefaultPaths()
	configFile := paths.ConfigFile()

	if !strings.HasSuffix(configFile, "config.yaml") {
		t.Errorf("ConfigFile should end with config.yaml: %s", configFile)
	}
	if !strings.Contains(configFile, "termpick") {
		t.Errorf("ConfigFile should contain 'termpick': %s", configFile)
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	paths := &Paths{
		ConfigDir: filepath.Join(root, "config", "termpick"),
		StateDir:  filepath.Join(root, "state", "termpick"),
	}

	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories error: %v", err)
	}
	for _, dir := range []string{paths.ConfigDir, paths.StateDir} {
		if !dirExists(dir) {
			t.Errorf("Directory not created: %s", dir)
		}
	}
	// Idempotent.
	if err := paths.EnsureDirectories(); err != nil {
		t.Errorf("Second EnsureDirectories error: %v", err)
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
