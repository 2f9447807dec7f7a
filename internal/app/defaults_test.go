package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("PM_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("PM_HOME", "/custom/pm")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if defaults["config_path"] != "/custom/config.toml" {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], "/custom/config.toml")
		}
		if defaults["base_dir"] != "/custom/pm" {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], "/custom/pm")
		}
		if defaults["log_dir"] != "/custom/pm/log" {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], "/custom/pm/log")
		}
		if defaults["key_dir"] != "/custom/pm/keys" {
			t.Errorf("key_dir = %q, want %q", defaults["key_dir"], "/custom/pm/keys")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("PM_CONFIG_PATH", "")
		t.Setenv("PM_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		wantConfig := filepath.Join(homeDir, ".config", "pm.toml")
		if defaults["config_path"] != wantConfig {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], wantConfig)
		}

		wantBase := filepath.Join(homeDir, ".local", "share", "pm")
		if defaults["base_dir"] != wantBase {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], wantBase)
		}
	})
}

func TestExpandHome(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in, want string
	}{
		{"~", homeDir},
		{"~/Pictures", filepath.Join(homeDir, "Pictures")},
		{"/abs/path", "/abs/path"},
		{"rel/path", "rel/path"},
		{"~other/x", "~other/x"},
	}
	for _, tt := range tests {
		got, err := ExpandHome(tt.in)
		if err != nil {
			t.Fatalf("ExpandHome(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		configured string
		override   string
		want       string
		wantErr    bool
	}{
		{name: "configured", configured: dir, want: dir},
		{name: "override wins", configured: "/nonexistent", override: dir, want: dir},
		{name: "none", wantErr: true},
		{name: "missing", configured: filepath.Join(dir, "missing"), wantErr: true},
		{name: "not a directory", configured: file, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveRoot(tt.configured, tt.override)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveRoot() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("resolveRoot() = %q, want %q", got, tt.want)
			}
		})
	}
}
