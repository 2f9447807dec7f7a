package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - PM_CONFIG_PATH: config file location (default: ~/.config/pm.toml)
//   - PM_HOME: base directory for pm data (default: ~/.local/share/pm)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"key_dir":     filepath.Join(baseDir, "keys"),
	}, nil
}

// getConfigPath returns the config file path, checking PM_CONFIG_PATH env var first,
// then falling back to the default ~/.config/pm.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("PM_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "pm.toml"), nil
}

// getBaseDir returns the base directory for pm data, checking PM_HOME env var first,
// then falling back to the XDG default ~/.local/share/pm.
func getBaseDir() (string, error) {
	if path := os.Getenv("PM_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "pm"), nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}

// resolveRoot picks the archive root, preferring the override, and checks that
// it is an existing directory.
func resolveRoot(configured, override string) (string, error) {
	root := configured
	if override != "" {
		root = override
	}
	if root == "" {
		return "", fmt.Errorf("no archive root configured: set archive.root or pass --home")
	}

	root, err := ExpandHome(root)
	if err != nil {
		return "", err
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving archive root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("archive root not accessible: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("archive root is not a directory: %s", root)
	}
	return root, nil
}
