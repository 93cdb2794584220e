package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	workspaceDir     string
	workspaceDirOnce sync.Once
)

const (
	workspaceDirName = ".tokkichat"
	configFileName   = "config.yaml"
)

func GetWorkspaceDir() string {
	workspaceDirOnce.Do(func() {
		home, err := os.UserHomeDir()
		if err != nil {
			panic(err)
		}
		workspaceDir = filepath.Join(home, workspaceDirName)
	})

	return workspaceDir
}

func GetWorkspaceConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, workspaceDirName, configFileName), nil
}

// ResolvePath makes p absolute against the workspace dir.
func ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GetWorkspaceDir(), p)
}
