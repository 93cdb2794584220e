package onboard

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ryanreadbooks/tokkichat/config"
	"github.com/ryanreadbooks/tokkichat/replay"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	baseURL   string
	transport string
	agentId   string
)

var OnboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize tokkichat configuration.",
	Long:  "Initialize tokkichat configuration and copy the example replay scripts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		err := runOnboard(args)
		if err != nil {
			return fmt.Errorf("failed to run onboard: %w", err)
		}

		return nil
	},
}

func init() {
	OnboardCmd.Flags().StringVar(&baseURL, "base-url", "", "Base url of the agent server.")
	OnboardCmd.Flags().StringVar(&transport, "transport", "", "Transport to stream events over, sse or websocket.")
	OnboardCmd.Flags().StringVar(&agentId, "agent", "", "Agent to talk to when none is given.")
}

func confirmOverwrite(what, path string) bool {
	fmt.Printf("%s already exists at %s, do you want to overwrite it? (y/n): ", what, path)
	var overwrite string
	fmt.Scanln(&overwrite)
	return overwrite == "y" || overwrite == "Y"
}

func bootstrapConfig(configPath string) error {
	// check file exists, ask user if they want to overwrite
	if _, err := os.Stat(configPath); !os.IsNotExist(err) && !confirmOverwrite("Config file", configPath) {
		return nil
	}

	cfg := config.BootstrapConfig()
	if baseURL != "" {
		cfg.Server.BaseURL = baseURL
	}
	if transport != "" {
		cfg.Transport.Type = transport
	}
	if agentId != "" {
		cfg.DefaultAgent = agentId
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	output, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configPath, output, 0644)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Configuration written to %s\n", configPath)

	return nil
}

func bootstrapScripts(workspaceDir string) error {
	targetScriptPath := filepath.Join(workspaceDir, "scripts")
	if err := os.MkdirAll(targetScriptPath, 0755); err != nil {
		return fmt.Errorf("failed to create scripts directory at %s: %w", targetScriptPath, err)
	}

	scriptFiles, err := fs.ReadDir(replay.ScriptsFs, "scripts")
	if err != nil {
		return fmt.Errorf("failed to read script files: %w", err)
	}

	for _, scriptFile := range scriptFiles {
		if scriptFile.IsDir() {
			continue
		}

		target := filepath.Join(targetScriptPath, scriptFile.Name())
		if _, err := os.Stat(target); !os.IsNotExist(err) && !confirmOverwrite("Script", target) {
			continue
		}

		content, err := replay.ScriptsFs.ReadFile("scripts/" + scriptFile.Name())
		if err != nil {
			return fmt.Errorf("failed to read script file %s: %w", scriptFile.Name(), err)
		}

		err = os.WriteFile(target, content, 0644)
		if err != nil {
			return fmt.Errorf("failed to write script file %s: %w", target, err)
		}
	}

	fmt.Printf("Replay scripts written to %s\n", targetScriptPath)

	return nil
}

func runOnboard(_ []string) error {
	configPath, err := config.GetWorkspaceConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	workspaceDir := filepath.Dir(configPath)
	if _, err := os.Stat(workspaceDir); os.IsNotExist(err) {
		err = os.MkdirAll(workspaceDir, 0755)
		if err != nil {
			return fmt.Errorf("failed to create config directory at %s: %w", workspaceDir, err)
		}
	}

	if err := bootstrapConfig(configPath); err != nil {
		return fmt.Errorf("failed to bootstrap config: %w", err)
	}

	if err := bootstrapScripts(workspaceDir); err != nil {
		return fmt.Errorf("failed to bootstrap scripts: %w", err)
	}

	return nil
}
