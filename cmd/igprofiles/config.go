package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igprofiles/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igprofiles configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IGPROFILES_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with defaults",
	Long: `Write the default configuration to a file.

The file is created as '.igprofiles.yaml' in the home directory unless a
different path is given with the --config flag.`,
	RunE: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Long: `Show the configuration after merging all sources. Session
credentials are masked.`,
	RunE: runConfigShow,
}

// configPathCmd represents the config path command
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Long: `Print the config file that would be loaded: the --config flag when
given, otherwise the first file found in the standard locations. When no
file exists, the default location is printed instead.`,
	RunE: runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, ".igprofiles.yaml")
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	fmt.Printf("Configuration file created: %s\n", path)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, exists, err := resolveConfigPath()
	if err != nil {
		return err
	}

	fmt.Println(path)
	if !exists {
		fmt.Fprintf(cmd.ErrOrStderr(), "no config file found, 'igprofiles config init' will create it\n")
	}
	return nil
}

// resolveConfigPath returns the config file that would be loaded and
// whether it exists on disk.
func resolveConfigPath() (string, bool, error) {
	if configFile != "" {
		_, err := os.Stat(configFile)
		return configFile, err == nil, nil
	}

	if found := config.FindConfigFile(); found != "" {
		return found, true, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".igprofiles.yaml"), false, nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Instagram.SessionID != "" {
		cfg.Instagram.SessionID = maskSecret(cfg.Instagram.SessionID)
	}
	if cfg.Instagram.CSRFToken != "" {
		cfg.Instagram.CSRFToken = maskSecret(cfg.Instagram.CSRFToken)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling configuration: %w", err)
	}

	fmt.Print(string(data))
	return nil
}
