// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"path/filepath"

	"cmdsh/internal/config"

	"github.com/spf13/cobra"
)

// configCmd represents the config command group
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage cmdsh configuration",
	Long: `Manage the cmdsh configuration file.

The configuration lives in a CUE file under the platform config
directory (e.g. ~/.config/cmdsh/config.cue on Linux) and controls the
module auto-loading preference, extra module roots, the export index
location, and UI settings.

Examples:
  cmdsh config init
  cmdsh config show
  cmdsh config path`,
}

// configInitCmd creates the default config file and module root
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default configuration",
	Long: `Create the config directory, a default config.cue (if none exists),
and the built-in module root '~/.cmdsh/modules'.

Examples:
  cmdsh config init`,
	RunE: runConfigInit,
}

// configShowCmd prints the effective configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Load the configuration (file values merged over defaults) and print
it in CUE form.

Examples:
  cmdsh config show`,
	RunE: runConfigShow,
}

// configPathCmd prints the config file location
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file location",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	if err := config.CreateDefaultConfig(); err != nil {
		return err
	}
	if err := config.EnsureModulesDir(); err != nil {
		return err
	}

	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	modsDir, err := config.ModulesDir()
	if err != nil {
		return err
	}

	fmt.Println(SuccessStyle.Render("✓ ") + "Configuration initialized")
	fmt.Printf("  %s %s\n", SubtitleStyle.Render("Config:"), CmdStyle.Render(filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)))
	fmt.Printf("  %s %s\n", SubtitleStyle.Render("Modules:"), CmdStyle.Render(modsDir))
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewProvider().Load(cmd.Context(), config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return err
	}
	fmt.Print(config.GenerateCUE(cfg))
	return nil
}

func runConfigPath(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		fmt.Println(cfgFile)
		return nil
	}
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Println(filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
	return nil
}
