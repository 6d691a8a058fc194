package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/appgate/internal/config"
	"github.com/eliteGoblin/focusd/appgate/internal/infra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file (an existing file is kept)",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// dataDir returns --data-dir, or the exec mode default.
func dataDir() string {
	if dataDirFlag != "" {
		return dataDirFlag
	}
	return infra.DetectExecMode().DataDir
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	dir := dataDir()
	path := resolveConfigPath(dir)
	if err := config.WriteDefault(path, dir); err != nil {
		return err
	}
	fmt.Printf("Config: %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	dir := dataDir()
	cfg, err := config.Load(resolveConfigPath(dir), dir)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}
