package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/bulletverse/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after the config file, .env file and
BULLETVERSE_* environment overrides are applied, as YAML.

Examples:
  bulletverse config
  bulletverse config --config ./configs/bulletverse.yaml
  bulletverse config > ~/.bulletverse/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}
