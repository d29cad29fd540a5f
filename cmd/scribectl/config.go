package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xraph/scribe/extension"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration",
	Long: `Load the file given by --config on top of the defaults and print the result.
Without --config the defaults are printed. Secrets are redacted.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.GeminiAPIKey != "" {
		cfg.GeminiAPIKey = "redacted"
	}
	return render(cmd.OutOrStdout(), cfg)
}

// loadConfig decodes path over DefaultConfig, so fields missing from the
// file keep their defaults. The file may nest the settings under a
// "scribe" key or hold them at the top level.
func loadConfig(path string) (extension.Config, error) {
	cfg := extension.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	var doc map[string]yaml.Node
	if err := decodeFile(path, &doc); err != nil {
		return cfg, err
	}
	if node, ok := doc["scribe"]; ok {
		if err := node.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		return cfg, nil
	}
	if err := decodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
