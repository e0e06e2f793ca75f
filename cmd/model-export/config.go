package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/model-export/pkg/types"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Config prints the settings export and fetch would use after applying the
config file, MODEL_EXPORT_* environment variables, and defaults. With --init it
writes the defaults to model-export.yaml instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if path, _ := cmd.Flags().GetString("init"); path != "" {
			return writeDefaultConfig(cmd.OutOrStdout(), path)
		}

		cfg := effectiveConfig()
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

func effectiveConfig() types.Config {
	return types.Config{
		Export: exportConfig(),
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("fetch.timeout"),
				UserAgent: viper.GetString("fetch.user_agent"),
			},
			BaseURL:    viper.GetString("fetch.base_url"),
			Dir:        viper.GetString("fetch.dir"),
			MaxRetries: viper.GetInt("fetch.max_retries"),
		},
		Log: types.LogConfig{
			Level:   viper.GetString("log.level"),
			File:    viper.GetString("log.file"),
			NoColor: viper.GetBool("log.no_color"),
		},
	}
}

func writeDefaultConfig(w io.Writer, path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	data, err := yaml.Marshal(types.DefaultConfig())
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintln(w, "Wrote", path)
	return nil
}

func init() {
	configCmd.Flags().String("init", "", "write the default configuration to this path (e.g. model-export.yaml)")
	rootCmd.AddCommand(configCmd)
}
