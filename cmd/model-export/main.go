// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the model-export CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/model-export/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// closeLog flushes the log file opened in PersistentPreRunE.
var closeLog = func() error { return nil }

// rootCmd is the base command for the model-export CLI.
var rootCmd = &cobra.Command{
	Use:   "model-export",
	Short: "Export pretrained detection checkpoints to interchange formats",
	Long: `model-export converts a trained object-detection checkpoint (for example
yolov8n.pt) into a portable interchange format such as ONNX by driving the
Ultralytics exporter, either installed locally or inside a container image.

The reference export is format=onnx opset=12 dynamic=True imgsz=640. Success
is reported only after the exported artifact is found and checked on disk.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logger.ParseLevel(viper.GetString("log.level"))
		if err != nil {
			return err
		}
		log, closeFn := logger.New(
			logger.WithLevel(level),
			logger.WithWriter(cmd.ErrOrStderr()),
			logger.WithNoColor(viper.GetBool("log.no_color")),
			logger.WithLogFile(viper.GetString("log.file")),
		)
		slog.SetDefault(log)
		closeLog = closeFn

		if f := viper.ConfigFileUsed(); f != "" {
			slog.Debug("using config file", "path", f)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./model-export.yaml or ~/.config/model-export/model-export.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-file", "", "also write JSON logs to this file (rotated)")
	pf.Bool("no-color", false, "disable colored log output")

	mustBind("log.level", pf.Lookup("log-level"))
	mustBind("log.file", pf.Lookup("log-file"))
	mustBind("log.no_color", pf.Lookup("no-color"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("model-export")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "model-export"))
		}
	}

	viper.SetEnvPrefix("MODEL_EXPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// No config file at the default locations is fine.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = closeLog()
	if err != nil {
		os.Exit(1)
	}
}
