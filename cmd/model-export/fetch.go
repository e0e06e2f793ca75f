// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/pdiddy/model-export/internal/fetch"
	"github.com/pdiddy/model-export/internal/secrets"
	"github.com/pdiddy/model-export/internal/validation"
	"github.com/pdiddy/model-export/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [name]",
	Short: "Download a pretrained checkpoint",
	Long: `Fetch downloads a published checkpoint (default yolov8n) into --dir.
".pt" is appended when the name has no extension. An existing file is left
alone. Export never downloads on its own; run fetch first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "yolov8n"
		if len(args) == 1 {
			name = args[0]
		}

		cfg := effectiveConfig().Fetch
		if err := validation.New().Struct(cfg); err != nil {
			return err
		}

		secretsDir, _ := cmd.Flags().GetString("secrets-dir")
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return fmt.Errorf("parsing base URL: %w", err)
		}
		token, err := secrets.Token(secretsDir, base.Hostname())
		if err != nil {
			return err
		}
		cfg.Token = token

		client := &http.Client{Timeout: cfg.Timeout}
		res, err := fetch.Fetch(cmd.Context(), client, cfg, name)
		if errors.Is(err, fetch.ErrExists) {
			fmt.Fprintf(cmd.OutOrStdout(), "skipped: %s (already exists)\n", res.Path)
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "fetched: %s (%d bytes, sha256 %s)\n", res.Path, res.Bytes, res.SHA256)
		return nil
	},
}

func init() {
	d := types.DefaultFetchConfig()
	f := fetchCmd.Flags()
	f.String("base-url", d.BaseURL, "release URL checkpoints are downloaded from")
	f.String("dir", d.Dir, "directory to write the checkpoint into")
	f.Duration("timeout", d.Timeout, "HTTP request timeout")
	f.String("user-agent", d.UserAgent, "User-Agent header for downloads")
	f.Int("max-retries", d.MaxRetries, "retries on HTTP 429/503")
	f.String("secrets-dir", secrets.DefaultDir, "directory holding fetch-token or fetch-token.<host> for private releases")

	mustBind("fetch.base_url", f.Lookup("base-url"))
	mustBind("fetch.dir", f.Lookup("dir"))
	mustBind("fetch.timeout", f.Lookup("timeout"))
	mustBind("fetch.user_agent", f.Lookup("user-agent"))
	mustBind("fetch.max_retries", f.Lookup("max-retries"))

	rootCmd.AddCommand(fetchCmd)
}
