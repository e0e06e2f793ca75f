// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/model-export/internal/history"
	"github.com/pdiddy/model-export/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect previous export runs",
	Long: `History reads the export ledger kept in --history-dir. Every export run
is recorded there, including skipped and failed runs.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded export runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := history.Open(historyDir(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.List(cmd.Context(), historyFilter(cmd))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}

	if len(recs) == 0 {
		fmt.Fprintln(out, "No exports recorded.")
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header("Started", "Checkpoint", "Options", "Backend", "Status", "Duration", "Artifact")
	for _, r := range recs {
		artifact := r.Artifact
		if r.Status == types.ExportFailed {
			artifact = r.Error
			if len(artifact) > 40 {
				artifact = artifact[:37] + "..."
			}
		}
		table.Append(
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Checkpoint,
			r.Options.String(),
			string(r.Backend),
			string(r.Status),
			r.Duration.Round(time.Millisecond).String(),
			artifact,
		)
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d runs\n", len(recs))
	return nil
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <checkpoint>",
	Short: "Show the most recent export run of a checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(historyDir(cmd))
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.Latest(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(rec)
	},
}

// --- dump subcommand ---

var historyDumpCmd = &cobra.Command{
	Use:   "dump [path]",
	Short: "Write recorded export runs to YAML or JSON",
	Long: `Dump writes the ledger (or a filtered subset) to a file. The format
follows the file extension (.yaml, .yml, .json) unless --format is given.
The default path is <history-dir>/exports.yaml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistoryDump,
}

func runHistoryDump(cmd *cobra.Command, args []string) error {
	dir := historyDir(cmd)
	format, _ := cmd.Flags().GetString("format")

	path := filepath.Join(dir, "exports.yaml")
	if len(args) == 1 {
		path = args[0]
	}
	if format == "" {
		format = dumpFormat(path)
	}

	store, err := history.Open(dir)
	if err != nil {
		return err
	}
	defer store.Close()

	f := historyFilter(cmd)
	switch format {
	case "yaml":
		err = store.DumpYAML(cmd.Context(), f, path)
	case "json":
		err = store.DumpJSON(cmd.Context(), f, path)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	return nil
}

// dumpFormat picks yaml or json from the file extension, defaulting to yaml.
func dumpFormat(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}

// --- shared helpers ---

// historyDir prefers an explicit --history-dir, then the export setting from
// config or environment.
func historyDir(cmd *cobra.Command) string {
	if f := cmd.Flags().Lookup("history-dir"); f != nil && f.Changed {
		return f.Value.String()
	}
	if dir := viper.GetString("export.history_dir"); dir != "" {
		return dir
	}
	return types.DefaultHistoryDir
}

func historyFilter(cmd *cobra.Command) history.Filter {
	checkpoint, _ := cmd.Flags().GetString("checkpoint")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	return history.Filter{
		Checkpoint: checkpoint,
		Status:     types.ExportStatus(status),
		Limit:      limit,
	}
}

func init() {
	// Shared filter flags, inherited by subcommands.
	historyCmd.PersistentFlags().String("history-dir", types.DefaultHistoryDir, "directory holding the export ledger")
	historyCmd.PersistentFlags().String("checkpoint", "", "filter by checkpoint path")
	historyCmd.PersistentFlags().String("status", "", "filter by status: exported, skipped, failed")
	historyCmd.PersistentFlags().Int("limit", 0, "maximum runs (0 = all)")

	historyListCmd.Flags().Bool("json", false, "output runs as JSON")
	historyDumpCmd.Flags().String("format", "", "dump format: yaml or json (default from extension)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDumpCmd)
	rootCmd.AddCommand(historyCmd)
}
