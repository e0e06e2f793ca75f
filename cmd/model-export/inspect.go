package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/pdiddy/model-export/internal/onnx"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <model.onnx>",
	Short: "Show opset and input/output shapes of an ONNX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := onnx.Inspect(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if inspectJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		}

		opset, _ := m.Opset("")
		fmt.Fprintf(out, "producer: %s %s\n", m.ProducerName, m.ProducerVersion)
		fmt.Fprintf(out, "ir:       %d\n", m.IRVersion)
		fmt.Fprintf(out, "opset:    %d\n", opset)
		fmt.Fprintf(out, "graph:    %s\n\n", m.GraphName)

		table := tablewriter.NewWriter(out)
		table.Header("Kind", "Name", "Type", "Shape", "Dynamic")
		for _, t := range m.Inputs {
			table.Append("input", t.Name, onnx.ElemTypeName(t.ElemType), t.Shape(), strconv.FormatBool(t.Dynamic()))
		}
		for _, t := range m.Outputs {
			table.Append("output", t.Name, onnx.ElemTypeName(t.ElemType), t.Shape(), strconv.FormatBool(t.Dynamic()))
		}
		return table.Render()
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the parsed header as JSON")
	rootCmd.AddCommand(inspectCmd)
}
