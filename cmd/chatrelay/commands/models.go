package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/itzenzy2/PersonalChatBot/internal/capability"
)

var modelsCmd = &cobra.Command{
	Use:   "models [selector...]",
	Short: "Show how model selectors resolve",
	Long: `Without arguments, list the default model and every model with
web-search grounding. With arguments, show how each selector resolves.

Examples:
  chatrelay models
  chatrelay models gemini-2.5-pro openai/gpt-4o github:phi-4 ""`,
	RunE: runModels,
}

func runModels(cmd *cobra.Command, args []string) error {
	table, err := cfg.CapabilityTable()
	if err != nil {
		return err
	}

	entries := table.WebSearchModels()
	if len(args) > 0 {
		entries = entries[:0]
		for _, selector := range args {
			entries = append(entries, table.Resolve(selector))
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "default model: %s\n\n", table.DefaultModel())
	}

	return printEntries(cmd.OutOrStdout(), entries)
}

func printEntries(out io.Writer, entries []capability.Entry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tMODEL\tWEB SEARCH\tFILE PARTS\tSYSTEM ROLE\t")
	for _, e := range entries {
		search := "-"
		if e.SupportsWebSearch {
			search = string(e.ToolShape)
		}
		role := "synthetic"
		if e.NativeSystemRole {
			role = "native"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t\n", e.Provider, e.Model, search, e.SupportsFileParts, role)
	}
	return w.Flush()
}
