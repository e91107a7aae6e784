// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pubmed-search/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded searches, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "l", 0, "maximum number of searches to list (default from config)")
	historyCmd.Flags().StringP("query", "q", "", "only list searches whose term contains this text")
	historyCmd.Flags().Bool("json", false, "output searches as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	query, _ := cmd.Flags().GetString("query")
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("search history is disabled (history.path is empty)")
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), history.ListOptions{Contains: query, Limit: limit})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No searches recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tMODE\tSORT\tN\tMATCHED\tARTICLES\tEMAILS\tQUERY")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			e.ID, e.CreatedAt.Local().Format(time.DateTime), e.Mode, e.Sort,
			e.MaxResults, e.Matched, e.Articles, e.Emails, e.Query)
	}
	return tw.Flush()
}
