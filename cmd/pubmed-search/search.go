// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pubmed-search/internal/format"
	"github.com/pdiddy/pubmed-search/internal/history"
	"github.com/pdiddy/pubmed-search/internal/service"
	"github.com/pdiddy/pubmed-search/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search PubMed and print an article overview or the author emails",
	Long: `Search sends the term to ESearch, fetches the matching records with EFetch
and extracts their metadata.

In overview mode (the default) it prints a markdown summary of each article
with its authors and affiliations. In emails mode it prints the de-duplicated
contact addresses found in the author affiliations.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringP("mode", "m", string(types.ModeOverview),
		"output mode: "+strings.Join(service.Modes(), ", "))
	searchCmd.Flags().StringP("email", "e", "", "contact email sent to NCBI for this search (default from config)")
	searchCmd.Flags().IntP("searchnumber", "n", types.DefaultResults,
		fmt.Sprintf("number of records to fetch (%d-%d)", types.MinResults, types.MaxResults))
	searchCmd.Flags().StringP("sortby", "s", string(types.SortRelevance),
		"sort order: "+strings.Join(service.SortKeys(), ", "))
	searchCmd.Flags().Bool("json", false, "output extracted articles as JSON")
	searchCmd.Flags().Bool("dump", false, "output the raw result as YAML")
	searchCmd.Flags().Bool("no-history", false, "do not record this search")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	mode, _ := cmd.Flags().GetString("mode")
	email, _ := cmd.Flags().GetString("email")
	n, _ := cmd.Flags().GetInt("searchnumber")
	sortBy, _ := cmd.Flags().GetString("sortby")
	asJSON, _ := cmd.Flags().GetBool("json")
	dump, _ := cmd.Flags().GetBool("dump")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	req := types.SearchRequest{
		Term:       strings.TrimSpace(strings.Join(args, " ")),
		Mode:       types.Mode(mode),
		Email:      email,
		MaxResults: n,
		Sort:       types.SortKey(sortBy),
	}
	if err := req.Validate(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	resp, err := newService(cfg).Search(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("searching %q: %w", req.Term, err)
	}

	out := cmd.OutOrStdout()
	switch {
	case asJSON:
		err = format.JSON(out, resp.Articles)
	case dump:
		if resp.Result == nil {
			fmt.Fprintln(out, service.NoArticlesMessage)
			break
		}
		err = resp.Result.WriteYAML(out)
	default:
		_, err = fmt.Fprintln(out, resp.Output)
	}
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if noHistory {
		return nil
	}
	store, err := openHistory(cfg)
	if err != nil || store == nil {
		if err != nil {
			logger.Warn("history unavailable", slog.Any("err", err))
		}
		return nil
	}
	defer store.Close()

	if _, err := store.Record(cmd.Context(), history.Entry{
		Query:      resp.Request.Term,
		Mode:       resp.Request.Mode,
		Sort:       resp.Request.Sort,
		MaxResults: resp.Request.MaxResults,
		Matched:    resp.Matched,
		Articles:   len(resp.Articles),
		Emails:     len(resp.Emails),
	}); err != nil {
		logger.Warn("recording search", slog.Any("err", err))
	}
	return nil
}
