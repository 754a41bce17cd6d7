// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mardi-search/internal/cache"
	"github.com/pdiddy/mardi-search/internal/mardi"
	"github.com/pdiddy/mardi-search/internal/rank"
	"github.com/pdiddy/mardi-search/internal/search"
	"github.com/pdiddy/mardi-search/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [concept]",
	Short: "Find formulas for a mathematical concept",
	Long: `Search resolves the concept (e.g. "gamma function") to a MaRDI item,
fetches the formulas attached to it, and prints at most --max-results
cleaned records as JSON. Lookup or network failures print an empty list.

Use --save to keep the result as YAML and --load to print a saved result
without contacting MaRDI.`,
	Args:   cobra.ArbitraryArgs,
	PreRun: applySearchOverrides,
	RunE:   runSearch,
}

// applySearchOverrides lets --timeout and --no-cache override configured
// values only when given explicitly.
func applySearchOverrides(cmd *cobra.Command, args []string) {
	if cmd.Flags().Changed("timeout") {
		d, _ := cmd.Flags().GetDuration("timeout")
		viper.Set("http.timeout", d)
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		viper.Set("cache.enabled", false)
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	loadPath, _ := cmd.Flags().GetString("load")
	savePath, _ := cmd.Flags().GetString("save")
	table, _ := cmd.Flags().GetBool("table")

	concept := strings.Join(args, " ")
	if loadPath == "" && strings.TrimSpace(concept) == "" {
		return fmt.Errorf("concept required: provide a concept or --load a saved result")
	}

	cfg := searchConfig()

	var (
		out      search.Output
		searcher *search.Searcher
	)
	if loadPath != "" {
		rf, err := search.ReadResultFile(loadPath)
		if err != nil {
			return err
		}
		out = rf.Output()
	} else {
		s, cleanup, err := newSearcher(cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		searcher = s

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		out = searcher.Records(ctx, concept)
	}

	if out.Err != "" {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", out.Concept, out.Err)
	}

	if savePath != "" {
		if searcher == nil {
			searcher = search.New(nil, cfg, logger)
		}
		if err := search.WriteResultFile(savePath, searcher, out); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Saved results to", savePath)
	}

	return printOutput(out, table, os.Stdout)
}

// newSearcher wires the MaRDI client, optionally behind the SQLite cache.
// The returned cleanup closes the cache.
func newSearcher(cfg types.SearchConfig) (*search.Searcher, func(), error) {
	var src search.Source = mardi.NewClient(cfg, nil, logger)
	cleanup := func() {}

	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache)
		if err != nil {
			return nil, nil, err
		}
		src = cache.NewSource(store, src, logger)
		cleanup = func() { store.Close() }
	}

	return search.New(src, cfg, logger), cleanup, nil
}

func printOutput(out search.Output, table bool, w io.Writer) error {
	if table {
		if out.Entity != nil {
			fmt.Fprintf(w, "%s (%s)\n\n", out.Entity.Label, out.Entity.ID)
		}
		rank.FormatTable(out.Records, w)
		return nil
	}
	return rank.FormatJSON(out.Records, w)
}

func init() {
	searchCmd.Flags().Int("max-results", 10, "maximum number of formulas to return")
	searchCmd.Flags().Int("fetch-limit", 20, "number of raw bindings requested from MaRDI")
	searchCmd.Flags().Duration("timeout", 0, "overall timeout for the MaRDI round trip (0 = config value)")
	searchCmd.Flags().Bool("no-cache", false, "bypass the local cache")
	searchCmd.Flags().Bool("table", false, "print a human-readable table instead of JSON")
	searchCmd.Flags().String("save", "", "write the result to a YAML file")
	searchCmd.Flags().String("load", "", "print a result previously written with --save")

	viper.BindPFlag("search.max_results", searchCmd.Flags().Lookup("max-results"))
	viper.BindPFlag("mardi.fetch_limit", searchCmd.Flags().Lookup("fetch-limit"))

	rootCmd.AddCommand(searchCmd)
}
