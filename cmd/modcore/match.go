package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/modgrove/modcore/internal/cmdutil"
	"github.com/modgrove/modcore/internal/masterdb"
	"github.com/modgrove/modcore/internal/matching"
	"github.com/modgrove/modcore/internal/normalize"
	"github.com/modgrove/modcore/internal/scanning"
)

func newMatchCommand() *cobra.Command {
	var mdbPath, resourceRoot string
	var quick bool
	command := &cobra.Command{
		Use:   "match <folder>",
		Short: "Run the staged Deep Matcher pipeline against a single mod folder",
		Args:  cobra.ExactArgs(1),
		Run: cmdutil.Mainify(func(command *cobra.Command, arguments []string) error {
			folder := arguments[0]

			data, err := os.ReadFile(mdbPath)
			if err != nil {
				return err
			}
			cfg, err := tokenizationConfig()
			if err != nil {
				return err
			}
			db, err := masterdb.Load(data, resourceRoot, cfg)
			if err != nil {
				return err
			}

			content, err := scanning.Walk(folder)
			if err != nil {
				return err
			}
			mode := scanning.FullScoring
			if quick {
				mode = scanning.Quick
			}
			signals := scanning.Collect(normalize.DisplayName(filepath.Base(folder)), content, mode, cfg, scanning.ReadFileFS(folder))

			result := matching.MatchFolder(db, signals, mode, cfg, "", nil)
			printMatchResult(db, result)
			return nil
		}),
	}
	command.Flags().StringVar(&mdbPath, "mdb", "", "path to the Master Database JSON file")
	command.Flags().StringVar(&resourceRoot, "resource-root", "", "root used to resolve thumbnail paths")
	command.Flags().BoolVar(&quick, "quick", false, "use the Quick signal budget instead of FullScoring")
	_ = command.MarkFlagRequired("mdb")
	return command
}

func printMatchResult(db *masterdb.MasterDb, result matching.StagedMatchResult) {
	fmt.Printf("status: %s\n", result.Status)
	if result.Best != nil {
		entry := db.Entries[result.Best.EntryID]
		fmt.Printf("best match: %s (score=%.2f, reasons=%v)\n", entry.Name, result.Best.Score, result.Best.Reasons)
	}
	for _, c := range result.CandidatesTopK {
		entry := db.Entries[c.EntryID]
		fmt.Printf("  candidate: %-30s score=%.2f overlap=%d\n", entry.Name, c.Score, c.Overlap)
	}
}
