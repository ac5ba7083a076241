// Command modcore is the CLI entry point for the mod identification,
// deduplication, and directory synchronization engine: one subcommand per
// operation exposed by the internal packages.
package main

import (
	"github.com/spf13/cobra"

	"github.com/modgrove/modcore/internal/cmdutil"
)

func main() {
	root := &cobra.Command{
		Use:           "modcore",
		Short:         "Identify, deduplicate, and synchronize game mod folders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addRootFlags(root.PersistentFlags())

	root.AddCommand(
		newGameCommand(),
		newSyncCommand(),
		newToggleCommand(),
		newRenameCommand(),
		newMatchCommand(),
		newDedupCommand(),
		newWatchCommand(),
		newCollectionCommand(),
		newTrashCommand(),
	)

	if err := root.Execute(); err != nil {
		cmdutil.Fatal(err)
	}
}
