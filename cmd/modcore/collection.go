package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modgrove/modcore/internal/cmdutil"
	"github.com/modgrove/modcore/internal/collections"
)

func newCollectionCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "collection",
		Short: "Apply or undo multi-mod enable/disable collections",
	}
	command.AddCommand(newCollectionApplyCommand(), newCollectionUndoCommand())
	return command
}

func newCollectionApplyCommand() *cobra.Command {
	var modsRoot, gameID string
	var safeMode bool
	command := &cobra.Command{
		Use:   "apply <collection-id>",
		Short: "Enable a collection's mods and disable conflicting siblings",
		Args:  cobra.ExactArgs(1),
		Run: cmdutil.Mainify(func(command *cobra.Command, arguments []string) error {
			ctx := command.Context()
			db, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := collections.Apply(ctx, db, sharedLock, sharedSuppressor, modsRoot, gameID, arguments[0], safeMode)
			if err != nil {
				return err
			}
			printCollectionResult(result)
			return nil
		}),
	}
	command.Flags().StringVar(&modsRoot, "mods-root", "", "mods root directory")
	command.Flags().StringVar(&gameID, "game", "", "game id")
	command.Flags().BoolVar(&safeMode, "safe-mode", false, "refuse collections not marked as a safe context")
	_ = command.MarkFlagRequired("mods-root")
	_ = command.MarkFlagRequired("game")
	return command
}

func newCollectionUndoCommand() *cobra.Command {
	var modsRoot string
	var safeMode bool
	command := &cobra.Command{
		Use:   "undo <game-id>",
		Short: "Restore the enable-set captured before the last collection apply",
		Args:  cobra.ExactArgs(1),
		Run: cmdutil.Mainify(func(command *cobra.Command, arguments []string) error {
			ctx := command.Context()
			db, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := collections.Undo(ctx, db, sharedLock, sharedSuppressor, modsRoot, arguments[0], safeMode)
			if err != nil {
				return err
			}
			printCollectionResult(result)
			return nil
		}),
	}
	command.Flags().StringVar(&modsRoot, "mods-root", "", "mods root directory")
	command.Flags().BoolVar(&safeMode, "safe-mode", false, "refuse snapshots not marked as a safe context")
	_ = command.MarkFlagRequired("mods-root")
	return command
}

func printCollectionResult(result collections.Result) {
	fmt.Printf("changed: %d\n", result.ChangedCount)
	for _, w := range result.Warnings {
		cmdutil.Warning(w)
	}
}
