package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modgrove/modcore/internal/cmdutil"
	"github.com/modgrove/modcore/internal/modsync"
)

func newRenameCommand() *cobra.Command {
	var modsRoot, gameID string
	command := &cobra.Command{
		Use:   "rename <mod-id> <new-name>",
		Short: "Rename a mod folder, preserving its enabled/disabled state",
		Args:  cobra.ExactArgs(2),
		Run: cmdutil.Mainify(func(command *cobra.Command, arguments []string) error {
			ctx := command.Context()
			db, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := modsync.Rename(ctx, db, sharedLock, sharedSuppressor, modsRoot, gameID, arguments[0], arguments[1])
			if err != nil {
				return err
			}
			fmt.Printf("renamed to %s\n", result.NewPath)
			return nil
		}),
	}
	command.Flags().StringVar(&modsRoot, "mods-root", "", "mods root directory")
	command.Flags().StringVar(&gameID, "game", "", "game id")
	_ = command.MarkFlagRequired("mods-root")
	_ = command.MarkFlagRequired("game")
	return command
}
