package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modgrove/modcore/internal/cmdutil"
	"github.com/modgrove/modcore/internal/modsync"
)

func newToggleCommand() *cobra.Command {
	var modsRoot, gameID string
	var enable bool
	command := &cobra.Command{
		Use:   "toggle <mod-id>",
		Short: "Enable or disable a single mod folder",
		Args:  cobra.ExactArgs(1),
		Run: cmdutil.Mainify(func(command *cobra.Command, arguments []string) error {
			ctx := command.Context()
			db, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := modsync.Toggle(ctx, db, sharedLock, sharedSuppressor, modsRoot, gameID, arguments[0], enable)
			if err != nil {
				return err
			}
			fmt.Printf("%s -> %s\n", result.NewPath, result.NewStatus)
			return nil
		}),
	}
	command.Flags().StringVar(&modsRoot, "mods-root", "", "mods root directory")
	command.Flags().StringVar(&gameID, "game", "", "game id")
	command.Flags().BoolVar(&enable, "enable", true, "enable (true) or disable (false) the mod")
	_ = command.MarkFlagRequired("mods-root")
	_ = command.MarkFlagRequired("game")
	return command
}
