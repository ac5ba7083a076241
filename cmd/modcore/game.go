package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modgrove/modcore/internal/cmdutil"
	"github.com/modgrove/modcore/internal/store"
)

func newGameCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "game",
		Short: "Manage configured game instances",
	}
	command.AddCommand(newGameAddCommand(), newGameShowCommand())
	return command
}

func newGameAddCommand() *cobra.Command {
	var gameType, path, modPath, launcherPath string
	command := &cobra.Command{
		Use:   "add <id> <name>",
		Short: "Register a game instance",
		Args:  cobra.ExactArgs(2),
		Run: cmdutil.Mainify(func(command *cobra.Command, arguments []string) error {
			ctx := command.Context()
			db, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			return db.UpsertGame(ctx, store.Game{
				ID:           arguments[0],
				Name:         arguments[1],
				GameType:     gameType,
				Path:         path,
				ModPath:      modPath,
				LauncherPath: launcherPath,
			})
		}),
	}
	command.Flags().StringVar(&gameType, "type", "", "game type identifier")
	command.Flags().StringVar(&path, "path", "", "game installation path")
	command.Flags().StringVar(&modPath, "mods-root", "", "mods root directory")
	command.Flags().StringVar(&launcherPath, "launcher", "", "launcher executable path")
	return command
}

func newGameShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a registered game instance",
		Args:  cobra.ExactArgs(1),
		Run: cmdutil.Mainify(func(command *cobra.Command, arguments []string) error {
			ctx := command.Context()
			db, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			g, err := db.GetGame(ctx, arguments[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s\t%s\t%s\t%s\n", g.ID, g.Name, g.GameType, g.ModPath)
			return nil
		}),
	}
}
