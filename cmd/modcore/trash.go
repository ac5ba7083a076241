package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/modgrove/modcore/internal/cmdutil"
	"github.com/modgrove/modcore/internal/trash"
)

func newTrashCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "trash",
		Short: "Move mod folders to a recoverable trash, restore them, or purge them",
	}
	command.AddCommand(newTrashMoveCommand(), newTrashRestoreCommand(), newTrashPurgeCommand(), newTrashListCommand())
	return command
}

func newTrashMoveCommand() *cobra.Command {
	var modsRoot, trashRoot, gameID string
	command := &cobra.Command{
		Use:   "move <mod-path>",
		Short: "Move a mod folder (relative to the mods root) into the trash",
		Args:  cobra.ExactArgs(1),
		Run: cmdutil.Mainify(func(command *cobra.Command, arguments []string) error {
			ctx := command.Context()
			db, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			guard, err := sharedLock.Acquire()
			if err != nil {
				return err
			}
			defer guard.Release()

			suppression := sharedSuppressor.Suppress()
			defer suppression.Release()

			id, err := trash.MoveToTrash(ctx, db, trashRoot, gameID, modsRoot, arguments[0], time.Now().Unix())
			if err != nil {
				return err
			}
			fmt.Printf("trashed as %s\n", id)
			return nil
		}),
	}
	command.Flags().StringVar(&modsRoot, "mods-root", "", "mods root directory")
	command.Flags().StringVar(&trashRoot, "trash-root", "", "trash root directory")
	command.Flags().StringVar(&gameID, "game", "", "game id")
	_ = command.MarkFlagRequired("mods-root")
	_ = command.MarkFlagRequired("trash-root")
	_ = command.MarkFlagRequired("game")
	return command
}

func newTrashRestoreCommand() *cobra.Command {
	var modsRoot string
	command := &cobra.Command{
		Use:   "restore <trash-id>",
		Short: "Restore a trashed mod folder to its original location",
		Args:  cobra.ExactArgs(1),
		Run: cmdutil.Mainify(func(command *cobra.Command, arguments []string) error {
			ctx := command.Context()
			db, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			suppression := sharedSuppressor.Suppress()
			defer suppression.Release()

			path, err := trash.Restore(ctx, db, modsRoot, arguments[0])
			if err != nil {
				return err
			}
			fmt.Printf("restored to %s\n", path)
			return nil
		}),
	}
	command.Flags().StringVar(&modsRoot, "mods-root", "", "mods root directory")
	_ = command.MarkFlagRequired("mods-root")
	return command
}

func newTrashPurgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge <trash-id>",
		Short: "Permanently delete a trashed mod folder",
		Args:  cobra.ExactArgs(1),
		Run: cmdutil.Mainify(func(command *cobra.Command, arguments []string) error {
			ctx := command.Context()
			db, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			return trash.Purge(ctx, db, arguments[0])
		}),
	}
}

func newTrashListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <game-id>",
		Short: "List trashed mod folders for a game",
		Args:  cobra.ExactArgs(1),
		Run: cmdutil.Mainify(func(command *cobra.Command, arguments []string) error {
			ctx := command.Context()
			db, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := db.ListTrashEntries(ctx, arguments[0])
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s\t%s\t%s\n", e.ID, e.OriginalPath, time.Unix(e.DeletedAt, 0).Format(time.RFC3339))
			}
			return nil
		}),
	}
}
