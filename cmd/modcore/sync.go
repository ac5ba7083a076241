package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/modgrove/modcore/internal/cmdutil"
	"github.com/modgrove/modcore/internal/modsync"
)

func newSyncCommand() *cobra.Command {
	var modsRoot string
	command := &cobra.Command{
		Use:   "sync <game-id>",
		Short: "Run a full-scan reconcile of a game's mods root against the state database",
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

			logger := appLogger().Sublogger("sync")
			started := time.Now()
			report, err := modsync.ReconcileFull(ctx, db, arguments[0], modsRoot, started.Unix())
			if err != nil {
				return err
			}
			logger.Debug("reconciled %s in %s", modsRoot, time.Since(started).Round(time.Millisecond))
			fmt.Println(color.GreenString("sync complete:"))
			fmt.Printf("  new mods:            %d\n", report.NewMods)
			fmt.Printf("  updated mods:        %d\n", report.UpdatedMods)
			fmt.Printf("  removed mods:        %d\n", report.RemovedMods)
			fmt.Printf("  new objects:         %d\n", report.NewObjects)
			fmt.Printf("  ghost objects wiped: %d\n", report.GhostObjectsDeleted)
			return nil
		}),
	}
	command.Flags().StringVar(&modsRoot, "mods-root", "", "mods root directory to reconcile")
	_ = command.MarkFlagRequired("mods-root")
	return command
}
