package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/modgrove/modcore/internal/cmdutil"
	"github.com/modgrove/modcore/internal/modsync"
	"github.com/modgrove/modcore/internal/watch"
)

func newWatchCommand() *cobra.Command {
	var modsRoot string
	command := &cobra.Command{
		Use:   "watch <game-id>",
		Short: "Watch a mods root and keep the state database synchronized incrementally",
		Args:  cobra.ExactArgs(1),
		Run: cmdutil.Mainify(func(command *cobra.Command, arguments []string) error {
			gameID := arguments[0]
			db, err := openStore(command.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, stop := signal.NotifyContext(command.Context(), os.Interrupt)
			defer stop()

			watcher := watch.New(modsRoot, sharedSuppressor)
			defer watcher.Stop()

			logger := appLogger().Sublogger("watch")
			fmt.Printf("watching %s (interrupt to stop)\n", modsRoot)
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev := <-watcher.Events():
					if ev.Kind == watch.Error {
						logger.Warn(ev.Err)
						continue
					}
					if err := modsync.ApplyWatcherEvent(ctx, db, gameID, ev, time.Now()); err != nil {
						logger.Warn(err)
						continue
					}
					if ev.Kind == watch.Renamed {
						logger.Info("%s: %s -> %s", ev.Kind, ev.From, ev.Path)
					} else {
						logger.Info("%s: %s", ev.Kind, ev.Path)
					}
				}
			}
		}),
	}
	command.Flags().StringVar(&modsRoot, "mods-root", "", "mods root directory to watch")
	_ = command.MarkFlagRequired("mods-root")
	return command
}
