package main

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/modgrove/modcore/internal/cmdutil"
	"github.com/modgrove/modcore/internal/dedup"
	"github.com/modgrove/modcore/internal/store"
)

func newDedupCommand() *cobra.Command {
	var modsRoot, gameID string
	command := &cobra.Command{
		Use:   "dedup <game-id>",
		Short: "Scan a game's mods for near-duplicate folders",
		Args:  cobra.ExactArgs(1),
		Run: cmdutil.Mainify(func(command *cobra.Command, arguments []string) error {
			ctx := command.Context()
			gameID = arguments[0]

			db, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			mods, err := db.ModsByGame(ctx, nil, gameID)
			if err != nil {
				return err
			}

			// index -> mod id, so the dedup engine's int-keyed FolderRef can
			// be mapped back onto the persistence layer's string mod ids.
			byIndex := make([]store.Mod, len(mods))
			folders := make([]dedup.FolderRef, len(mods))
			for i, m := range mods {
				byIndex[i] = m
				folders[i] = dedup.FolderRef{
					ModID:   i,
					RelPath: m.FolderPath,
					AbsPath: filepath.Join(modsRoot, filepath.FromSlash(m.FolderPath)),
				}
			}

			whitelisted := func(a, b int) bool {
				ok, err := db.IsWhitelisted(ctx, gameID, byIndex[a].ID, byIndex[b].ID)
				return err == nil && ok
			}

			jobID := uuid.NewString()
			started := time.Now().Unix()
			if err := db.InsertDedupJob(ctx, jobID, gameID, "RUNNING", len(folders), started); err != nil {
				return err
			}

			outcome, err := dedup.ScanDuplicates(folders, whitelisted, nil)
			if err != nil {
				_ = db.FinishDedupJob(ctx, jobID, "ERROR", time.Now().Unix())
				return err
			}

			if err := persistDedupOutcome(ctx, db, jobID, byIndex, outcome); err != nil {
				return err
			}
			if err := db.FinishDedupJob(ctx, jobID, statusName(outcome.Status), time.Now().Unix()); err != nil {
				return err
			}

			printDedupOutcome(outcome, byIndex)
			return nil
		}),
	}
	command.Flags().StringVar(&modsRoot, "mods-root", "", "mods root directory")
	_ = command.MarkFlagRequired("mods-root")
	return command
}

func statusName(s dedup.Status) string {
	if s == dedup.Cancelled {
		return "CANCELLED"
	}
	return "COMPLETED"
}

func persistDedupOutcome(ctx context.Context, db *store.Store, jobID string, byIndex []store.Mod, outcome dedup.DedupOutcome) error {
	for _, g := range outcome.Groups {
		members := make([]store.DedupMemberRecord, len(g.Members))
		for i, m := range g.Members {
			members[i] = store.DedupMemberRecord{ModID: byIndex[m.ModID].ID, FolderPath: m.RelPath}
		}
		record := store.DedupGroupRecord{
			JobID:         jobID,
			GroupIndex:    g.GroupID,
			Confidence:    g.Confidence,
			PrimaryReason: g.PrimaryReason,
			Members:       members,
		}
		if err := db.WithTx(ctx, func(tx *sql.Tx) error {
			return db.InsertDedupGroup(ctx, tx, record)
		}); err != nil {
			return err
		}
	}
	return nil
}

func printDedupOutcome(outcome dedup.DedupOutcome, byIndex []store.Mod) {
	fmt.Printf("scanned %d folders, found %d groups (%s)\n", outcome.TotalFolders, len(outcome.Groups), statusName(outcome.Status))
	for _, g := range outcome.Groups {
		fmt.Printf("group #%d confidence=%d reason=%s\n", g.GroupID, g.Confidence, g.PrimaryReason)
		for _, m := range g.Members {
			fmt.Printf("  %s\n", byIndex[m.ModID].FolderPath)
		}
	}
}
