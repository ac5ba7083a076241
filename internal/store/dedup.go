package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// InsertDedupJob records the start of a dedup scan.
func (s *Store) InsertDedupJob(ctx context.Context, id, gameID, status string, totalFolders int, startedAt int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dedup_jobs (id, game_id, status, total_folders, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, 0)
	`, id, gameID, status, totalFolders, startedAt)
	if err != nil {
		return errors.Wrap(err, "unable to insert dedup job")
	}
	return nil
}

// FinishDedupJob marks a dedup job complete.
func (s *Store) FinishDedupJob(ctx context.Context, id, status string, finishedAt int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE dedup_jobs SET status = ?, finished_at = ? WHERE id = ?`, status, finishedAt, id)
	if err != nil {
		return errors.Wrap(err, "unable to finish dedup job")
	}
	return nil
}

// DedupGroupRecord is a persisted dedup group plus its members, as stored
// across dedup_groups and dedup_group_members.
type DedupGroupRecord struct {
	JobID         string
	GroupIndex    int
	Confidence    int
	PrimaryReason string
	Members       []DedupMemberRecord
}

// DedupMemberRecord is one member of a persisted dedup group.
type DedupMemberRecord struct {
	ModID      string
	FolderPath string
}

// InsertDedupGroup persists one dedup group and its members in a single
// transaction.
func (s *Store) InsertDedupGroup(ctx context.Context, tx *sql.Tx, g DedupGroupRecord) error {
	exec := queryExecer(s, tx)
	result, err := exec.ExecContext(ctx, `
		INSERT INTO dedup_groups (job_id, group_index, confidence_score, primary_reason)
		VALUES (?, ?, ?, ?)
	`, g.JobID, g.GroupIndex, g.Confidence, g.PrimaryReason)
	if err != nil {
		return errors.Wrap(err, "unable to insert dedup group")
	}
	groupID, err := result.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "unable to read dedup group id")
	}
	for _, m := range g.Members {
		if _, err := exec.ExecContext(ctx, `
			INSERT INTO dedup_group_members (group_id, mod_id, folder_path) VALUES (?, ?, ?)
		`, groupID, m.ModID, m.FolderPath); err != nil {
			return errors.Wrap(err, "unable to insert dedup group member")
		}
	}
	return nil
}

// IsWhitelisted reports whether the canonical pair (sorted) is present in
// duplicate_whitelist for a game (Phase 2).
func (s *Store) IsWhitelisted(ctx context.Context, gameID, folderAID, folderBID string) (bool, error) {
	a, b := folderAID, folderBID
	if b < a {
		a, b = b, a
	}
	var count int
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM duplicate_whitelist WHERE game_id = ? AND folder_a_id = ? AND folder_b_id = ?
	`, gameID, a, b)
	if err := row.Scan(&count); err != nil {
		return false, errors.Wrap(err, "unable to check duplicate whitelist")
	}
	return count > 0, nil
}

// AddWhitelistEntry excuses a folder pair from future dedup grouping.
func (s *Store) AddWhitelistEntry(ctx context.Context, e WhitelistEntry) error {
	a, b := e.FolderA, e.FolderB
	if b < a {
		a, b = b, a
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO duplicate_whitelist (game_id, folder_a_id, folder_b_id, reason) VALUES (?, ?, ?, ?)
		ON CONFLICT(game_id, folder_a_id, folder_b_id) DO UPDATE SET reason=excluded.reason
	`, e.GameID, a, b, e.Reason)
	if err != nil {
		return errors.Wrap(err, "unable to add whitelist entry")
	}
	return nil
}
