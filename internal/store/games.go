package store

import (
	"context"

	"github.com/pkg/errors"
)

// UpsertGame inserts or updates a Game row.
func (s *Store) UpsertGame(ctx context.Context, g Game) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO games (id, name, game_type, path, mod_path, launcher_path)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, game_type=excluded.game_type, path=excluded.path,
			mod_path=excluded.mod_path, launcher_path=excluded.launcher_path
	`, g.ID, g.Name, g.GameType, g.Path, g.ModPath, g.LauncherPath)
	if err != nil {
		return errors.Wrap(err, "unable to upsert game")
	}
	return nil
}

// GetGame fetches a Game by id.
func (s *Store) GetGame(ctx context.Context, id string) (Game, error) {
	var g Game
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, game_type, path, mod_path, launcher_path FROM games WHERE id = ?
	`, id)
	if err := row.Scan(&g.ID, &g.Name, &g.GameType, &g.Path, &g.ModPath, &g.LauncherPath); err != nil {
		return Game{}, errors.Wrap(err, "unable to fetch game")
	}
	return g, nil
}
