package store

import (
	"context"
	"database/sql"
	"errors"

	"nestlist/internal/model"
)

// GetPrefs loads a user's display state for one project: the focus-mode flag
// plus the set of collapsed item ids. Missing rows mean defaults.
func (s *Store) GetPrefs(ctx context.Context, userID int64, projectID string) (model.ProjectPrefs, error) {
	p := model.ProjectPrefs{Collapsed: []string{}}
	err := s.db.GetContext(ctx, &p.FocusMode,
		`select focus_mode from prefs where user_id = $1 and project_id = $2 and item_id is null`,
		userID, projectID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.ProjectPrefs{}, err
	}
	err = s.db.SelectContext(ctx, &p.Collapsed,
		`select item_id from prefs where user_id = $1 and project_id = $2 and item_id is not null and collapsed`,
		userID, projectID)
	if err != nil {
		return model.ProjectPrefs{}, err
	}
	return p, nil
}

// SavePrefs replaces the user's display state for a project.
func (s *Store) SavePrefs(ctx context.Context, userID int64, projectID string, p model.ProjectPrefs) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`delete from prefs where user_id = $1 and project_id = $2`, userID, projectID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`insert into prefs(user_id, project_id, item_id, focus_mode) values($1, $2, null, $3)`,
		userID, projectID, p.FocusMode); err != nil {
		return err
	}
	for _, itemID := range p.Collapsed {
		if _, err := tx.ExecContext(ctx,
			`insert into prefs(user_id, project_id, item_id, collapsed) values($1, $2, $3, true)
			 on conflict do nothing`, userID, projectID, itemID); err != nil {
			return err
		}
	}
	return tx.Commit()
}
