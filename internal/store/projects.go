package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"nestlist/internal/model"
)

// ProjectsByUser lists the user's projects most recently updated first, so a
// project any item mutation touched floats to the top of the dashboard.
func (s *Store) ProjectsByUser(ctx context.Context, userID int64) ([]model.Project, error) {
	var out []model.Project
	err := s.db.SelectContext(ctx, &out,
		`select id, title, description, user_id, created_at, updated_at
		 from projects where user_id = $1 order by updated_at desc`, userID)
	return out, err
}

func (s *Store) CreateProject(ctx context.Context, userID int64, title string, description *string) (model.Project, error) {
	var p model.Project
	err := s.db.GetContext(ctx, &p,
		`insert into projects(id, title, description, user_id) values($1, $2, $3, $4)
		 returning id, title, description, user_id, created_at, updated_at`,
		uuid.NewString(), title, description, userID)
	return p, err
}

func (s *Store) GetProject(ctx context.Context, id string) (model.Project, error) {
	var p model.Project
	err := s.db.GetContext(ctx, &p,
		`select id, title, description, user_id, created_at, updated_at from projects where id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, ErrNotFound
	}
	return p, err
}

func (s *Store) UpdateProject(ctx context.Context, id string, title, description *string) error {
	if title == nil && description == nil {
		return nil
	}
	res, err := s.db.ExecContext(ctx,
		`update projects set title = coalesce($1, title),
		        description = coalesce($2, description),
		        updated_at = now()
		 where id = $3`, title, description, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from projects where id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchProject bumps updated_at; called after every item mutation in the
// project (bubble-to-top side effect).
func (s *Store) TouchProject(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `update projects set updated_at = now() where id = $1`, id)
	return err
}
