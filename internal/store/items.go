package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"nestlist/internal/model"
	"nestlist/internal/tree"
)

// ItemFilter narrows and orders a project item listing. Zero value lists
// everything in position order.
type ItemFilter struct {
	Kind   string // "", "tasks", "notes"
	State  string // "", "completed", "active" (tasks only)
	SortBy string // "", "position", "created", "updated", "content"
	Desc   bool
}

var itemSortColumns = map[string]string{
	"":         "position",
	"position": "position",
	"created":  "created_at",
	"updated":  "updated_at",
	"content":  "content",
}

// ItemsByProject returns the full flat item list of a project with
// attachments loaded eagerly alongside.
func (s *Store) ItemsByProject(ctx context.Context, projectID string, f ItemFilter) ([]model.Item, error) {
	conditions := []string{"project_id = $1"}
	args := []any{projectID}
	switch f.Kind {
	case "tasks":
		conditions = append(conditions, "is_checklist")
	case "notes":
		conditions = append(conditions, "not is_checklist")
	}
	switch f.State {
	case "completed":
		conditions = append(conditions, "is_checklist and coalesce(is_completed, false)")
	case "active":
		conditions = append(conditions, "is_checklist and not coalesce(is_completed, false)")
	}
	col, ok := itemSortColumns[f.SortBy]
	if !ok {
		col = "position"
	}
	dir := "asc"
	if f.Desc {
		dir = "desc"
	}
	query := fmt.Sprintf(
		`select id, project_id, parent_id, content, is_checklist, is_completed, position, created_at, updated_at
		 from items where %s order by %s %s, created_at, id`,
		strings.Join(conditions, " and "), col, dir)

	var items []model.Item
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	atts, err := s.AttachmentsByItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	byItem := make(map[string][]model.Attachment, len(atts))
	for _, a := range atts {
		byItem[a.ItemID] = append(byItem[a.ItemID], a)
	}
	for i := range items {
		items[i].Attachments = byItem[items[i].ID]
	}
	return items, nil
}

func (s *Store) GetItem(ctx context.Context, id string) (model.Item, error) {
	var it model.Item
	err := s.db.GetContext(ctx, &it,
		`select id, project_id, parent_id, content, is_checklist, is_completed, position, created_at, updated_at
		 from items where id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, ErrNotFound
	}
	return it, err
}

// ItemOwner resolves an item to its project and the project's owner, for
// authorization checks.
func (s *Store) ItemOwner(ctx context.Context, itemID string) (projectID string, userID int64, err error) {
	var row struct {
		ProjectID string `db:"project_id"`
		UserID    int64  `db:"user_id"`
	}
	err = s.db.GetContext(ctx, &row,
		`select i.project_id, p.user_id from items i join projects p on p.id = i.project_id where i.id = $1`, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, ErrNotFound
	}
	return row.ProjectID, row.UserID, err
}

// ChildrenOf is the fresh sibling read the completion engine uses during
// ancestor propagation.
func (s *Store) ChildrenOf(ctx context.Context, itemID string) ([]model.Item, error) {
	var out []model.Item
	err := s.db.SelectContext(ctx, &out,
		`select id, project_id, parent_id, content, is_checklist, is_completed, position, created_at, updated_at
		 from items where parent_id = $1 order by position, created_at, id`, itemID)
	return out, err
}

// CreateItem inserts a new item after its current last sibling. Positions are
// not re-packed on delete, so gaps are expected.
func (s *Store) CreateItem(ctx context.Context, projectID string, parentID *string, content string, isChecklist bool) (model.Item, error) {
	var completed *bool
	if isChecklist {
		f := false
		completed = &f
	}
	var it model.Item
	err := s.db.GetContext(ctx, &it,
		`insert into items(id, project_id, parent_id, content, is_checklist, is_completed, position)
		 values($1, $2, $3, $4, $5, $6,
		        (select coalesce(max(position), 0) + 1 from items
		         where project_id = $2 and parent_id is not distinct from $3))
		 returning id, project_id, parent_id, content, is_checklist, is_completed, position, created_at, updated_at`,
		uuid.NewString(), projectID, parentID, content, isChecklist, completed)
	return it, err
}

// UpdateItem edits content and/or converts between note and task. Converting
// a task to a note clears its completion state; a fresh task starts
// incomplete.
func (s *Store) UpdateItem(ctx context.Context, id string, content *string, isChecklist *bool) error {
	set := []string{"updated_at = now()"}
	args := []any{}
	idx := 1
	if content != nil {
		set = append(set, fmt.Sprintf("content = $%d", idx))
		args = append(args, *content)
		idx++
	}
	if isChecklist != nil {
		set = append(set, fmt.Sprintf("is_checklist = $%d", idx))
		args = append(args, *isChecklist)
		idx++
		if *isChecklist {
			set = append(set, "is_completed = coalesce(is_completed, false)")
		} else {
			set = append(set, "is_completed = null")
		}
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("update items set %s where id = $%d", strings.Join(set, ", "), idx), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCompleted is the completion engine's batched write.
func (s *Store) SetCompleted(ctx context.Context, ids []string, completed bool) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := s.in(
		`update items set is_completed = ?, updated_at = now() where id in (?)`, completed, ids)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

// ApplyMovePlan issues a move plan's writes sequentially: the moved item
// first, then the target group renumbering, then the source group. There is
// no wrapping transaction; on failure the returned count says how many writes
// were confirmed before the sequence aborted.
func (s *Store) ApplyMovePlan(ctx context.Context, plan tree.MovePlan) (applied int, err error) {
	_, err = s.db.ExecContext(ctx,
		`update items set parent_id = $1, position = $2, updated_at = now() where id = $3`,
		plan.Item.ParentID, plan.Item.Position, plan.Item.ID)
	if err != nil {
		return 0, err
	}
	applied = 1
	for _, batch := range [][]tree.PositionWrite{plan.Target, plan.Source} {
		for _, w := range batch {
			if _, err := s.db.ExecContext(ctx,
				`update items set position = $1, updated_at = now() where id = $2`, w.Position, w.ID); err != nil {
				return applied, err
			}
			applied++
		}
	}
	return applied, nil
}

// DeleteItems removes the given items. Callers pass an item together with its
// descendant set; the FK cascade would catch stragglers, but attachments must
// be collected by the caller beforehand so backing files can be removed too.
func (s *Store) DeleteItems(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := s.in(`delete from items where id in (?)`, ids)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
