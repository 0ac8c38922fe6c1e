package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"nestlist/internal/model"
)

func (s *Store) CreateAttachment(ctx context.Context, itemID, attachmentType, url string, label *string) (model.Attachment, error) {
	var a model.Attachment
	err := s.db.GetContext(ctx, &a,
		`insert into item_attachments(id, item_id, attachment_type, url, label)
		 values($1, $2, $3, $4, $5)
		 returning id, item_id, attachment_type, url, label, created_at`,
		uuid.NewString(), itemID, attachmentType, url, label)
	return a, err
}

func (s *Store) GetAttachment(ctx context.Context, id string) (model.Attachment, error) {
	var a model.Attachment
	err := s.db.GetContext(ctx, &a,
		`select id, item_id, attachment_type, url, label, created_at from item_attachments where id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Attachment{}, ErrNotFound
	}
	return a, err
}

// AttachmentsByItems loads the attachment rows for a set of items, ordered so
// each item's attachments come back in creation order.
func (s *Store) AttachmentsByItems(ctx context.Context, itemIDs []string) ([]model.Attachment, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	query, args, err := s.in(
		`select id, item_id, attachment_type, url, label, created_at
		 from item_attachments where item_id in (?) order by created_at, id`, itemIDs)
	if err != nil {
		return nil, err
	}
	var out []model.Attachment
	err = s.db.SelectContext(ctx, &out, query, args...)
	return out, err
}

func (s *Store) DeleteAttachment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from item_attachments where id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
