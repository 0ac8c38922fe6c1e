package model

import "time"

type Project struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description"`
	UserID      int64     `db:"user_id" json:"user_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Item is one node of a project's tree. parent_id links items into a forest;
// position orders items within their sibling group.
type Item struct {
	ID          string  `db:"id" json:"id"`
	ProjectID   string  `db:"project_id" json:"project_id"`
	ParentID    *string `db:"parent_id" json:"parent_id"`
	Content     string  `db:"content" json:"content"`
	IsChecklist bool    `db:"is_checklist" json:"is_checklist"`
	// IsCompleted is meaningful only when IsChecklist is true; notes keep it null.
	IsCompleted *bool     `db:"is_completed" json:"is_completed"`
	Position    int       `db:"position" json:"position"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	Attachments []Attachment `db:"-" json:"item_attachments"`
}

// Completed reports the effective completion state.
func (it Item) Completed() bool { return it.IsCompleted != nil && *it.IsCompleted }

// Parent returns the parent id, or "" for a root item.
func (it Item) Parent() string {
	if it.ParentID == nil {
		return ""
	}
	return *it.ParentID
}

const (
	AttachmentImage = "image"
	AttachmentURL   = "url"
)

type Attachment struct {
	ID             string    `db:"id" json:"id"`
	ItemID         string    `db:"item_id" json:"item_id"`
	AttachmentType string    `db:"attachment_type" json:"attachment_type"`
	URL            string    `db:"url" json:"url"`
	Label          *string   `db:"label" json:"label,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type User struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ProjectPrefs is per-user display state for a project: which items are
// collapsed and whether focus mode is on. It never influences the data tree.
type ProjectPrefs struct {
	FocusMode bool     `json:"focus_mode"`
	Collapsed []string `json:"collapsed"`
}
