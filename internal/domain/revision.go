package domain

import "time"

// UpdateType classifies how large an edit is. It is supplied by the editor
// and drives the semantic version bump of the next revision.
type UpdateType string

const (
	UpdateTypeInitial UpdateType = "initial"
	UpdateTypePatch   UpdateType = "patch"
	UpdateTypeMinor   UpdateType = "minor"
	UpdateTypeMajor   UpdateType = "major"
)

// Valid reports whether t is one of the four known update types.
func (t UpdateType) Valid() bool {
	switch t {
	case UpdateTypeInitial, UpdateTypePatch, UpdateTypeMinor, UpdateTypeMajor:
		return true
	}
	return false
}

// ContentPayload is the raw editor payload. It is the source of truth for a
// revision; HTML is derived from it and cached.
type ContentPayload struct {
	Type string `json:"type"` // html, markdown, richdoc
	Data string `json:"data"`
}

// IsEmpty reports whether the payload carries no content at all.
func (p ContentPayload) IsEmpty() bool {
	return p.Data == ""
}

// ChangeMetrics is the size-of-diff signal between consecutive revisions,
// counted in characters.
type ChangeMetrics struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Revision is an immutable snapshot of one editable field's content.
// Rows are append-only: the normal write path never updates or deletes them,
// with the single exception of back-filling DocumentID after a create flow
// (the owning document has no id yet when its first revision is written).
type Revision struct {
	ID               string         `gorm:"column:id;primaryKey;type:char(36)" json:"id"`
	DocumentID       string         `gorm:"column:document_id;type:char(36);index:idx_revisions_chain,priority:1" json:"document_id"`
	CollectionName   DocumentKind   `gorm:"column:collection_name;type:varchar(32);index:idx_revisions_chain,priority:3" json:"collection_name"`
	FieldName        string         `gorm:"column:field_name;type:varchar(64);index:idx_revisions_chain,priority:2" json:"field_name"`
	Version          string         `gorm:"column:version;type:varchar(20)" json:"version"`
	Draft            bool           `gorm:"column:draft" json:"draft"`
	UpdateType       UpdateType     `gorm:"column:update_type;type:varchar(10)" json:"update_type"`
	OriginalContents ContentPayload `gorm:"column:original_contents;type:json;serializer:json" json:"original_contents"`
	HTML             string         `gorm:"column:html;type:mediumtext" json:"html"`
	WordCount        int            `gorm:"column:word_count" json:"word_count"`
	ChangeMetrics    ChangeMetrics  `gorm:"column:change_metrics;type:json;serializer:json" json:"change_metrics"`
	CommitMessage    string         `gorm:"column:commit_message;type:varchar(500)" json:"commit_message,omitempty"`
	UserID           string         `gorm:"column:user_id;type:char(36);index" json:"user_id"`
	SkipAttributions bool           `gorm:"column:skip_attributions" json:"skip_attributions"`
	BaseScore        int            `gorm:"column:base_score" json:"base_score"`
	VoteCount        int            `gorm:"column:vote_count" json:"vote_count"`
	EditedAt         time.Time      `gorm:"column:edited_at;index:idx_revisions_chain,priority:4" json:"edited_at"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Revision) TableName() string { return "revisions" }

// ContentSnapshot is the denormalized copy of the latest revision kept on the
// owning document for fast reads without a join.
type ContentSnapshot struct {
	HTML      string    `json:"html"`
	Version   string    `json:"version"`
	UserID    string    `json:"user_id"`
	EditedAt  time.Time `json:"edited_at"`
	WordCount int       `json:"word_count"`
}
