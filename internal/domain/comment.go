package domain

import (
	"errors"
	"time"
)

// ErrMissingAuthor rejects a comment with no author before anything is
// persisted.
var ErrMissingAuthor = errors.New("comment has no author")

// Comment is a reply on a post. Its "contents" field is revision-tracked.
// Comments created as the companion first comment of a debate post carry
// DebateResponse.
type Comment struct {
	ID             string `gorm:"column:id;primaryKey;type:char(36)" json:"id"`
	PostID         string `gorm:"column:post_id;type:char(36);index" json:"post_id"`
	UserID         string `gorm:"column:user_id;type:char(36);index" json:"user_id"`
	DebateResponse bool   `gorm:"column:debate_response" json:"debate_response"`
	Deleted        bool   `gorm:"column:deleted" json:"deleted"`

	ContentsLatest    string    `gorm:"column:contents_latest;type:char(36)" json:"contents_latest"`
	ContentsHTML      string    `gorm:"column:contents_html;type:mediumtext" json:"contents_html"`
	ContentsVersion   string    `gorm:"column:contents_version;type:varchar(20)" json:"contents_version"`
	ContentsUserID    string    `gorm:"column:contents_user_id;type:char(36)" json:"contents_user_id"`
	ContentsEditedAt  time.Time `gorm:"column:contents_edited_at" json:"contents_edited_at"`
	ContentsWordCount int       `gorm:"column:contents_word_count" json:"contents_word_count"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Comment) TableName() string { return "comments" }

func (c *Comment) Kind() DocumentKind { return KindComments }
func (c *Comment) GetID() string      { return c.ID }
func (c *Comment) SetID(id string)    { c.ID = id }
func (c *Comment) AuthorID() string   { return c.UserID }
func (c *Comment) IsDraft() bool      { return false }

func (c *Comment) LatestRevisionID(field string) string {
	if field == FieldContents {
		return c.ContentsLatest
	}
	return ""
}

func (c *Comment) SetLatestRevision(field, revisionID string) {
	if field == FieldContents {
		c.ContentsLatest = revisionID
	}
}

func (c *Comment) SetContentSnapshot(field string, snap ContentSnapshot) {
	if field != FieldContents {
		return
	}
	c.ContentsHTML = snap.HTML
	c.ContentsVersion = snap.Version
	c.ContentsUserID = snap.UserID
	c.ContentsEditedAt = snap.EditedAt
	c.ContentsWordCount = snap.WordCount
}

func (c *Comment) CanRead(_ *User) bool { return !c.Deleted }

// Validate is the pre-flight check used before committing a debate post:
// the companion first comment must itself be creatable.
func (c *Comment) Validate() error {
	if c.UserID == "" {
		return ErrMissingAuthor
	}
	return nil
}
