package domain

import "time"

// Tag is a wiki page. Its "description" field is revision-tracked. Wiki
// pages have no draft concept: tag revisions are never drafts regardless of
// their version major (see VersionIsDraft).
type Tag struct {
	ID      string `gorm:"column:id;primaryKey;type:char(36)" json:"id"`
	UserID  string `gorm:"column:user_id;type:char(36);index" json:"user_id"`
	Name    string `gorm:"column:name;type:varchar(255)" json:"name"`
	Slug    string `gorm:"column:slug;type:varchar(255);uniqueIndex" json:"slug"`
	Deleted bool   `gorm:"column:deleted" json:"deleted"`

	Pingbacks PingbackSet `gorm:"column:pingbacks;type:json;serializer:json" json:"pingbacks,omitempty"`

	DescriptionLatest    string    `gorm:"column:description_latest;type:char(36)" json:"description_latest"`
	DescriptionHTML      string    `gorm:"column:description_html;type:mediumtext" json:"description_html"`
	DescriptionVersion   string    `gorm:"column:description_version;type:varchar(20)" json:"description_version"`
	DescriptionUserID    string    `gorm:"column:description_user_id;type:char(36)" json:"description_user_id"`
	DescriptionEditedAt  time.Time `gorm:"column:description_edited_at" json:"description_edited_at"`
	DescriptionWordCount int       `gorm:"column:description_word_count" json:"description_word_count"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Tag) TableName() string { return "tags" }

func (t *Tag) Kind() DocumentKind { return KindTags }
func (t *Tag) GetID() string      { return t.ID }
func (t *Tag) SetID(id string)    { t.ID = id }
func (t *Tag) AuthorID() string   { return t.UserID }
func (t *Tag) IsDraft() bool      { return false }

func (t *Tag) LatestRevisionID(field string) string {
	if field == FieldDescription {
		return t.DescriptionLatest
	}
	return ""
}

func (t *Tag) SetLatestRevision(field, revisionID string) {
	if field == FieldDescription {
		t.DescriptionLatest = revisionID
	}
}

func (t *Tag) SetContentSnapshot(field string, snap ContentSnapshot) {
	if field != FieldDescription {
		return
	}
	t.DescriptionHTML = snap.HTML
	t.DescriptionVersion = snap.Version
	t.DescriptionUserID = snap.UserID
	t.DescriptionEditedAt = snap.EditedAt
	t.DescriptionWordCount = snap.WordCount
}

func (t *Tag) CanRead(_ *User) bool { return !t.Deleted }

func (t *Tag) SetPingbacks(set PingbackSet) { t.Pingbacks = set }
func (t *Tag) GetPingbacks() PingbackSet    { return t.Pingbacks }
