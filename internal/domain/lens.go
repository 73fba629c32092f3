package domain

import "time"

// Lens is an alternate presentation of a wiki page (a MultiDocument). Its
// "contents" field is revision-tracked and, unlike the tag it belongs to,
// a lens can be drafted before it is published.
type Lens struct {
	ID      string `gorm:"column:id;primaryKey;type:char(36)" json:"id"`
	TagID   string `gorm:"column:tag_id;type:char(36);index" json:"tag_id"`
	UserID  string `gorm:"column:user_id;type:char(36);index" json:"user_id"`
	Title   string `gorm:"column:title;type:varchar(255)" json:"title"`
	Draft   bool   `gorm:"column:draft" json:"draft"`
	Deleted bool   `gorm:"column:deleted" json:"deleted"`

	ContentsLatest    string    `gorm:"column:contents_latest;type:char(36)" json:"contents_latest"`
	ContentsHTML      string    `gorm:"column:contents_html;type:mediumtext" json:"contents_html"`
	ContentsVersion   string    `gorm:"column:contents_version;type:varchar(20)" json:"contents_version"`
	ContentsUserID    string    `gorm:"column:contents_user_id;type:char(36)" json:"contents_user_id"`
	ContentsEditedAt  time.Time `gorm:"column:contents_edited_at" json:"contents_edited_at"`
	ContentsWordCount int       `gorm:"column:contents_word_count" json:"contents_word_count"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Lens) TableName() string { return "lenses" }

func (l *Lens) Kind() DocumentKind { return KindLenses }
func (l *Lens) GetID() string      { return l.ID }
func (l *Lens) SetID(id string)    { l.ID = id }
func (l *Lens) AuthorID() string   { return l.UserID }
func (l *Lens) IsDraft() bool      { return l.Draft }

func (l *Lens) LatestRevisionID(field string) string {
	if field == FieldContents {
		return l.ContentsLatest
	}
	return ""
}

func (l *Lens) SetLatestRevision(field, revisionID string) {
	if field == FieldContents {
		l.ContentsLatest = revisionID
	}
}

func (l *Lens) SetContentSnapshot(field string, snap ContentSnapshot) {
	if field != FieldContents {
		return
	}
	l.ContentsHTML = snap.HTML
	l.ContentsVersion = snap.Version
	l.ContentsUserID = snap.UserID
	l.ContentsEditedAt = snap.EditedAt
	l.ContentsWordCount = snap.WordCount
}

func (l *Lens) CanRead(user *User) bool {
	if l.Deleted {
		return false
	}
	if !l.Draft {
		return true
	}
	return user != nil && (user.ID == l.UserID || user.IsAdmin())
}
