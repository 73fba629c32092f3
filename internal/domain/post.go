package domain

import "time"

// FieldContents is the editable field name shared by posts, comments and
// lenses. Tags use FieldDescription.
const (
	FieldContents    = "contents"
	FieldDescription = "description"
)

// ShareEntry grants one user a collaborative-editing access level on a
// shared draft post.
type ShareEntry struct {
	UserID string `json:"user_id"`
	Level  string `json:"level"` // read, comment, edit
}

// Post is a forum post. Its "contents" field is revision-tracked.
type Post struct {
	ID       string `gorm:"column:id;primaryKey;type:char(36)" json:"id"`
	UserID   string `gorm:"column:user_id;type:char(36);index" json:"user_id"`
	Title    string `gorm:"column:title;type:varchar(255)" json:"title"`
	Draft    bool   `gorm:"column:draft" json:"draft"`
	Debate   bool   `gorm:"column:debate" json:"debate"`
	Deleted  bool   `gorm:"column:deleted" json:"deleted"`
	Unlisted bool   `gorm:"column:unlisted" json:"unlisted"`

	// Shared-draft collaborators and extracted pingbacks, stored as JSON.
	ShareWith []ShareEntry `gorm:"column:share_with;type:json;serializer:json" json:"share_with,omitempty"`
	Pingbacks PingbackSet  `gorm:"column:pingbacks;type:json;serializer:json" json:"pingbacks,omitempty"`

	// Latest-revision pointer and denormalized content cache.
	ContentsLatest    string    `gorm:"column:contents_latest;type:char(36)" json:"contents_latest"`
	ContentsHTML      string    `gorm:"column:contents_html;type:mediumtext" json:"contents_html"`
	ContentsVersion   string    `gorm:"column:contents_version;type:varchar(20)" json:"contents_version"`
	ContentsUserID    string    `gorm:"column:contents_user_id;type:char(36)" json:"contents_user_id"`
	ContentsEditedAt  time.Time `gorm:"column:contents_edited_at" json:"contents_edited_at"`
	ContentsWordCount int       `gorm:"column:contents_word_count" json:"contents_word_count"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Post) TableName() string { return "posts" }

func (p *Post) Kind() DocumentKind { return KindPosts }
func (p *Post) GetID() string      { return p.ID }
func (p *Post) SetID(id string)    { p.ID = id }
func (p *Post) AuthorID() string   { return p.UserID }
func (p *Post) IsDraft() bool      { return p.Draft }

func (p *Post) LatestRevisionID(field string) string {
	if field == FieldContents {
		return p.ContentsLatest
	}
	return ""
}

func (p *Post) SetLatestRevision(field, revisionID string) {
	if field == FieldContents {
		p.ContentsLatest = revisionID
	}
}

func (p *Post) SetContentSnapshot(field string, snap ContentSnapshot) {
	if field != FieldContents {
		return
	}
	p.ContentsHTML = snap.HTML
	p.ContentsVersion = snap.Version
	p.ContentsUserID = snap.UserID
	p.ContentsEditedAt = snap.EditedAt
	p.ContentsWordCount = snap.WordCount
}

// CanRead applies the post's normal visibility rules: deleted posts are
// hidden, drafts are visible only to the author, admins and collaborators.
func (p *Post) CanRead(user *User) bool {
	if p.Deleted {
		return false
	}
	if !p.Draft {
		return true
	}
	if user == nil {
		return false
	}
	return user.ID == p.UserID || user.IsAdmin() || p.CollabAccessFor(user).Can(AccessRead)
}

// CollabAccessFor evaluates the collaborative-editing access level of a user
// on this post. Authors and admins hold edit access; shared users hold the
// granted level; published posts grant read to everyone.
func (p *Post) CollabAccessFor(user *User) AccessLevel {
	if user != nil {
		if user.ID == p.UserID || user.IsAdmin() {
			return AccessEdit
		}
		for _, s := range p.ShareWith {
			if s.UserID == user.ID {
				return ParseAccessLevel(s.Level)
			}
		}
	}
	if !p.Draft && !p.Deleted {
		return AccessRead
	}
	return AccessNone
}

func (p *Post) SetPingbacks(set PingbackSet) { p.Pingbacks = set }
func (p *Post) GetPingbacks() PingbackSet    { return p.Pingbacks }
