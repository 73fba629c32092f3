package domain

import "time"

// NotificationTypeMention marks a notification created because the user was
// @-mentioned in edited content.
const NotificationTypeMention = "mention"

// Notification represents a user notification
type Notification struct {
	ID         uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID     string `gorm:"column:user_id;type:char(36);index" json:"user_id"`
	Type       string `gorm:"column:type;type:varchar(32)" json:"type"`
	Title      string `gorm:"column:title;type:varchar(255)" json:"title"`
	URL        string `gorm:"column:url;type:varchar(500)" json:"url,omitempty"`
	SenderID   string `gorm:"column:sender_id;type:char(36)" json:"sender_id,omitempty"`
	SenderName string `gorm:"column:sender_name;type:varchar(100)" json:"sender_name,omitempty"`
	// Origin document of the mention; used to suppress duplicate mention
	// notifications when the same document is edited again.
	DocumentKind DocumentKind `gorm:"column:document_kind;type:varchar(32);index:idx_notifications_doc,priority:1" json:"document_kind,omitempty"`
	DocumentID   string       `gorm:"column:document_id;type:char(36);index:idx_notifications_doc,priority:2" json:"document_id,omitempty"`
	IsRead       bool         `gorm:"column:is_read" json:"is_read"`
	CreatedAt    time.Time    `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name
func (Notification) TableName() string {
	return "notifications"
}
