// Package chat holds the persistent entities shared across modules.
package chat

import "time"

// User is a chat participant. Presence (IsOnline/LastSeen) is written by the
// store module when it consumes relay presence events; the in-memory registry
// remains the source of truth while the process is up.
type User struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Mobile       string    `json:"mobile,omitempty"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Status       string    `json:"status,omitempty"`
	IsOnline     bool      `json:"isOnline"`
	LastSeen     time.Time `json:"lastSeen"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Group is a named chat group. Members is populated on reads that need the
// externally visible shape.
type Group struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Name         string    `json:"name"`
	ProfileImage string    `json:"profileImage,omitempty"`
	CreatedByID  string    `gorm:"index" json:"createdBy"`
	Members      []User    `gorm:"many2many:group_members" json:"members"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Attachment is file metadata carried by a message. The file itself is
// uploaded out of band; the relay only forwards the descriptor.
type Attachment struct {
	Filename     string `json:"filename,omitempty"`
	OriginalName string `json:"originalName,omitempty"`
	MimeType     string `json:"mimeType,omitempty"`
	Size         int64  `json:"size,omitempty"`
}

// Message is a persisted chat message. Exactly one of ReceiverID (direct) or
// GroupID (group) is set. The populated representation carries the full
// sender and reply-to objects.
type Message struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	SenderID    string     `gorm:"index" json:"-"`
	Sender      *User      `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID  *string    `gorm:"index" json:"receiver,omitempty"`
	GroupID     *string    `gorm:"index" json:"group,omitempty"`
	Content     string     `json:"content,omitempty"`
	Attachment  Attachment `gorm:"embedded;embeddedPrefix:attachment_" json:"attachment,omitempty"`
	Read        bool       `json:"read"`
	Edited      bool       `json:"edited"`
	IsDeleted   bool       `json:"isDeleted"`
	IsForwarded bool       `json:"isForwarded"`
	ReplyToID   *string    `json:"-"`
	ReplyTo     *Message   `gorm:"foreignKey:ReplyToID" json:"replyTo,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// HasAttachment reports whether the message carries a file descriptor.
func (m *Message) HasAttachment() bool {
	return m.Attachment.Filename != ""
}
