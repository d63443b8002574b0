package models

import "time"

// NotificationType identifies the app event behind a push notification
type NotificationType string

const (
	TypeLike         NotificationType = "like"
	TypeComment      NotificationType = "comment"
	TypeNewFollower  NotificationType = "newFollower"
	TypeNewMessage   NotificationType = "newMessage"
	TypeNewPost      NotificationType = "newPost"
	TypeNewReel      NotificationType = "newReel"
	TypeAnnouncement NotificationType = "announcement"
	TypeGeneral      NotificationType = "general"
)

const (
	// FallbackBody is used for types without an entry in the default body table.
	FallbackBody = "You have a new notification"
	// AnnouncementBody is the default body of topic broadcasts.
	AnnouncementBody = "You have a new announcement"
)

var defaultBodies = map[NotificationType]string{
	TypeLike:        "liked your content",
	TypeComment:     "commented on your content",
	TypeNewFollower: "started following you",
	TypeNewMessage:  "sent you a message",
	TypeNewPost:     "posted new content",
	TypeNewReel:     "posted a new reel",
}

// DefaultBody returns the body text shown when a request carries no body
func (t NotificationType) DefaultBody() string {
	if body, ok := defaultBodies[t]; ok {
		return body
	}
	return FallbackBody
}

// PushNotification is a notification request stored in the push_notifications collection.
// It is created by the app and written back exactly once by the dispatcher.
type PushNotification struct {
	ID       string           `json:"id,omitempty" firestore:"-" bson:"_id" gorm:"primaryKey;size:128"`
	UserID   string           `json:"userId" firestore:"userId" bson:"userId" gorm:"size:128;index"`
	Title    string           `json:"title" firestore:"title" bson:"title"`
	Body     string           `json:"body,omitempty" firestore:"body,omitempty" bson:"body,omitempty"`
	Type     NotificationType `json:"type,omitempty" firestore:"type,omitempty" bson:"type,omitempty" gorm:"size:30"`
	PostID   string           `json:"postId,omitempty" firestore:"postId,omitempty" bson:"postId,omitempty"`
	ChatID   string           `json:"chatId,omitempty" firestore:"chatId,omitempty" bson:"chatId,omitempty"`
	ImageURL string           `json:"imageUrl,omitempty" firestore:"imageUrl,omitempty" bson:"imageUrl,omitempty"`

	// Outcome fields, owned by the dispatcher
	Sent                 bool       `json:"sent" firestore:"sent" bson:"sent"`
	SentAt               *time.Time `json:"sentAt,omitempty" firestore:"sentAt,omitempty" bson:"sentAt,omitempty"`
	SuccessCount         *int       `json:"successCount,omitempty" firestore:"successCount,omitempty" bson:"successCount,omitempty"`
	TotalTokens          *int       `json:"totalTokens,omitempty" firestore:"totalTokens,omitempty" bson:"totalTokens,omitempty"`
	InvalidTokensRemoved *int       `json:"invalidTokensRemoved,omitempty" firestore:"invalidTokensRemoved,omitempty" bson:"invalidTokensRemoved,omitempty"`
	Error                string     `json:"error,omitempty" firestore:"error,omitempty" bson:"error,omitempty"`
	ErrorAt              *time.Time `json:"errorAt,omitempty" firestore:"errorAt,omitempty" bson:"errorAt,omitempty"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt" bson:"createdAt" gorm:"index"`
}

// TableName keeps the relational table aligned with the document collection name
func (PushNotification) TableName() string {
	return "push_notifications"
}

// HasRequiredFields reports whether the request names a recipient and a title
func (n *PushNotification) HasRequiredFields() bool {
	return n.UserID != "" && n.Title != ""
}

// DisplayBody is the explicit body, or the type's default when empty
func (n *PushNotification) DisplayBody() string {
	if n.Body != "" {
		return n.Body
	}
	return n.Type.DefaultBody()
}

// DataType is the type sent in the data payload; absent types are reported as general.
func (n *PushNotification) DataType() NotificationType {
	if n.Type == "" {
		return TypeGeneral
	}
	return n.Type
}
