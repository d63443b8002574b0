package models

// UserProfile is the part of a users document the dispatcher reads
type UserProfile struct {
	ID        string   `json:"id" firestore:"-" bson:"_id"`
	FCMTokens []string `json:"fcmTokens" firestore:"fcmTokens" bson:"fcmTokens"`
}

// User is the relational row for a profile. Tokens live in user_fcm_tokens.
type User struct {
	ID string `gorm:"primaryKey;size:128"`
}

// FCMToken is one registered device for a user
type FCMToken struct {
	UserID string `gorm:"primaryKey;size:128"`
	Token  string `gorm:"primaryKey;size:512"`
}

// TableName for FCMToken
func (FCMToken) TableName() string {
	return "user_fcm_tokens"
}
