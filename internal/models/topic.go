package models

// TopicNotificationRequest is the input of the sendTopicNotification callable
type TopicNotificationRequest struct {
	Topic string           `json:"topic" validate:"required"`
	Title string           `json:"title" validate:"required"`
	Body  string           `json:"body,omitempty"`
	Type  NotificationType `json:"type,omitempty"`
}

// DisplayBody falls back to the announcement text
func (r TopicNotificationRequest) DisplayBody() string {
	if r.Body != "" {
		return r.Body
	}
	return AnnouncementBody
}

// DataType defaults to announcement
func (r TopicNotificationRequest) DataType() NotificationType {
	if r.Type == "" {
		return TypeAnnouncement
	}
	return r.Type
}

// TopicNotificationResult is returned to the callable client
type TopicNotificationResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}
