package push

import (
	"firebase.google.com/go/v4/messaging"
	"github.com/anonto42/faith-connect/functions/internal/models"
)

// Builder turns notification requests into FCM messages
type Builder struct {
	presentation Presentation
	priority     messaging.AndroidNotificationPriority
}

// NewBuilder creates a Builder from a presentation, normalizing it first
func NewBuilder(p Presentation) (*Builder, error) {
	p, err := p.Normalize()
	if err != nil {
		return nil, err
	}
	priority, _ := notificationPriority(p.Android.Priority)
	return &Builder{presentation: p, priority: priority}, nil
}

// DeviceMessage builds the template sent to every device of the recipient.
// The returned message has no target; use ForToken per device.
func (b *Builder) DeviceMessage(n *models.PushNotification) *messaging.Message {
	body := n.DisplayBody()
	p := b.presentation

	msg := &messaging.Message{
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  body,
		},
		Data: map[string]string{
			"type":         string(n.DataType()),
			"postId":       n.PostID,
			"chatId":       n.ChatID,
			"click_action": p.ClickAction,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Icon:                  p.Android.Icon,
				Color:                 p.Android.Color,
				ChannelID:             p.Android.ChannelID,
				Priority:              b.priority,
				DefaultSound:          *p.Android.DefaultSound,
				DefaultVibrateTimings: *p.Android.DefaultVibrateTimings,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: n.Title,
						Body:  body,
					},
					Badge: p.APNS.Badge,
					Sound: p.APNS.Sound,
				},
			},
		},
	}

	if n.ImageURL != "" {
		msg.Notification.ImageURL = n.ImageURL
		msg.Android.Notification.ImageURL = n.ImageURL
	}
	return msg
}

// TopicMessage builds a broadcast addressed to req.Topic
func (b *Builder) TopicMessage(req models.TopicNotificationRequest) *messaging.Message {
	p := b.presentation
	return &messaging.Message{
		Topic: req.Topic,
		Notification: &messaging.Notification{
			Title: req.Title,
			Body:  req.DisplayBody(),
		},
		Data: map[string]string{
			"type":         string(req.DataType()),
			"click_action": p.ClickAction,
		},
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				Icon:      p.Android.Icon,
				Color:     p.Android.Color,
				ChannelID: p.Android.ChannelID,
			},
		},
	}
}

// ForToken returns a shallow copy of template addressed to one device
func ForToken(template *messaging.Message, token string) *messaging.Message {
	msg := *template
	msg.Token = token
	msg.Topic = ""
	msg.Condition = ""
	return &msg
}
