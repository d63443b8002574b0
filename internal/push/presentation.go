package push

import (
	"fmt"

	"firebase.google.com/go/v4/messaging"
)

// ClickActionFlutter is the deep-link action tag the mobile shell listens for
const ClickActionFlutter = "FLUTTER_NOTIFICATION_CLICK"

// Presentation enumerates the platform hints attached to every message.
// Zero values are filled from DefaultPresentation by Normalize.
type Presentation struct {
	ClickAction string              `yaml:"click_action"`
	Android     AndroidPresentation `yaml:"android"`
	APNS        APNSPresentation    `yaml:"apns"`
}

// AndroidPresentation configures the Android notification block
type AndroidPresentation struct {
	Icon                  string `yaml:"icon"`
	Color                 string `yaml:"color"`
	ChannelID             string `yaml:"channel_id"`
	Priority              string `yaml:"priority"`
	DefaultSound          *bool  `yaml:"default_sound"`
	DefaultVibrateTimings *bool  `yaml:"default_vibrate_timings"`
}

// APNSPresentation configures the aps dictionary
type APNSPresentation struct {
	Badge *int   `yaml:"badge"`
	Sound string `yaml:"sound"`
}

// DefaultPresentation matches what the FaithConnect app registers on device
func DefaultPresentation() Presentation {
	yes := true
	badge := 1
	return Presentation{
		ClickAction: ClickActionFlutter,
		Android: AndroidPresentation{
			Icon:                  "ic_launcher",
			Color:                 "#6366F1",
			ChannelID:             "faith_connect_notifications",
			Priority:              "high",
			DefaultSound:          &yes,
			DefaultVibrateTimings: &yes,
		},
		APNS: APNSPresentation{
			Badge: &badge,
			Sound: "default",
		},
	}
}

// Normalize fills unset fields from the defaults and checks the priority name
func (p Presentation) Normalize() (Presentation, error) {
	def := DefaultPresentation()
	if p.ClickAction == "" {
		p.ClickAction = def.ClickAction
	}
	if p.Android.Icon == "" {
		p.Android.Icon = def.Android.Icon
	}
	if p.Android.Color == "" {
		p.Android.Color = def.Android.Color
	}
	if p.Android.ChannelID == "" {
		p.Android.ChannelID = def.Android.ChannelID
	}
	if p.Android.Priority == "" {
		p.Android.Priority = def.Android.Priority
	}
	if p.Android.DefaultSound == nil {
		p.Android.DefaultSound = def.Android.DefaultSound
	}
	if p.Android.DefaultVibrateTimings == nil {
		p.Android.DefaultVibrateTimings = def.Android.DefaultVibrateTimings
	}
	if p.APNS.Badge == nil {
		p.APNS.Badge = def.APNS.Badge
	}
	if p.APNS.Sound == "" {
		p.APNS.Sound = def.APNS.Sound
	}
	if _, err := notificationPriority(p.Android.Priority); err != nil {
		return p, err
	}
	return p, nil
}

func notificationPriority(name string) (messaging.AndroidNotificationPriority, error) {
	switch name {
	case "min":
		return messaging.PriorityMin, nil
	case "low":
		return messaging.PriorityLow, nil
	case "default":
		return messaging.PriorityDefault, nil
	case "high":
		return messaging.PriorityHigh, nil
	case "max":
		return messaging.PriorityMax, nil
	default:
		return messaging.PriorityDefault, fmt.Errorf("unknown android priority %q", name)
	}
}
