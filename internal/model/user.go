package model

import "time"

// NotifyFrequency is how often a user wants a portfolio push notification.
type NotifyFrequency string

const (
	NotifyNone      NotifyFrequency = "none"
	NotifyOpen      NotifyFrequency = "open"
	NotifyOpenClose NotifyFrequency = "open_close"
	NotifyHourly    NotifyFrequency = "hourly"
	NotifyTwoHours  NotifyFrequency = "2hours"
)

// ValidNotifyFrequency contains the accepted frequency values.
var ValidNotifyFrequency = map[NotifyFrequency]bool{
	NotifyNone:      true,
	NotifyOpen:      true,
	NotifyOpenClose: true,
	NotifyHourly:    true,
	NotifyTwoHours:  true,
}

// User is an account record from the user registry.
// PushoverKeyEnc holds the fernet-encrypted Pushover user key; it is never
// serialised to API responses.
type User struct {
	Username       string          `json:"username"`
	PasswordHash   string          `json:"-"`
	PushoverKeyEnc string          `json:"-"`
	NotifyFreq     NotifyFrequency `json:"notifyFreq"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Settings is the user-editable part of an account.
type Settings struct {
	Username    string          `json:"username"`
	PushoverKey string          `json:"pushoverKey"`
	NotifyFreq  NotifyFrequency `json:"notifyFreq"`
}
