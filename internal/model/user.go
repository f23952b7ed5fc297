package model

import "fmt"

// NotificationStatus is the delivery state of a user's one-shot notification.
// It only moves forward: pending -> ready_to_notify -> sent.
type NotificationStatus string

const (
	StatusPending       NotificationStatus = "pending"
	StatusReadyToNotify NotificationStatus = "ready_to_notify"
	StatusSent          NotificationStatus = "sent"
)

var statusLabels = map[NotificationStatus]string{
	StatusPending:       "ожидание",
	StatusReadyToNotify: "ознакомить",
	StatusSent:          "отправлено",
}

// Label returns the human-readable name shown in bot replies.
func (s NotificationStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether s is one of the known statuses.
func (s NotificationStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// LegacyStatuses maps labels stored by older deployments to canonical values.
func LegacyStatuses() map[string]NotificationStatus {
	out := make(map[string]NotificationStatus, len(statusLabels))
	for status, label := range statusLabels {
		out[label] = status
	}
	return out
}

// User is a registered Telegram user.
type User struct {
	UserID             int64              `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	Username           *string            `gorm:"column:username"`
	NotificationStatus NotificationStatus `gorm:"column:notification_status;type:text;default:'pending'"`
}

func (User) TableName() string { return "users" }

// DisplayName is the username, or user<id> when none was stored.
func (u User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return fmt.Sprintf("user%d", u.UserID)
}
