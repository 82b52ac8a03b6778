package domain

import "time"

// NotificationState tracks a write from submission to its outcome.
type NotificationState string

const (
	NotificationPending NotificationState = "pending"
	NotificationSuccess NotificationState = "success"
	NotificationFailure NotificationState = "failure"
)

// NotificationKind is the kind of write being tracked.
type NotificationKind string

const (
	KindCreate NotificationKind = "create"
	KindUpdate NotificationKind = "update"
	KindDelete NotificationKind = "delete"
	KindUpload NotificationKind = "upload"
)

// Notification is the UI's record of one mutating call: shown as pending
// while the backend works, then as success or failure.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Kind      NotificationKind  `json:"kind"`
	Resource  string            `json:"resource"`
	Label     string            `json:"label"`
	State     NotificationState `json:"state"`
	Message   string            `json:"message,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Settled reports whether the write has finished.
func (n Notification) Settled() bool {
	return n.State == NotificationSuccess || n.State == NotificationFailure
}
