package domain

// NotificationSeverity is the tone of a user-facing notification.
type NotificationSeverity string

// Notification severities understood by view layers.
const (
	NotifySuccess NotificationSeverity = "success"
	NotifyError   NotificationSeverity = "error"
	NotifyInfo    NotificationSeverity = "info"
)

// Notifier receives user-facing feedback emitted by mutating operations.
type Notifier interface {
	Notify(severity NotificationSeverity, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(severity NotificationSeverity, message string)

// Notify calls f.
func (f NotifierFunc) Notify(severity NotificationSeverity, message string) {
	f(severity, message)
}
