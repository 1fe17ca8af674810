// internal/models/notification.go
package models

type Notification struct {
	Template  string                 `json:"template"`
	Recipient string                 `json:"recipient"`
	Channel   string                 `json:"channel"` // "email", "sms"
	Status    string                 `json:"status"`  // "sent", "failed", "disabled"
	MessageID string                 `json:"messageId,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Payload   map[string]interface{} `json:"payload"`
	SentAt    string                 `json:"sentAt"`
}

type NotificationTemplate struct {
	ID       string `json:"id"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	HTMLBody string `json:"htmlBody,omitempty"`
	SMSBody  string `json:"smsBody,omitempty"`
}
