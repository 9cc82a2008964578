package models

import (
	"encoding/json"
	"fmt"
)

// Notification is a server-side user notification.
type Notification struct {
	CreatedAt      Timestamp `json:"createdAt"`
	ReadAt         Timestamp `json:"readAt"`
	Type           string    `json:"type"`
	Message        string    `json:"message"`
	NotificationID int64     `json:"notificationId"`
	Read           bool      `json:"read"`
}

// UnmarshalJSON accepts both "read" and "isRead" for the read flag.
func (n *Notification) UnmarshalJSON(data []byte) error {
	type alias Notification
	var wire struct {
		IsRead *bool `json:"isRead"`
		alias
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("notification: %w", err)
	}
	*n = Notification(wire.alias)
	if wire.IsRead != nil {
		n.Read = n.Read || *wire.IsRead
	}
	return nil
}
