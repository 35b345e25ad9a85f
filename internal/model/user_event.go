package model

import "time"

const (
	UserEventRegistered = "user.registered"
	UserEventDeleted    = "user.deleted"
)

// UserEvent is the payload published to the user event queue on
// account lifecycle changes. It carries no credential material.
type UserEvent struct {
	Type       string    `json:"type"`
	UserID     uint      `json:"user_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}
