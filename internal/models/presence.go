package models

import "time"

// PresenceRecord is the persisted mirror of the in-process session
// registry. Rows are created on first connection and never deleted, so
// "last seen" survives disconnects.
type PresenceRecord struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	UserType  string    `json:"user_type"`
	IsOnline  bool      `json:"is_online"`
	SocketID  *string   `json:"socket_id"`
	LastSeen  time.Time `json:"last_seen"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
