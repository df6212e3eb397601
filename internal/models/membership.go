package models

import "time"

// Membership statuses. "Freezed" keeps the spelling used by the mobile
// clients and the billing tables.
const (
	MembershipActive    = "Active"
	MembershipExpired   = "Expired"
	MembershipCancelled = "Cancelled"
	MembershipFreezed   = "Freezed"
)

type Membership struct {
	ID        int64      `json:"id"`
	MemberID  int64      `json:"member_id"`
	Status    string     `json:"status"`
	Plan      string     `json:"plan"`
	StartsAt  time.Time  `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// StatusBlocksMessaging reports whether a billing status revokes the
// member's messaging privileges.
func StatusBlocksMessaging(status string) bool {
	switch status {
	case MembershipExpired, MembershipCancelled, MembershipFreezed:
		return true
	default:
		return false
	}
}
