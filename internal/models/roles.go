package models

// Account roles as stored on users and carried in JWT claims.
const (
	RoleMember  = "member"
	RoleTrainer = "trainer"
)

// Sender types as persisted on chat messages. A member's role is stored
// as "client" on message rows; trainers keep their role name.
const (
	SenderTypeClient  = "client"
	SenderTypeTrainer = "trainer"
)

// StorageSenderType maps an account role to the sender type persisted on
// message rows. It is the single place the member->client mapping lives;
// callers must never compare role strings against both forms inline.
func StorageSenderType(role string) (string, bool) {
	switch role {
	case RoleMember:
		return SenderTypeClient, true
	case RoleTrainer:
		return SenderTypeTrainer, true
	default:
		return "", false
	}
}

// RoleFromSenderType is the inverse of StorageSenderType.
func RoleFromSenderType(senderType string) (string, bool) {
	switch senderType {
	case SenderTypeClient:
		return RoleMember, true
	case SenderTypeTrainer:
		return RoleTrainer, true
	default:
		return "", false
	}
}
