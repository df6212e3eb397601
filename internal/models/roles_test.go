package models

import "testing"

func TestStorageSenderTypeMapsMemberToClient(t *testing.T) {
	senderType, ok := StorageSenderType(RoleMember)
	if !ok || senderType != SenderTypeClient {
		t.Fatalf("expected member to map to client, got %q ok=%v", senderType, ok)
	}

	senderType, ok = StorageSenderType(RoleTrainer)
	if !ok || senderType != SenderTypeTrainer {
		t.Fatalf("expected trainer to map to trainer, got %q ok=%v", senderType, ok)
	}

	if _, ok := StorageSenderType("admin"); ok {
		t.Fatal("expected unknown role to be rejected")
	}
}

func TestRoleFromSenderTypeRoundTrips(t *testing.T) {
	for _, role := range []string{RoleMember, RoleTrainer} {
		senderType, ok := StorageSenderType(role)
		if !ok {
			t.Fatalf("StorageSenderType(%q) rejected", role)
		}
		back, ok := RoleFromSenderType(senderType)
		if !ok || back != role {
			t.Fatalf("round trip for %q gave %q ok=%v", role, back, ok)
		}
	}

	if _, ok := RoleFromSenderType("member"); ok {
		t.Fatal("expected raw role string to be rejected as a sender type")
	}
}

func TestStatusBlocksMessaging(t *testing.T) {
	for _, status := range []string{MembershipExpired, MembershipCancelled, MembershipFreezed} {
		if !StatusBlocksMessaging(status) {
			t.Fatalf("expected %q to block messaging", status)
		}
	}
	if StatusBlocksMessaging(MembershipActive) {
		t.Fatal("expected Active to allow messaging")
	}
}
