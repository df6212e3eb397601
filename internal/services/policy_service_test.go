package services

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/arman-s/GymAppBack/internal/models"
)

type stubMembershipReader struct {
	status string
	err    error
}

func (s *stubMembershipReader) GetStatusByMemberID(_ context.Context, _ int64) (string, error) {
	return s.status, s.err
}

func TestCheckMessagingEligibilityAllowsActiveMember(t *testing.T) {
	service := NewPolicyService(nil, nil, &stubMembershipReader{status: models.MembershipActive})

	eligibility, err := service.CheckMessagingEligibility(context.Background(), 7)
	if err != nil {
		t.Fatalf("CheckMessagingEligibility: %v", err)
	}
	if !eligibility.CanMessage {
		t.Fatal("expected active member to be eligible")
	}
	if eligibility.Status != models.MembershipActive {
		t.Fatalf("expected status Active, got %q", eligibility.Status)
	}
}

func TestCheckMessagingEligibilityBlocksLapsedStatuses(t *testing.T) {
	for _, status := range []string{models.MembershipExpired, models.MembershipCancelled, models.MembershipFreezed} {
		service := NewPolicyService(nil, nil, &stubMembershipReader{status: status})

		eligibility, err := service.CheckMessagingEligibility(context.Background(), 7)
		if err != nil {
			t.Fatalf("CheckMessagingEligibility(%s): %v", status, err)
		}
		if eligibility.CanMessage {
			t.Fatalf("expected %s to be ineligible", status)
		}
		if eligibility.Status != status {
			t.Fatalf("expected status %q, got %q", status, eligibility.Status)
		}
		if !strings.Contains(eligibility.Reason, status) {
			t.Fatalf("expected reason to name the status, got %q", eligibility.Reason)
		}
	}
}

func TestCheckMessagingEligibilityTreatsMissingMembershipAsIneligible(t *testing.T) {
	service := NewPolicyService(nil, nil, &stubMembershipReader{err: pgx.ErrNoRows})

	eligibility, err := service.CheckMessagingEligibility(context.Background(), 7)
	if err != nil {
		t.Fatalf("CheckMessagingEligibility: %v", err)
	}
	if eligibility.CanMessage {
		t.Fatal("expected member without membership row to be ineligible")
	}
	if eligibility.Status != "Unknown" {
		t.Fatalf("expected Unknown status, got %q", eligibility.Status)
	}
}
