package repository

import (
	"context"

	"github.com/arman-s/GymAppBack/internal/models"
)

type MembershipRepository struct {
	db DBTX
}

func NewMembershipRepository(db DBTX) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Create(
	ctx context.Context,
	memberID int64,
	status string,
	plan string,
) (*models.Membership, error) {
	query := `
		INSERT INTO memberships (member_id, status, plan)
		VALUES ($1, $2, $3)
		RETURNING id, member_id, status, plan, starts_at, ends_at, created_at, updated_at
	`

	var membership models.Membership
	err := r.db.QueryRow(ctx, query, memberID, status, plan).Scan(
		&membership.ID,
		&membership.MemberID,
		&membership.Status,
		&membership.Plan,
		&membership.StartsAt,
		&membership.EndsAt,
		&membership.CreatedAt,
		&membership.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *MembershipRepository) GetByMemberID(ctx context.Context, memberID int64) (*models.Membership, error) {
	query := `
		SELECT id, member_id, status, plan, starts_at, ends_at, created_at, updated_at
		FROM memberships
		WHERE member_id = $1
	`

	var membership models.Membership
	err := r.db.QueryRow(ctx, query, memberID).Scan(
		&membership.ID,
		&membership.MemberID,
		&membership.Status,
		&membership.Plan,
		&membership.StartsAt,
		&membership.EndsAt,
		&membership.CreatedAt,
		&membership.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *MembershipRepository) GetStatusByMemberID(ctx context.Context, memberID int64) (string, error) {
	var status string
	err := r.db.QueryRow(ctx, `
		SELECT status
		FROM memberships
		WHERE member_id = $1
	`, memberID).Scan(&status)
	if err != nil {
		return "", err
	}
	return status, nil
}

func (r *MembershipRepository) UpdateStatus(ctx context.Context, memberID int64, status string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE memberships
		SET status = $2, updated_at = NOW()
		WHERE member_id = $1
	`, memberID, status)
	return err
}
