package repository

import (
	"context"

	"github.com/arman-s/GymAppBack/internal/models"
)

type PresenceRepository struct {
	db DBTX
}

func NewPresenceRepository(db DBTX) *PresenceRepository {
	return &PresenceRepository{db: db}
}

// SetOnline upserts the persisted presence row for (user, type). The
// conflict target makes concurrent connect bursts from a multi-device
// user idempotent.
func (r *PresenceRepository) SetOnline(
	ctx context.Context,
	userID int64,
	userType string,
	socketID string,
) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO presence_records (user_id, user_type, is_online, socket_id, last_seen)
		VALUES ($1, $2, TRUE, $3, NOW())
		ON CONFLICT (user_id, user_type)
		DO UPDATE SET is_online = TRUE, socket_id = $3, last_seen = NOW(), updated_at = NOW()
	`, userID, userType, socketID)
	return err
}

func (r *PresenceRepository) SetOffline(ctx context.Context, userID int64, userType string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO presence_records (user_id, user_type, is_online, socket_id, last_seen)
		VALUES ($1, $2, FALSE, NULL, NOW())
		ON CONFLICT (user_id, user_type)
		DO UPDATE SET is_online = FALSE, socket_id = NULL, last_seen = NOW(), updated_at = NOW()
	`, userID, userType)
	return err
}

func (r *PresenceRepository) GetByUserID(ctx context.Context, userID int64) (*models.PresenceRecord, error) {
	query := `
		SELECT id, user_id, user_type, is_online, socket_id, last_seen, created_at, updated_at
		FROM presence_records
		WHERE user_id = $1
	`

	var record models.PresenceRecord
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&record.ID,
		&record.UserID,
		&record.UserType,
		&record.IsOnline,
		&record.SocketID,
		&record.LastSeen,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
