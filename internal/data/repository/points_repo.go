package repository

import (
	"context"
	"fmt"

	"roadside-assist/internal/data/entity"
	"roadside-assist/pkg/database"

	"go.uber.org/zap"
)

type PointsRepository interface {
	Create(ctx context.Context, record *entity.PointsRecord) error
}

type pointsRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPointsRepository(db database.Querier, log *zap.Logger) PointsRepository {
	return &pointsRepository{
		db:  db,
		log: log.With(zap.String("repository", "points")),
	}
}

func (r *pointsRepository) Create(ctx context.Context, record *entity.PointsRecord) error {
	query := `
		INSERT INTO points_records (id, user_id, points, type, reason, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.UserID,
		record.Points,
		record.Type,
		record.Reason,
		record.Metadata,
		record.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create points record",
			zap.Error(err),
			zap.String("user_id", record.UserID.String()),
			zap.Int("points", record.Points),
		)
		return fmt.Errorf("create points record for %s: %w", record.UserID.String(), err)
	}

	return nil
}
