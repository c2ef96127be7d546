package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roadside-assist/internal/billing"
	"roadside-assist/internal/data/entity"
	"roadside-assist/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type GarageRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Garage, error)

	// PromoteOwnedGarages copies a membership onto every garage the owner has
	// and marks them featured. It returns the number of garages updated.
	PromoteOwnedGarages(ctx context.Context, ownerID uuid.UUID, tier billing.Tier, expiry time.Time) (int64, error)

	// DemoteOwnedGarages undoes a promotion. Only garages still carrying the
	// given expiry are touched, so a later membership survives.
	DemoteOwnedGarages(ctx context.Context, ownerID uuid.UUID, expiry time.Time) (int64, error)
}

type garageRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewGarageRepository(db database.Querier, log *zap.Logger) GarageRepository {
	return &garageRepository{
		db:  db,
		log: log.With(zap.String("repository", "garage")),
	}
}

func (r *garageRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Garage, error) {
	query := `
		SELECT id, owner_id, name, membership_tier, membership_expiry, is_featured,
		       latitude, longitude, created_at, updated_at
		FROM garages
		WHERE id = $1
	`

	var garage entity.Garage
	err := r.db.QueryRow(ctx, query, id).Scan(
		&garage.ID,
		&garage.OwnerID,
		&garage.Name,
		&garage.MembershipTier,
		&garage.MembershipExpiry,
		&garage.IsFeatured,
		&garage.Latitude,
		&garage.Longitude,
		&garage.CreatedAt,
		&garage.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find garage by ID",
			zap.Error(err),
			zap.String("garage_id", id.String()),
		)
		return nil, fmt.Errorf("find garage by ID %s: %w", id.String(), err)
	}

	return &garage, nil
}

func (r *garageRepository) PromoteOwnedGarages(ctx context.Context, ownerID uuid.UUID, tier billing.Tier, expiry time.Time) (int64, error) {
	query := `
		UPDATE garages
		SET membership_tier = $2, membership_expiry = $3, is_featured = TRUE, updated_at = NOW()
		WHERE owner_id = $1
	`

	result, err := r.db.Exec(ctx, query, ownerID, tier, expiry)
	if err != nil {
		r.log.Error("Failed to promote owned garages",
			zap.Error(err),
			zap.String("owner_id", ownerID.String()),
		)
		return 0, fmt.Errorf("promote garages of owner %s: %w", ownerID.String(), err)
	}

	return result.RowsAffected(), nil
}

func (r *garageRepository) DemoteOwnedGarages(ctx context.Context, ownerID uuid.UUID, expiry time.Time) (int64, error) {
	query := `
		UPDATE garages
		SET membership_tier = 'free', membership_expiry = NULL, is_featured = FALSE, updated_at = NOW()
		WHERE owner_id = $1 AND membership_expiry = $2
	`

	result, err := r.db.Exec(ctx, query, ownerID, expiry)
	if err != nil {
		r.log.Error("Failed to demote owned garages",
			zap.Error(err),
			zap.String("owner_id", ownerID.String()),
		)
		return 0, fmt.Errorf("demote garages of owner %s: %w", ownerID.String(), err)
	}

	return result.RowsAffected(), nil
}
