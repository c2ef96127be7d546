package repository

import (
	"context"
	"errors"
	"fmt"

	"roadside-assist/internal/data/entity"
	"roadside-assist/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PlanRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Plan, error)
}

type planRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPlanRepository(db database.Querier, log *zap.Logger) PlanRepository {
	return &planRepository{
		db:  db,
		log: log.With(zap.String("repository", "plan")),
	}
}

func (r *planRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Plan, error) {
	query := `
		SELECT id, name, tier, price_monthly, price_yearly, is_featured, is_active,
		       created_at, updated_at
		FROM plans
		WHERE id = $1
	`

	var plan entity.Plan
	err := r.db.QueryRow(ctx, query, id).Scan(
		&plan.ID,
		&plan.Name,
		&plan.Tier,
		&plan.PriceMonthly,
		&plan.PriceYearly,
		&plan.IsFeatured,
		&plan.IsActive,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find plan by ID",
			zap.Error(err),
			zap.String("plan_id", id.String()),
		)
		return nil, fmt.Errorf("find plan by ID %s: %w", id.String(), err)
	}

	return &plan, nil
}
