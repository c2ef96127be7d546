package repository

import (
	"context"

	"roadside-assist/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Transactor runs fn against repositories bound to a single transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx *Repository) error) error
}

type Repository struct {
	User         UserRepository
	Session      SessionRepository
	Plan         PlanRepository
	Subscription SubscriptionRepository
	Membership   MembershipRepository
	Garage       GarageRepository
	Service      ServiceRepository
	Booking      BookingRepository
	Payment      PaymentRepository
	Notification NotificationRepository
	Points       PointsRepository

	Tx Transactor
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := newRepository(db, log)
	repo.Tx = &pgxTransactor{db: db, log: log}
	return repo
}

func newRepository(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		User:         NewUserRepository(q, log),
		Session:      NewSessionRepository(q, log),
		Plan:         NewPlanRepository(q, log),
		Subscription: NewSubscriptionRepository(q, log),
		Membership:   NewMembershipRepository(q, log),
		Garage:       NewGarageRepository(q, log),
		Service:      NewServiceRepository(q, log),
		Booking:      NewBookingRepository(q, log),
		Payment:      NewPaymentRepository(q, log),
		Notification: NewNotificationRepository(q, log),
		Points:       NewPointsRepository(q, log),
	}
}

type pgxTransactor struct {
	db  database.PgxIface
	log *zap.Logger
}

func (t *pgxTransactor) InTx(ctx context.Context, fn func(tx *Repository) error) error {
	return database.WithTx(ctx, t.db, func(tx pgx.Tx) error {
		scoped := newRepository(tx, t.log)
		scoped.Tx = inlineTransactor{repo: scoped}
		return fn(scoped)
	})
}

// inlineTransactor joins the transaction that is already open.
type inlineTransactor struct {
	repo *Repository
}

func (t inlineTransactor) InTx(_ context.Context, fn func(tx *Repository) error) error {
	return fn(t.repo)
}
