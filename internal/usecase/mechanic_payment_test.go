package usecase

import (
	"context"
	"errors"
	"testing"

	"roadside-assist/internal/billing"
	"roadside-assist/internal/data/entity"
	"roadside-assist/internal/dto/request"

	"github.com/google/uuid"
)

// assignMechanic puts a mechanic on the fixture booking.
func assignMechanic(f *fixture) Actor {
	mechanic := &entity.User{Base: entity.Base{ID: uuid.New()}, Name: "Jamal", Role: entity.RoleMechanic, IsActive: true}
	f.store.users[mechanic.ID] = mechanic
	f.store.bookings[f.booking.ID].MechanicID = &mechanic.ID
	return actorOf(mechanic)
}

func TestConfirmJobPayment_Cash(t *testing.T) {
	f := newFixture()
	mechanic := assignMechanic(f)
	actual := 1296.0
	f.store.bookings[f.booking.ID].ActualCost = &actual
	svc := f.bookingPaymentService()

	resp, err := svc.ConfirmJobPayment(context.Background(), mechanic, f.booking.ID.String(), &request.ConfirmJobPaymentRequest{Method: "cash"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != string(entity.BookingStatusCompleted) || !resp.IsPaid {
		t.Fatalf("expected paid completed booking, got %+v", resp)
	}
	if resp.PointsEarned != 12 || resp.Multiplier != 1 || resp.Tier != "free" {
		t.Fatalf("expected 12 points at 1x, got %+v", resp)
	}

	if resp.Payment == nil {
		t.Fatal("expected a cash payment")
	}
	p := f.store.payment(uuid.MustParse(resp.Payment.ID))
	if p.Status != entity.PaymentStatusSuccess || p.PaymentMethod != entity.PaymentMethodCash || p.Amount != 1296 {
		t.Fatalf("unexpected payment %+v", p)
	}
	if p.Metadata.ReceivedBy == nil || *p.Metadata.ReceivedBy != mechanic.UserID || p.Metadata.Description != "Cash collected by mechanic" {
		t.Fatalf("unexpected payment metadata %+v", p.Metadata)
	}
	if p.Metadata.CommissionSplit == nil {
		t.Fatal("expected commission split on cash payment")
	}

	booking := f.store.bookings[f.booking.ID]
	if !booking.IsPaid || booking.CompletedAt == nil || booking.PaymentInfo.Method != entity.PaymentMethodCash {
		t.Fatalf("expected paid booking with completion time, got %+v", booking)
	}

	user := f.store.users[f.user.ID]
	if user.RewardPoints != 12 || user.TotalBookings != 1 || user.TotalSpent != 1296 {
		t.Fatalf("unexpected customer totals points=%d bookings=%d spent=%v", user.RewardPoints, user.TotalBookings, user.TotalSpent)
	}
	if len(f.store.points) != 1 {
		t.Fatalf("expected one points record, got %d", len(f.store.points))
	}
	record := f.store.points[0]
	if record.Type != entity.PointsEarn || record.Reason != "Completed Service: BK-1001 (1x Tier Bonus)" || record.Metadata.BookingID != f.booking.ID {
		t.Fatalf("unexpected points record %+v", record)
	}

	if titles := f.store.notificationTitles(); len(titles) != 1 || titles[0] != "Payment Received" {
		t.Fatalf("expected payment received notice, got %v", titles)
	}
	if f.recorder.settlements["mechanic/cash"] != 1 {
		t.Fatalf("unexpected settlement metrics %v", f.recorder.settlements)
	}

	if _, err := svc.ConfirmJobPayment(context.Background(), mechanic, f.booking.ID.String(), &request.ConfirmJobPaymentRequest{Method: "cash"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict confirming twice, got %v", err)
	}
	if got := f.store.users[f.user.ID].RewardPoints; got != 12 {
		t.Fatalf("points must be awarded once, got %d", got)
	}
}

func TestConfirmJobPayment_Online(t *testing.T) {
	t.Run("not yet paid", func(t *testing.T) {
		f := newFixture()
		mechanic := assignMechanic(f)

		_, err := f.bookingPaymentService().ConfirmJobPayment(context.Background(), mechanic, f.booking.ID.String(), &request.ConfirmJobPaymentRequest{Method: "online"})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		if got := f.store.bookings[f.booking.ID].Status; got != entity.BookingStatusConfirmed {
			t.Fatalf("booking must stay open, got %s", got)
		}
	})

	t.Run("paid online", func(t *testing.T) {
		f := newFixture()
		mechanic := assignMechanic(f)
		booking := f.store.bookings[f.booking.ID]
		booking.IsPaid = true
		booking.PaymentInfo = &entity.PaymentInfo{PaymentID: uuid.New(), Method: entity.PaymentMethodGateway, Amount: 1000, PaidAt: testNow}

		resp, err := f.bookingPaymentService().ConfirmJobPayment(context.Background(), mechanic, f.booking.ID.String(), &request.ConfirmJobPaymentRequest{Method: "online"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Payment != nil || resp.Status != string(entity.BookingStatusCompleted) || resp.PointsEarned != 10 {
			t.Fatalf("unexpected completion %+v", resp)
		}
		if len(f.store.payments) != 0 {
			t.Fatal("online completion must not record a payment")
		}
		if titles := f.store.notificationTitles(); len(titles) != 1 || titles[0] != "Service Completed" {
			t.Fatalf("expected completion notice, got %v", titles)
		}
	})
}

func TestConfirmJobPayment_TierMultiplier(t *testing.T) {
	f := newFixture()
	mechanic := assignMechanic(f)
	expiry := testNow.AddDate(0, 1, 0)
	f.store.users[f.user.ID].MembershipTier = billing.TierPremium
	f.store.users[f.user.ID].MembershipExpiry = &expiry

	resp, err := f.bookingPaymentService().ConfirmJobPayment(context.Background(), mechanic, f.booking.ID.String(), &request.ConfirmJobPaymentRequest{Method: "cash"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.PointsEarned != 100 || resp.Multiplier != 10 || resp.Tier != "premium" {
		t.Fatalf("expected 100 points at 10x, got %+v", resp)
	}
	if got := f.store.points[0].Reason; got != "Completed Service: BK-1001 (10x Tier Bonus)" {
		t.Fatalf("unexpected reason %q", got)
	}
}

func TestConfirmJobPayment_Guards(t *testing.T) {
	f := newFixture()
	mechanic := assignMechanic(f)
	svc := f.bookingPaymentService()
	ctx := context.Background()
	cash := &request.ConfirmJobPaymentRequest{Method: "cash"}

	if _, err := svc.ConfirmJobPayment(ctx, actorOf(f.owner), f.booking.ID.String(), cash); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for garage, got %v", err)
	}

	other := Actor{UserID: uuid.New(), Role: entity.RoleMechanic}
	if _, err := svc.ConfirmJobPayment(ctx, other, f.booking.ID.String(), cash); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unassigned mechanic, got %v", err)
	}

	if _, err := svc.ConfirmJobPayment(ctx, mechanic, f.booking.ID.String(), &request.ConfirmJobPaymentRequest{Method: "card"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown method, got %v", err)
	}

	f.store.bookings[f.booking.ID].Status = entity.BookingStatusCancelled
	if _, err := svc.ConfirmJobPayment(ctx, mechanic, f.booking.ID.String(), cash); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for cancelled booking, got %v", err)
	}

	if len(f.store.payments) != 0 || f.store.users[f.user.ID].TotalBookings != 0 {
		t.Fatal("rejected confirmations must not write anything")
	}
}
