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

func TestSubmitPayment_ByRole(t *testing.T) {
	tests := []struct {
		name       string
		actor      func(f *fixture) Actor
		wantStatus entity.PaymentStatus
		wantPaid   bool
		wantNote   string
	}{
		{
			name:       "user claim waits for garage",
			actor:      func(f *fixture) Actor { return actorOf(f.user) },
			wantStatus: entity.PaymentStatusPending,
			wantPaid:   false,
			wantNote:   "Payment Submitted",
		},
		{
			name:       "garage confirms directly",
			actor:      func(f *fixture) Actor { return actorOf(f.owner) },
			wantStatus: entity.PaymentStatusSuccess,
			wantPaid:   true,
			wantNote:   "Payment Received",
		},
		{
			name:       "admin confirms directly",
			actor:      func(f *fixture) Actor { return actorOf(f.admin) },
			wantStatus: entity.PaymentStatusSuccess,
			wantPaid:   true,
			wantNote:   "Payment Received",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			svc := f.bookingPaymentService()

			resp, err := svc.SubmitPayment(context.Background(), tt.actor(f), f.booking.ID.String(), &request.ManualPaymentRequest{
				PaymentMethod: "cash",
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Status != string(tt.wantStatus) {
				t.Fatalf("expected %s, got %s", tt.wantStatus, resp.Status)
			}
			if resp.Amount != 1000 {
				t.Fatalf("expected estimated cost 1000, got %v", resp.Amount)
			}
			if resp.Metadata.CommissionSplit == nil || resp.Metadata.PlatformFee != 150 {
				t.Fatalf("expected frozen commission, got %+v", resp.Metadata.CommissionSplit)
			}
			if got := f.store.bookings[f.booking.ID].IsPaid; got != tt.wantPaid {
				t.Fatalf("expected is_paid=%v, got %v", tt.wantPaid, got)
			}
			if titles := f.store.notificationTitles(); len(titles) != 1 || titles[0] != tt.wantNote {
				t.Fatalf("expected %q notification, got %v", tt.wantNote, titles)
			}
		})
	}
}

func TestSubmitPayment_Guards(t *testing.T) {
	f := newFixture()
	svc := f.bookingPaymentService()
	ctx := context.Background()

	stranger := Actor{UserID: uuid.New(), Role: entity.RoleUser}
	if _, err := svc.SubmitPayment(ctx, stranger, f.booking.ID.String(), &request.ManualPaymentRequest{PaymentMethod: "cash"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another user, got %v", err)
	}

	otherGarage := Actor{UserID: uuid.New(), Role: entity.RoleGarage}
	if _, err := svc.SubmitPayment(ctx, otherGarage, f.booking.ID.String(), &request.ManualPaymentRequest{PaymentMethod: "cash"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another garage, got %v", err)
	}

	mechanic := Actor{UserID: uuid.New(), Role: entity.RoleMechanic}
	if _, err := svc.SubmitPayment(ctx, mechanic, f.booking.ID.String(), &request.ManualPaymentRequest{PaymentMethod: "cash"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for mechanic, got %v", err)
	}

	if _, err := svc.SubmitPayment(ctx, actorOf(f.user), uuid.NewString(), &request.ManualPaymentRequest{PaymentMethod: "cash"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := svc.SubmitPayment(ctx, actorOf(f.user), f.booking.ID.String(), &request.ManualPaymentRequest{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation without method, got %v", err)
	}

	if _, err := svc.SubmitPayment(ctx, actorOf(f.user), f.booking.ID.String(), &request.ManualPaymentRequest{PaymentMethod: "bkash", TransactionID: "BK123"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SubmitPayment(ctx, actorOf(f.user), f.booking.ID.String(), &request.ManualPaymentRequest{PaymentMethod: "bkash", TransactionID: "BK123"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for reused transaction id, got %v", err)
	}

	for _, method := range []string{"sslcommerz", "Wallet"} {
		if _, err := svc.SubmitPayment(ctx, actorOf(f.owner), f.booking.ID.String(), &request.ManualPaymentRequest{PaymentMethod: method}); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation for %s, got %v", method, err)
		}
	}

	f.store.bookings[f.booking.ID].IsPaid = true
	if _, err := svc.SubmitPayment(ctx, actorOf(f.owner), f.booking.ID.String(), &request.ManualPaymentRequest{PaymentMethod: "cash"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for paid booking, got %v", err)
	}
}

func TestSubmitPayment_PremiumGarageCommission(t *testing.T) {
	f := newFixture()
	expiry := testNow.AddDate(0, 1, 0)
	f.garage.MembershipTier = billing.TierPremium
	f.garage.MembershipExpiry = &expiry
	svc := f.bookingPaymentService()

	resp, err := svc.SubmitPayment(context.Background(), actorOf(f.owner), f.booking.ID.String(), &request.ManualPaymentRequest{
		PaymentMethod: "cash",
		Amount:        2000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Metadata.Rate != 0.05 || resp.Metadata.PlatformFee != 100 || resp.Metadata.NetEarnings != 1900 {
		t.Fatalf("expected 5%% commission on 2000, got %+v", resp.Metadata.CommissionSplit)
	}
}

func TestVerifyPayment(t *testing.T) {
	submit := func(f *fixture) string {
		resp, err := f.bookingPaymentService().SubmitPayment(context.Background(), actorOf(f.user), f.booking.ID.String(), &request.ManualPaymentRequest{PaymentMethod: "cash"})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		return resp.ID
	}

	t.Run("garage approves", func(t *testing.T) {
		f := newFixture()
		paymentID := submit(f)

		resp, err := f.bookingPaymentService().VerifyPayment(context.Background(), actorOf(f.owner), f.booking.ID.String(), &request.VerifyPaymentRequest{
			PaymentID: paymentID,
			Status:    "success",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Status != string(entity.PaymentStatusSuccess) || resp.PaidAt == nil {
			t.Fatalf("expected success with paid_at, got %+v", resp)
		}
		if !f.store.bookings[f.booking.ID].IsPaid {
			t.Fatal("expected booking to be paid")
		}

		// Re-verifying with the same status is a no-op.
		if _, err := f.bookingPaymentService().VerifyPayment(context.Background(), actorOf(f.owner), f.booking.ID.String(), &request.VerifyPaymentRequest{
			PaymentID: paymentID,
			Status:    "success",
		}); err != nil {
			t.Fatalf("expected idempotent re-verify, got %v", err)
		}
		titles := f.store.notificationTitles()
		if titles[len(titles)-1] != "Payment Verified" || len(titles) != 2 {
			t.Fatalf("expected a single verification notice, got %v", titles)
		}
	})

	t.Run("garage rejects", func(t *testing.T) {
		f := newFixture()
		paymentID := submit(f)

		resp, err := f.bookingPaymentService().VerifyPayment(context.Background(), actorOf(f.owner), f.booking.ID.String(), &request.VerifyPaymentRequest{
			PaymentID: paymentID,
			Status:    "failed",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Status != string(entity.PaymentStatusFailed) {
			t.Fatalf("expected failed, got %s", resp.Status)
		}
		if f.store.bookings[f.booking.ID].IsPaid {
			t.Fatal("rejected payment must not mark the booking paid")
		}

		_, err = f.bookingPaymentService().VerifyPayment(context.Background(), actorOf(f.owner), f.booking.ID.String(), &request.VerifyPaymentRequest{
			PaymentID: paymentID,
			Status:    "success",
		})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict approving a rejected payment, got %v", err)
		}
	})

	t.Run("user cannot verify", func(t *testing.T) {
		f := newFixture()
		paymentID := submit(f)

		_, err := f.bookingPaymentService().VerifyPayment(context.Background(), actorOf(f.user), f.booking.ID.String(), &request.VerifyPaymentRequest{
			PaymentID: paymentID,
			Status:    "success",
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		if got := f.store.payment(uuid.MustParse(paymentID)).Status; got != entity.PaymentStatusPending {
			t.Fatalf("payment must stay pending, got %s", got)
		}
	})

	t.Run("gateway payment settles only through the gateway", func(t *testing.T) {
		f := newFixture()
		paymentSvc := f.paymentService()
		ctx := context.Background()

		initResp, err := paymentSvc.InitBookingPayment(ctx, actorOf(f.user), f.booking.ID.String(), &request.InitBookingPaymentRequest{})
		if err != nil {
			t.Fatalf("init: %v", err)
		}

		_, err = f.bookingPaymentService().VerifyPayment(ctx, actorOf(f.owner), f.booking.ID.String(), &request.VerifyPaymentRequest{
			PaymentID: initResp.PaymentID,
			Status:    "success",
		})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict for gateway payment, got %v", err)
		}
		p := f.store.payment(uuid.MustParse(initResp.PaymentID))
		if p.Status != entity.PaymentStatusPending || f.store.bookings[f.booking.ID].IsPaid {
			t.Fatalf("gateway payment must stay pending and unpaid, got %s", p.Status)
		}

		// The gateway's own verdict still lands.
		res, err := paymentSvc.HandleIPN(ctx, ipnFor(p, "FAILED", "good-sign"))
		if err != nil {
			t.Fatalf("ipn: %v", err)
		}
		if !res.Applied {
			t.Fatal("expected failed notification to apply")
		}
		if got := f.store.payment(p.ID).Status; got != entity.PaymentStatusFailed {
			t.Fatalf("expected failed, got %s", got)
		}
		if f.store.bookings[f.booking.ID].IsPaid {
			t.Fatal("failed gateway payment must not mark the booking paid")
		}
	})

	t.Run("payment from another booking", func(t *testing.T) {
		f := newFixture()
		submit(f)

		_, err := f.bookingPaymentService().VerifyPayment(context.Background(), actorOf(f.owner), f.booking.ID.String(), &request.VerifyPaymentRequest{
			PaymentID: uuid.NewString(),
			Status:    "success",
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
