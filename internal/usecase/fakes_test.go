package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"roadside-assist/internal/billing"
	"roadside-assist/internal/data/entity"
	"roadside-assist/internal/data/repository"
	"roadside-assist/internal/dto/request"
	"roadside-assist/pkg/sslcommerz"
	"roadside-assist/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// store is an in-memory stand-in for the database. Every fake repository
// shares it, and InTx runs inline under one lock.
type store struct {
	mu sync.Mutex

	users         map[uuid.UUID]*entity.User
	sessions      map[uuid.UUID]*entity.Session
	plans         map[uuid.UUID]*entity.Plan
	subscriptions map[uuid.UUID]*entity.Subscription
	memberships   map[uuid.UUID][]billing.OrgMembership
	membershipErr error
	garages       map[uuid.UUID]*entity.Garage
	services      map[uuid.UUID]*entity.Service
	bookings      map[uuid.UUID]*entity.Booking
	payments      map[uuid.UUID]*entity.Payment
	notifications []*entity.Notification
	points        []*entity.PointsRecord

	entitlements int
	promotions   int
}

func newStore() *store {
	return &store{
		users:         map[uuid.UUID]*entity.User{},
		sessions:      map[uuid.UUID]*entity.Session{},
		plans:         map[uuid.UUID]*entity.Plan{},
		subscriptions: map[uuid.UUID]*entity.Subscription{},
		memberships:   map[uuid.UUID][]billing.OrgMembership{},
		garages:       map[uuid.UUID]*entity.Garage{},
		services:      map[uuid.UUID]*entity.Service{},
		bookings:      map[uuid.UUID]*entity.Booking{},
		payments:      map[uuid.UUID]*entity.Payment{},
	}
}

func (s *store) repository() *repository.Repository {
	repo := &repository.Repository{
		User:         fakeUsers{s},
		Session:      fakeSessions{s},
		Plan:         fakePlans{s},
		Subscription: fakeSubscriptions{s},
		Membership:   fakeMemberships{s},
		Garage:       fakeGarages{s},
		Service:      fakeServices{s},
		Booking:      fakeBookings{s},
		Payment:      fakePayments{s},
		Notification: fakeNotifications{s},
		Points:       fakePoints{s},
	}
	repo.Tx = fakeTx{repo: repo}
	return repo
}

type fakeTx struct{ repo *repository.Repository }

func (t fakeTx) InTx(_ context.Context, fn func(tx *repository.Repository) error) error {
	return fn(t.repo)
}

type fakeUsers struct{ s *store }

func (f fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if u, ok := f.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f fakeUsers) ApplyMembership(_ context.Context, id uuid.UUID, tier billing.Tier, expiry time.Time, subscriptionID uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.MembershipTier = tier
	u.MembershipExpiry = &expiry
	u.CurrentSubscriptionID = &subscriptionID
	f.s.entitlements++
	return nil
}

func (f fakeUsers) DowngradeExpiredMembership(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok || u.MembershipTier == billing.TierFree || u.MembershipExpiry == nil || !u.MembershipExpiry.Before(now) {
		return false, nil
	}
	u.MembershipTier = billing.TierFree
	u.MembershipExpiry = nil
	return true, nil
}

func (f fakeUsers) CreditWallet(_ context.Context, id uuid.UUID, amount float64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.WalletBalance += amount
	return nil
}

func (f fakeUsers) RevokeMembership(_ context.Context, id, subscriptionID uuid.UUID) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok || u.CurrentSubscriptionID == nil || *u.CurrentSubscriptionID != subscriptionID {
		return false, nil
	}
	u.MembershipTier = billing.TierFree
	u.MembershipExpiry = nil
	u.CurrentSubscriptionID = nil
	return true, nil
}

func (f fakeUsers) AwardPoints(_ context.Context, id uuid.UUID, points int, spent float64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.RewardPoints += points
	u.TotalBookings++
	u.TotalSpent += spent
	return nil
}

type fakeSessions struct{ s *store }

func (f fakeSessions) FindValidSession(_ context.Context, token uuid.UUID) (*entity.Session, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.sessions[token], nil
}

type fakePlans struct{ s *store }

func (f fakePlans) FindByID(_ context.Context, id uuid.UUID) (*entity.Plan, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.plans[id], nil
}

type fakeSubscriptions struct{ s *store }

func (f fakeSubscriptions) Create(_ context.Context, sub *entity.Subscription) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cp := *sub
	f.s.subscriptions[sub.ID] = &cp
	return nil
}

func (f fakeSubscriptions) FindByID(_ context.Context, id uuid.UUID) (*entity.Subscription, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if sub, ok := f.s.subscriptions[id]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, nil
}

func (f fakeSubscriptions) FindLatestByUser(_ context.Context, userID uuid.UUID) (*entity.Subscription, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var latest *entity.Subscription
	for _, sub := range f.s.subscriptions {
		if sub.UserID != userID {
			continue
		}
		switch sub.Status {
		case entity.SubscriptionStatusActive, entity.SubscriptionStatusTrial, entity.SubscriptionStatusExpired:
		default:
			continue
		}
		if latest == nil || sub.StartDate.After(latest.StartDate) {
			latest = sub
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f fakeSubscriptions) TransitionStatus(_ context.Context, id uuid.UUID, from, to entity.SubscriptionStatus) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	sub, ok := f.s.subscriptions[id]
	if !ok || sub.Status != from {
		return false, nil
	}
	sub.Status = to
	return true, nil
}

func (f fakeSubscriptions) MarkExpired(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	sub, ok := f.s.subscriptions[id]
	if !ok || !sub.Lapsed(now) {
		return false, nil
	}
	sub.Status = entity.SubscriptionStatusExpired
	return true, nil
}

type fakeMemberships struct{ s *store }

func (f fakeMemberships) ListActiveByUser(_ context.Context, userID uuid.UUID) ([]billing.OrgMembership, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.membershipErr != nil {
		return nil, f.s.membershipErr
	}
	return f.s.memberships[userID], nil
}

type fakeGarages struct{ s *store }

func (f fakeGarages) FindByID(_ context.Context, id uuid.UUID) (*entity.Garage, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if g, ok := f.s.garages[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, nil
}

func (f fakeGarages) PromoteOwnedGarages(_ context.Context, ownerID uuid.UUID, tier billing.Tier, expiry time.Time) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for _, g := range f.s.garages {
		if g.OwnerID != ownerID {
			continue
		}
		g.MembershipTier = tier
		g.MembershipExpiry = &expiry
		g.IsFeatured = true
		n++
	}
	f.s.promotions++
	return n, nil
}

func (f fakeGarages) DemoteOwnedGarages(_ context.Context, ownerID uuid.UUID, expiry time.Time) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for _, g := range f.s.garages {
		if g.OwnerID != ownerID || g.MembershipExpiry == nil || !g.MembershipExpiry.Equal(expiry) {
			continue
		}
		g.MembershipTier = billing.TierFree
		g.MembershipExpiry = nil
		g.IsFeatured = false
		n++
	}
	return n, nil
}

type fakeServices struct{ s *store }

func (f fakeServices) FindByID(_ context.Context, id uuid.UUID) (*entity.Service, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.services[id], nil
}

type fakeBookings struct{ s *store }

func (f fakeBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if b, ok := f.s.bookings[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (f fakeBookings) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return f.FindByID(ctx, id)
}

func (f fakeBookings) MarkPaid(_ context.Context, id uuid.UUID, info entity.PaymentInfo, status *entity.BookingStatus) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	b, ok := f.s.bookings[id]
	if !ok || b.IsPaid {
		return false, nil
	}
	b.IsPaid = true
	b.PaymentInfo = &info
	if status != nil {
		b.Status = *status
	}
	return true, nil
}

func (f fakeBookings) MarkRefunded(_ context.Context, id, paymentID uuid.UUID, refundedAt time.Time) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	b, ok := f.s.bookings[id]
	if !ok || !b.IsPaid || b.PaymentInfo == nil || b.PaymentInfo.PaymentID != paymentID {
		return false, nil
	}
	info := *b.PaymentInfo
	info.RefundedAt = &refundedAt
	b.IsPaid = false
	b.PaymentInfo = &info
	return true, nil
}

func (f fakeBookings) CompleteJob(_ context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	b, ok := f.s.bookings[id]
	if !ok || b.Status == entity.BookingStatusCompleted || b.Status == entity.BookingStatusCancelled {
		return false, nil
	}
	b.Status = entity.BookingStatusCompleted
	b.CompletedAt = &completedAt
	return true, nil
}

type fakePayments struct{ s *store }

func (f fakePayments) Create(_ context.Context, p *entity.Payment) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cp := *p
	f.s.payments[p.ID] = &cp
	return nil
}

func (f fakePayments) FindByID(_ context.Context, id uuid.UUID) (*entity.Payment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if p, ok := f.s.payments[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f fakePayments) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	return f.FindByID(ctx, id)
}

func (f fakePayments) FindByTransactionID(_ context.Context, transactionID string) (*entity.Payment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, p := range f.s.payments {
		if p.Type != entity.PaymentTypeRefund && p.TransactionID != nil && *p.TransactionID == transactionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f fakePayments) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Payment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*entity.Payment
	for _, p := range f.s.payments {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f fakePayments) CountByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for _, p := range f.s.payments {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f fakePayments) SetSessionKey(_ context.Context, id uuid.UUID, sessionKey string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if p, ok := f.s.payments[id]; ok {
		p.SessionKey = &sessionKey
	}
	return nil
}

func (f fakePayments) TransitionStatus(_ context.Context, id uuid.UUID, t repository.PaymentTransition) (bool, error) {
	if !t.From.CanTransitionTo(t.To) {
		return false, errors.New("illegal transition")
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.payments[id]
	if !ok || p.Status != t.From {
		return false, nil
	}
	p.Status = t.To
	if t.PaidAt != nil {
		p.PaidAt = t.PaidAt
	}
	if t.ValidationID != nil {
		p.ValidationID = t.ValidationID
	}
	if t.ErrorMessage != nil {
		p.ErrorMessage = t.ErrorMessage
	}
	if t.Refund != nil {
		p.Refund = t.Refund
	}
	return true, nil
}

type fakeNotifications struct{ s *store }

func (f fakeNotifications) Create(_ context.Context, n *entity.Notification) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.notifications = append(f.s.notifications, n)
	return nil
}

type fakePoints struct{ s *store }

func (f fakePoints) Create(_ context.Context, record *entity.PointsRecord) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cp := *record
	f.s.points = append(f.s.points, &cp)
	return nil
}

func (s *store) payment(id uuid.UUID) *entity.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payments[id]
}

func (s *store) notificationTitles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	titles := make([]string, 0, len(s.notifications))
	for _, n := range s.notifications {
		titles = append(titles, n.Title)
	}
	return titles
}

// fakeGateway verifies signatures against a fixed value and records init
// calls.
type fakeGateway struct {
	live      bool
	validSign string
	initErr   error
	inits     []sslcommerz.InitRequest
}

func (g *fakeGateway) InitSession(_ context.Context, req sslcommerz.InitRequest) (*sslcommerz.InitResponse, error) {
	g.inits = append(g.inits, req)
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &sslcommerz.InitResponse{
		Status:         "SUCCESS",
		GatewayPageURL: "https://gateway.test/pay/" + req.TransactionID,
		SessionKey:     "SESSION-" + req.TransactionID,
	}, nil
}

func (g *fakeGateway) VerifySignature(_, verifySign string) error {
	if verifySign == "" {
		return sslcommerz.ErrMissingSignature
	}
	if verifySign != g.validSign {
		return errors.New("signature mismatch")
	}
	return nil
}

func (g *fakeGateway) IsLive() bool { return g.live }

type countingRecorder struct {
	mu          sync.Mutex
	settlements map[string]int
	sigFailures map[string]int
	quotes      int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{settlements: map[string]int{}, sigFailures: map[string]int{}}
}

func (r *countingRecorder) Settlement(origin, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settlements[origin+"/"+outcome]++
}

func (r *countingRecorder) SignatureFailure(mode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sigFailures[mode]++
}

func (r *countingRecorder) PriceQuote(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotes++
}

func (r *countingRecorder) RateLimited(string) {}

var testNow = time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)

func testConfig() *utils.Config {
	return &utils.Config{
		App:     utils.AppConfig{BaseURL: "https://api.test", Timezone: "Asia/Dhaka"},
		Gateway: utils.GatewayConfig{Currency: "BDT"},
	}
}

// fixture seeds a user, a garage owner with one garage, a premium plan and
// a booking served by that garage.
type fixture struct {
	store    *store
	repo     *repository.Repository
	gateway  *fakeGateway
	recorder *countingRecorder

	user    *entity.User
	owner   *entity.User
	admin   *entity.User
	garage  *entity.Garage
	plan    *entity.Plan
	booking *entity.Booking
}

func newFixture() *fixture {
	s := newStore()
	f := &fixture{
		store:    s,
		repo:     s.repository(),
		gateway:  &fakeGateway{validSign: "good-sign"},
		recorder: newCountingRecorder(),
	}

	f.user = &entity.User{Base: entity.Base{ID: uuid.New()}, Name: "Rahim", Email: "rahim@example.com", Role: entity.RoleUser, IsActive: true}
	f.owner = &entity.User{Base: entity.Base{ID: uuid.New()}, Name: "Karim Motors", Email: "owner@example.com", Role: entity.RoleGarage, IsActive: true}
	f.admin = &entity.User{Base: entity.Base{ID: uuid.New()}, Name: "Ops", Email: "ops@example.com", Role: entity.RoleAdmin, IsActive: true}
	for _, u := range []*entity.User{f.user, f.owner, f.admin} {
		s.users[u.ID] = u
	}

	f.garage = &entity.Garage{
		BaseNoDelete:   entity.NewBaseNoDelete(testNow),
		OwnerID:        f.owner.ID,
		Name:           "Karim Motors",
		MembershipTier: billing.TierFree,
		Latitude:       23.8103,
		Longitude:      90.4125,
	}
	s.garages[f.garage.ID] = f.garage

	f.plan = &entity.Plan{
		BaseNoDelete: entity.NewBaseNoDelete(testNow),
		Name:         "Premium",
		Tier:         billing.TierPremium,
		PriceMonthly: 999,
		PriceYearly:  9990,
		IsActive:     true,
	}
	s.plans[f.plan.ID] = f.plan

	scheduled := testNow.Add(48 * time.Hour)
	f.booking = &entity.Booking{
		BaseNoDelete:  entity.NewBaseNoDelete(testNow),
		BookingNumber: "BK-1001",
		UserID:        f.user.ID,
		GarageID:      &f.garage.ID,
		Status:        entity.BookingStatusConfirmed,
		EstimatedCost: 1000,
		ScheduledAt:   &scheduled,
	}
	s.bookings[f.booking.ID] = f.booking

	return f
}

func (f *fixture) paymentService() *paymentService {
	notifier := NewNotifier(f.repo.Notification, nil, zap.NewNop())
	svc := NewPaymentService(f.repo, f.gateway, notifier, f.recorder, testConfig(), zap.NewNop()).(*paymentService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func (f *fixture) bookingPaymentService() *bookingPaymentService {
	notifier := NewNotifier(f.repo.Notification, nil, zap.NewNop())
	svc := NewBookingPaymentService(f.repo, notifier, f.recorder, testConfig(), zap.NewNop()).(*bookingPaymentService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func actorOf(u *entity.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

// checkout starts a monthly subscription checkout for the fixture user.
func (f *fixture) checkout(svc *paymentService) *entity.Payment {
	resp, err := svc.InitSubscriptionPayment(context.Background(), actorOf(f.user), &request.InitSubscriptionPaymentRequest{
		PlanID:       f.plan.ID.String(),
		BillingCycle: "monthly",
	})
	if err != nil {
		panic(err)
	}
	return f.store.payment(uuid.MustParse(resp.PaymentID))
}

func ipnFor(p *entity.Payment, status, sign string) *request.IPNRequest {
	req := &request.IPNRequest{
		TranID:     *p.TransactionID,
		ValID:      "VAL-" + p.ID.String()[:8],
		Status:     status,
		ValueA:     p.ID.String(),
		VerifySign: sign,
	}
	if p.SubscriptionID != nil {
		req.ValueB = p.SubscriptionID.String()
	}
	if p.BookingID != nil {
		req.ValueB = p.BookingID.String()
	}
	return req
}
