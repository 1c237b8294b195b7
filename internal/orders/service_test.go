package orders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/worldtek/canteen-backend/internal/cart"
	"github.com/worldtek/canteen-backend/internal/wallet"
	"github.com/worldtek/canteen-backend/pkg/db/models"
	"github.com/worldtek/canteen-backend/pkg/enums"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
	"github.com/worldtek/canteen-backend/pkg/gateway"
	"github.com/worldtek/canteen-backend/pkg/pagination"
)

type stubOrderRepo struct {
	orders   map[uuid.UUID]*models.Order
	payments map[uuid.UUID]*models.Payment
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{
		orders:   map[uuid.UUID]*models.Order{},
		payments: map[uuid.UUID]*models.Payment{},
	}
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrderRepo) CreateOrder(_ context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now()
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrderRepo) CreateOrderItems(_ context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	order := s.orders[items[0].OrderID]
	order.Items = append(order.Items, items...)
	return nil
}

func (s *stubOrderRepo) CreatePayment(_ context.Context, payment *models.Payment) (*models.Payment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	s.payments[payment.ID] = payment
	order := s.orders[payment.OrderID]
	order.Payments = append(order.Payments, *payment)
	return payment, nil
}

func (s *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s.syncPayments(order)
	return order, nil
}

func (s *stubOrderRepo) FindByIDAndStatus(_ context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok || order.Status != status {
		return nil, gorm.ErrRecordNotFound
	}
	s.syncPayments(order)
	return order, nil
}

func (s *stubOrderRepo) syncPayments(order *models.Order) {
	for i := range order.Payments {
		if stored, ok := s.payments[order.Payments[i].ID]; ok {
			order.Payments[i] = *stored
		}
	}
}

func (s *stubOrderRepo) FindPaymentByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	payment, ok := s.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return payment, nil
}

func (s *stubOrderRepo) ListByUser(_ context.Context, userID uuid.UUID, _ pagination.Params) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *stubOrderRepo) UpdateOrderStatus(_ context.Context, id uuid.UUID, status enums.OrderStatus) error {
	if order, ok := s.orders[id]; ok {
		order.Status = status
	}
	return nil
}

func (s *stubOrderRepo) UpdateOrderQR(_ context.Context, id uuid.UUID, qrCode string) error {
	if order, ok := s.orders[id]; ok {
		order.QRCode = &qrCode
	}
	return nil
}

func (s *stubOrderRepo) UpdatePayment(_ context.Context, payment *models.Payment) error {
	s.payments[payment.ID] = payment
	return nil
}

type stubCartRepo struct {
	cart    *models.Cart
	deleted bool
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) cart.Repository { return s }

func (s *stubCartRepo) Create(_ context.Context, c *models.Cart) (*models.Cart, error) {
	s.cart = c
	return c, nil
}

func (s *stubCartRepo) FindActiveByUser(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	if s.cart == nil || s.deleted || s.cart.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.cart, nil
}

func (s *stubCartRepo) UpdateStatus(_ context.Context, _ uuid.UUID, status enums.CartStatus) error {
	s.cart.Status = status
	return nil
}

func (s *stubCartRepo) ReplaceItems(_ context.Context, c *models.Cart, items []models.CartItem) (*models.Cart, error) {
	c.Items = items
	return c, nil
}

func (s *stubCartRepo) DeleteWithItems(_ context.Context, _ uuid.UUID) error {
	s.deleted = true
	return nil
}

type stubWalletRepo struct {
	balance int64
	entries []*models.WalletEntry
}

func (s *stubWalletRepo) WithTx(tx *gorm.DB) wallet.Repository { return s }

func (s *stubWalletRepo) Create(_ context.Context, entry *models.WalletEntry) (*models.WalletEntry, error) {
	s.entries = append(s.entries, entry)
	switch entry.Type {
	case enums.WalletEntryCredit:
		s.balance += entry.AmountPaise
	case enums.WalletEntryDebit:
		s.balance -= entry.AmountPaise
	}
	return entry, nil
}

func (s *stubWalletRepo) ListByUser(_ context.Context, _ uuid.UUID, _ pagination.Params) ([]models.WalletEntry, error) {
	var out []models.WalletEntry
	for _, entry := range s.entries {
		out = append(out, *entry)
	}
	return out, nil
}

func (s *stubWalletRepo) SumByUser(_ context.Context, _ uuid.UUID) (int64, error) {
	return s.balance, nil
}

func (s *stubWalletRepo) SumByUserForUpdate(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.SumByUser(ctx, userID)
}

type stubUserLoader struct {
	user *models.User
}

func (s *stubUserLoader) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubGateway struct {
	created  []gateway.CreateLinkInput
	links    map[string]*gateway.LinkDetails
	failNext bool
}

func (s *stubGateway) LinkID(paymentID string, now time.Time) string {
	return "canteen_" + now.Format("02012006") + "_" + paymentID
}

func (s *stubGateway) CreatePaymentLink(_ context.Context, in gateway.CreateLinkInput) (*gateway.PaymentLink, error) {
	if s.failNext {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "provider unavailable")
	}
	s.created = append(s.created, in)
	return &gateway.PaymentLink{LinkID: in.LinkID, LinkURL: "https://pay.example/" + in.LinkID}, nil
}

func (s *stubGateway) GetLink(_ context.Context, linkID string) (*gateway.LinkDetails, error) {
	if details, ok := s.links[linkID]; ok {
		return details, nil
	}
	return &gateway.LinkDetails{LinkID: linkID, Status: "ACTIVE"}, nil
}

type fixture struct {
	svc     Service
	repo    *stubOrderRepo
	cart    *stubCartRepo
	wallet  *stubWalletRepo
	gateway *stubGateway
	userID  uuid.UUID
}

func newFixture(t *testing.T, cartTotal, walletBalance int64) *fixture {
	t.Helper()

	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	userID := uuid.New()
	cartID := uuid.New()
	itemID := uuid.New()

	cartRepo := &stubCartRepo{cart: &models.Cart{
		ID:                  cartID,
		UserID:              userID,
		CanteenID:           uuid.New(),
		MenuConfigurationID: uuid.New(),
		OrderDate:           time.Date(2025, 9, 1, 0, 0, 0, 0, loc).Unix(),
		TotalPaise:          cartTotal,
		Status:              enums.CartStatusActive,
		Items: []models.CartItem{{
			ID:             uuid.New(),
			CartID:         cartID,
			ItemID:         itemID,
			Quantity:       1,
			UnitPricePaise: cartTotal,
			TotalPaise:     cartTotal,
		}},
	}}

	walletRepo := &stubWalletRepo{balance: walletBalance}
	orderRepo := newStubOrderRepo()
	gatewayStub := &stubGateway{links: map[string]*gateway.LinkDetails{}}
	users := &stubUserLoader{user: &models.User{ID: userID, FirstName: "Asha", Mobile: "919876543210"}}

	svc, err := NewService(orderRepo, cartRepo, walletRepo, users, stubTxRunner{}, gatewayStub, nil, nil, "0", loc)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	return &fixture{
		svc:     svc,
		repo:    orderRepo,
		cart:    cartRepo,
		wallet:  walletRepo,
		gateway: gatewayStub,
		userID:  userID,
	}
}

func TestPlaceOrderWalletPlusCash(t *testing.T) {
	// Cart of 250 rupees against a 100 rupee wallet balance.
	f := newFixture(t, 25000, 10000)

	result, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:  f.userID,
		Methods: []enums.PaymentMethod{enums.PaymentMethodWallet, enums.PaymentMethodCash},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if result.WalletPaidPaise != 10000 {
		t.Fatalf("expected wallet to pay 10000, got %d", result.WalletPaidPaise)
	}
	if result.RemainingPaise != 15000 {
		t.Fatalf("expected 15000 remaining, got %d", result.RemainingPaise)
	}
	if result.Order.Status != enums.OrderStatusPlaced {
		t.Fatalf("expected placed order, got %q", result.Order.Status)
	}
	if result.QRCode == nil || !strings.HasPrefix(*result.QRCode, "data:image/png;base64,") {
		t.Fatal("expected a QR data URL")
	}

	if len(result.Order.Payments) != 2 {
		t.Fatalf("expected wallet + cash payments, got %d", len(result.Order.Payments))
	}
	byMethod := map[enums.PaymentMethod]models.Payment{}
	for _, payment := range result.Order.Payments {
		byMethod[payment.Method] = payment
	}
	if byMethod[enums.PaymentMethodWallet].AmountPaise != 10000 || byMethod[enums.PaymentMethodWallet].Status != enums.PaymentStatusSuccess {
		t.Fatalf("unexpected wallet payment %+v", byMethod[enums.PaymentMethodWallet])
	}
	if byMethod[enums.PaymentMethodCash].AmountPaise != 15000 || byMethod[enums.PaymentMethodCash].Status != enums.PaymentStatusSuccess {
		t.Fatalf("unexpected cash payment %+v", byMethod[enums.PaymentMethodCash])
	}

	if f.wallet.balance != 0 {
		t.Fatalf("expected wallet drained, got %d", f.wallet.balance)
	}
	if !f.cart.deleted {
		t.Fatal("expected cart to be destroyed")
	}
}

func TestPlaceOrderWalletCoversTotal(t *testing.T) {
	f := newFixture(t, 25000, 40000)

	result, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:  f.userID,
		Methods: []enums.PaymentMethod{enums.PaymentMethodWallet, enums.PaymentMethodCash},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if result.WalletPaidPaise != 25000 || result.RemainingPaise != 0 {
		t.Fatalf("unexpected split %d/%d", result.WalletPaidPaise, result.RemainingPaise)
	}
	// No zero-amount cash payment row.
	if len(result.Order.Payments) != 1 {
		t.Fatalf("expected a single wallet payment, got %d", len(result.Order.Payments))
	}
	if f.wallet.balance != 15000 {
		t.Fatalf("expected 15000 left in wallet, got %d", f.wallet.balance)
	}
}

func TestPlaceOrderWalletCoversOnlineOrderIsPlaced(t *testing.T) {
	f := newFixture(t, 25000, 40000)

	result, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:  f.userID,
		Methods: []enums.PaymentMethod{enums.PaymentMethodWallet, enums.PaymentMethodOnline},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	// Nothing is owed, so there is no payment confirmation to wait for.
	if result.Order.Status != enums.OrderStatusPlaced {
		t.Fatalf("expected placed order, got %q", result.Order.Status)
	}
	if len(f.gateway.created) != 0 {
		t.Fatalf("expected no link request, got %+v", f.gateway.created)
	}
	if result.PaymentLink != nil {
		t.Fatal("expected no payment link")
	}
	if result.QRCode == nil {
		t.Fatal("expected QR code on an immediately placed order")
	}
}

func TestPlaceOrderOnlineCreatesPendingLink(t *testing.T) {
	f := newFixture(t, 25000, 10000)

	result, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:  f.userID,
		Methods: []enums.PaymentMethod{enums.PaymentMethodWallet, enums.PaymentMethodOnline},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if result.Order.Status != enums.OrderStatusInitiated {
		t.Fatalf("expected initiated order, got %q", result.Order.Status)
	}
	if result.PaymentLink == nil {
		t.Fatal("expected a payment link")
	}
	if result.QRCode != nil {
		t.Fatal("online orders receive their QR at confirmation")
	}
	if len(f.gateway.created) != 1 || f.gateway.created[0].AmountPaise != 15000 {
		t.Fatalf("unexpected link request %+v", f.gateway.created)
	}

	var online models.Payment
	for _, payment := range result.Order.Payments {
		if payment.Method == enums.PaymentMethodOnline {
			online = payment
		}
	}
	if online.Status != enums.PaymentStatusPending {
		t.Fatalf("expected pending online payment, got %q", online.Status)
	}
}

func TestPlaceOrderGatewayFailureSurfacesGatewayError(t *testing.T) {
	f := newFixture(t, 25000, 0)
	f.gateway.failNext = true

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:  f.userID,
		Methods: []enums.PaymentMethod{enums.PaymentMethodOnline},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeGateway {
		t.Fatalf("expected gateway error, got %v", err)
	}
}

func TestPlaceOrderRemainingWithoutMethod(t *testing.T) {
	f := newFixture(t, 25000, 10000)

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:  f.userID,
		Methods: []enums.PaymentMethod{enums.PaymentMethodWallet},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPlaceOrderNoActiveCart(t *testing.T) {
	f := newFixture(t, 25000, 10000)
	f.cart.deleted = true

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:  f.userID,
		Methods: []enums.PaymentMethod{enums.PaymentMethodCash},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCancelOrderRefundAsymmetry(t *testing.T) {
	f := newFixture(t, 25000, 10000)

	placed, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:  f.userID,
		Methods: []enums.PaymentMethod{enums.PaymentMethodWallet, enums.PaymentMethodCash},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if f.wallet.balance != 0 {
		t.Fatalf("expected drained wallet, got %d", f.wallet.balance)
	}

	cancelled, err := f.svc.CancelOrder(context.Background(), placed.Order.ID)
	if err != nil {
		t.Fatalf("cancel order: %v", err)
	}

	// Both payments count toward the reported refund total.
	if cancelled.RefundPaise != 25000 {
		t.Fatalf("expected 25000 refund, got %d", cancelled.RefundPaise)
	}
	// Only the wallet slice is credited back; cash is handed over at the counter.
	if f.wallet.balance != 10000 {
		t.Fatalf("expected 10000 back in wallet, got %d", f.wallet.balance)
	}

	reloaded, err := f.repo.FindByID(context.Background(), placed.Order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %q", reloaded.Status)
	}
	for _, payment := range reloaded.Payments {
		if payment.Status != enums.PaymentStatusRefunded {
			t.Fatalf("expected refunded payment, got %+v", payment)
		}
	}
}

func TestCancelOrderOnlyPlaced(t *testing.T) {
	f := newFixture(t, 25000, 0)

	placed, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:  f.userID,
		Methods: []enums.PaymentMethod{enums.PaymentMethodOnline},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	// Order is still initiated, so cancellation cannot find it.
	_, err = f.svc.CancelOrder(context.Background(), placed.Order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConfirmPaymentLinkPaid(t *testing.T) {
	f := newFixture(t, 25000, 0)

	placed, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:  f.userID,
		Methods: []enums.PaymentMethod{enums.PaymentMethodOnline},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	linkID := placed.PaymentLink.LinkID
	f.gateway.links[linkID] = &gateway.LinkDetails{LinkID: linkID, Status: "PAID", ReferenceID: "cf-123"}

	result, err := f.svc.ConfirmPaymentLink(context.Background(), linkID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !result.Paid {
		t.Fatal("expected paid result")
	}
	if result.QRCode == nil {
		t.Fatal("expected QR code to be generated")
	}

	order, err := f.repo.FindByID(context.Background(), result.OrderID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if order.Status != enums.OrderStatusPlaced {
		t.Fatalf("expected placed, got %q", order.Status)
	}
	payment, err := f.repo.FindPaymentByID(context.Background(), result.PaymentID)
	if err != nil {
		t.Fatalf("reload payment: %v", err)
	}
	if payment.Status != enums.PaymentStatusSuccess {
		t.Fatalf("expected success payment, got %q", payment.Status)
	}
	if payment.TransactionID == nil || *payment.TransactionID != "cf-123" {
		t.Fatalf("expected provider reference, got %v", payment.TransactionID)
	}
}

func TestConfirmPaymentLinkUnpaidNoop(t *testing.T) {
	f := newFixture(t, 25000, 0)

	placed, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:  f.userID,
		Methods: []enums.PaymentMethod{enums.PaymentMethodOnline},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	result, err := f.svc.ConfirmPaymentLink(context.Background(), placed.PaymentLink.LinkID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if result.Paid {
		t.Fatal("expected unpaid result")
	}

	order, _ := f.repo.FindByID(context.Background(), placed.Order.ID)
	if order.Status != enums.OrderStatusInitiated {
		t.Fatalf("expected order untouched, got %q", order.Status)
	}
}

func TestConfirmPaymentLinkMalformed(t *testing.T) {
	f := newFixture(t, 25000, 0)

	for _, bad := range []string{"nounderscore", "trailing_", "canteen_01092025_not-a-uuid"} {
		_, err := f.svc.ConfirmPaymentLink(context.Background(), bad)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %q, got %v", bad, err)
		}
	}
}

func TestMarkCompleted(t *testing.T) {
	f := newFixture(t, 25000, 40000)

	placed, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:  f.userID,
		Methods: []enums.PaymentMethod{enums.PaymentMethodWallet},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	completed, err := f.svc.MarkCompleted(context.Background(), placed.Order.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != enums.OrderStatusCompleted {
		t.Fatalf("expected completed, got %q", completed.Status)
	}

	_, err = f.svc.MarkCompleted(context.Background(), placed.Order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestGetForUserHidesOtherUsersOrders(t *testing.T) {
	f := newFixture(t, 25000, 40000)

	placed, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:  f.userID,
		Methods: []enums.PaymentMethod{enums.PaymentMethodWallet},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if _, err := f.svc.GetForUser(context.Background(), f.userID, placed.Order.ID); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}

	_, err = f.svc.GetForUser(context.Background(), uuid.New(), placed.Order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for stranger, got %v", err)
	}
}

func TestSurchargeAppliedToTotal(t *testing.T) {
	f := newFixture(t, 25000, 0)
	loc, _ := time.LoadLocation("Asia/Kolkata")

	svc, err := NewService(f.repo, f.cart, f.wallet, &stubUserLoader{user: &models.User{ID: f.userID, FirstName: "Asha", Mobile: "919876543210"}}, stubTxRunner{}, f.gateway, nil, nil, "2", loc)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:  f.userID,
		Methods: []enums.PaymentMethod{enums.PaymentMethodCash},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	// 2% of 25000 paise = 500 paise.
	if result.Order.TotalPaise != 25500 {
		t.Fatalf("expected 25500 total, got %d", result.Order.TotalPaise)
	}
}
