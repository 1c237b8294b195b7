package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/worldtek/canteen-backend/internal/cart"
	"github.com/worldtek/canteen-backend/internal/wallet"
	"github.com/worldtek/canteen-backend/pkg/db/models"
	"github.com/worldtek/canteen-backend/pkg/enums"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
	"github.com/worldtek/canteen-backend/pkg/gateway"
	"github.com/worldtek/canteen-backend/pkg/logger"
	"github.com/worldtek/canteen-backend/pkg/pagination"
	"github.com/worldtek/canteen-backend/pkg/qr"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type linkProvider interface {
	LinkID(paymentID string, now time.Time) string
	CreatePaymentLink(ctx context.Context, in gateway.CreateLinkInput) (*gateway.PaymentLink, error)
	GetLink(ctx context.Context, linkID string) (*gateway.LinkDetails, error)
}

type notifier interface {
	SendText(ctx context.Context, to, text string) error
}

// Service settles carts into orders and drives the order lifecycle.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID) (*CancelOrderResult, error)
	ConfirmPaymentLink(ctx context.Context, linkID string) (*ConfirmPaymentResult, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	MarkCompleted(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

// PlaceOrderInput captures a settlement request for the user's active cart.
type PlaceOrderInput struct {
	UserID        uuid.UUID
	Methods       []enums.PaymentMethod
	TransactionID *string
	Currency      enums.Currency
}

// PlaceOrderResult reports how the cart settled.
type PlaceOrderResult struct {
	Order           *models.Order        `json:"order"`
	WalletPaidPaise int64                `json:"wallet_paid_paise"`
	RemainingPaise  int64                `json:"remaining_paise"`
	QRCode          *string              `json:"qr_code,omitempty"`
	PaymentLink     *gateway.PaymentLink `json:"payment_link,omitempty"`
}

// CancelOrderResult reports the refund outcome of a cancellation.
type CancelOrderResult struct {
	OrderID     uuid.UUID         `json:"order_id"`
	Status      enums.OrderStatus `json:"status"`
	RefundPaise int64             `json:"refund_paise"`
}

// ConfirmPaymentResult reports a payment-link reconciliation.
type ConfirmPaymentResult struct {
	Paid      bool      `json:"paid"`
	OrderID   uuid.UUID `json:"order_id"`
	PaymentID uuid.UUID `json:"payment_id"`
	QRCode    *string   `json:"qr_code,omitempty"`
}

type service struct {
	repo       Repository
	cartRepo   cart.Repository
	walletRepo wallet.Repository
	users      userLoader
	tx         txRunner
	gateway    linkProvider
	notifier   notifier
	log        *logger.Logger
	surcharge  decimal.Decimal
	loc        *time.Location
	now        func() time.Time
}

// NewService wires the settlement engine. The gateway client and notifier may
// be nil; online payments then fail and notifications are skipped.
func NewService(
	repo Repository,
	cartRepo cart.Repository,
	walletRepo wallet.Repository,
	users userLoader,
	tx txRunner,
	gatewayClient linkProvider,
	notifierClient notifier,
	log *logger.Logger,
	surchargePercent string,
	loc *time.Location,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if walletRepo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if loc == nil {
		return nil, fmt.Errorf("timezone required")
	}

	surcharge := decimal.Zero
	if surchargePercent != "" {
		parsed, err := decimal.NewFromString(surchargePercent)
		if err != nil {
			return nil, fmt.Errorf("invalid surcharge percent %q: %w", surchargePercent, err)
		}
		if parsed.IsNegative() {
			return nil, fmt.Errorf("surcharge percent cannot be negative")
		}
		surcharge = parsed
	}

	return &service{
		repo:       repo,
		cartRepo:   cartRepo,
		walletRepo: walletRepo,
		users:      users,
		tx:         tx,
		gateway:    gatewayClient,
		notifier:   notifierClient,
		log:        log,
		surcharge:  surcharge,
		loc:        loc,
		now:        time.Now,
	}, nil
}

// PlaceOrder converts the user's active cart into an order inside a single
// transaction. Wallet funds are applied first, clamped to the balance; the
// remainder settles by cash or a gateway payment link. A gateway failure
// rolls back the entire settlement.
//
// The order starts as initiated only when an unpaid remainder actually needs
// the gateway. An online order fully covered by the wallet is placed
// immediately rather than waiting on a payment confirmation that will never
// arrive.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	useWallet, remainderMethod, err := splitMethods(input.Methods)
	if err != nil {
		return nil, err
	}

	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyINR
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", currency))
	}

	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	result := &PlaceOrderResult{}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)
		walletRepo := s.walletRepo.WithTx(tx)

		activeCart, err := cartRepo.FindActiveByUser(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no active cart to settle")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(activeCart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
		}

		total := activeCart.TotalPaise + s.surchargePaise(activeCart.TotalPaise)

		var walletPaid int64
		if useWallet {
			balance, err := walletRepo.SumByUserForUpdate(ctx, input.UserID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read wallet balance")
			}
			walletPaid = min(balance, total)
			if walletPaid < 0 {
				walletPaid = 0
			}
		}
		remaining := total - walletPaid
		if remaining > 0 && remainderMethod == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "wallet balance does not cover the order; add a cash or online method")
		}

		status := enums.OrderStatusPlaced
		if remaining > 0 && remainderMethod.RequiresGateway() {
			status = enums.OrderStatusInitiated
		}

		order, err := repo.CreateOrder(ctx, &models.Order{
			UserID:              input.UserID,
			CanteenID:           activeCart.CanteenID,
			MenuConfigurationID: activeCart.MenuConfigurationID,
			OrderDate:           activeCart.OrderDate,
			TotalPaise:          total,
			Status:              status,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		orderItems := make([]models.OrderItem, 0, len(activeCart.Items))
		for _, line := range activeCart.Items {
			orderItems = append(orderItems, models.OrderItem{
				OrderID:        order.ID,
				ItemID:         line.ItemID,
				Quantity:       line.Quantity,
				UnitPricePaise: line.UnitPricePaise,
				TotalPaise:     line.TotalPaise,
			})
		}
		if err := repo.CreateOrderItems(ctx, orderItems); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		// Online orders receive their QR at payment confirmation instead.
		if status == enums.OrderStatusPlaced {
			code, err := qr.DataURL(order.ID.String())
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate qr code")
			}
			if err := repo.UpdateOrderQR(ctx, order.ID, code); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist qr code")
			}
			result.QRCode = &code
		}

		if walletPaid > 0 {
			if _, err := repo.CreatePayment(ctx, &models.Payment{
				OrderID:     order.ID,
				UserID:      input.UserID,
				Method:      enums.PaymentMethodWallet,
				AmountPaise: walletPaid,
				TotalPaise:  total,
				Currency:    currency,
				Status:      enums.PaymentStatusSuccess,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create wallet payment")
			}
			if _, err := walletRepo.Create(ctx, &models.WalletEntry{
				UserID:      input.UserID,
				ReferenceID: &order.ID,
				Type:        enums.WalletEntryDebit,
				AmountPaise: walletPaid,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit wallet")
			}
		}

		if remaining > 0 {
			paymentStatus := enums.PaymentStatusSuccess
			if remainderMethod.RequiresGateway() {
				paymentStatus = enums.PaymentStatusPending
			}
			payment, err := repo.CreatePayment(ctx, &models.Payment{
				OrderID:       order.ID,
				UserID:        input.UserID,
				Method:        remainderMethod,
				AmountPaise:   remaining,
				TotalPaise:    total,
				Currency:      currency,
				Status:        paymentStatus,
				TransactionID: input.TransactionID,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
			}

			if remainderMethod.RequiresGateway() {
				if s.gateway == nil {
					return pkgerrors.New(pkgerrors.CodeGateway, "payment gateway not configured")
				}
				link, err := s.gateway.CreatePaymentLink(ctx, gateway.CreateLinkInput{
					LinkID:        s.gateway.LinkID(payment.ID.String(), s.now()),
					AmountPaise:   remaining,
					Currency:      currency.String(),
					CustomerName:  user.FirstName,
					CustomerPhone: user.Mobile,
					CustomerEmail: stringValue(user.Email),
				})
				if err != nil {
					return err
				}
				result.PaymentLink = link
			}
		}

		if err := cartRepo.DeleteWithItems(ctx, activeCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		settled, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		result.Order = settled
		result.WalletPaidPaise = walletPaid
		result.RemainingPaise = remaining
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Order.Status == enums.OrderStatusPlaced {
		s.notifyAsync(ctx, user.Mobile, fmt.Sprintf(
			"Your order %s is confirmed. Show the QR code at the counter to collect it.",
			result.Order.ID,
		))
	}
	return result, nil
}

// CancelOrder cancels a placed order and refunds its settled payments.
// Wallet and online amounts are credited back to the wallet; cash counts
// toward the reported refund but is returned at the counter.
func (s *service) CancelOrder(ctx context.Context, orderID uuid.UUID) (*CancelOrderResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	result := &CancelOrderResult{OrderID: orderID, Status: enums.OrderStatusCancelled}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		walletRepo := s.walletRepo.WithTx(tx)

		order, err := repo.FindByIDAndStatus(ctx, orderID, enums.OrderStatusPlaced)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if err := repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusCancelled); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}

		for i := range order.Payments {
			payment := &order.Payments[i]
			if payment.Status != enums.PaymentStatusSuccess {
				continue
			}
			result.RefundPaise += payment.AmountPaise

			if payment.Method.WalletRefundable() {
				if _, err := walletRepo.Create(ctx, &models.WalletEntry{
					UserID:      order.UserID,
					ReferenceID: &order.ID,
					Type:        enums.WalletEntryCredit,
					AmountPaise: payment.AmountPaise,
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit refund")
				}
			}

			payment.Status = enums.PaymentStatusRefunded
			if err := repo.UpdatePayment(ctx, payment); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment refunded")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ConfirmPaymentLink reconciles a gateway payment link. A paid link promotes
// the payment to success and the order from initiated to placed; anything
// else leaves the rows untouched.
func (s *service) ConfirmPaymentLink(ctx context.Context, linkID string) (*ConfirmPaymentResult, error) {
	paymentIDText, err := gateway.PaymentIDFromLinkID(linkID)
	if err != nil {
		return nil, err
	}
	paymentID, err := uuid.Parse(paymentIDText)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "malformed link id")
	}

	payment, err := s.repo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}

	result := &ConfirmPaymentResult{OrderID: payment.OrderID, PaymentID: payment.ID}
	if payment.Status == enums.PaymentStatusSuccess {
		result.Paid = true
		order, err := s.repo.FindByID(ctx, payment.OrderID)
		if err == nil {
			result.QRCode = order.QRCode
		}
		return result, nil
	}

	if s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "payment gateway not configured")
	}
	details, err := s.gateway.GetLink(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if !details.Paid() {
		return result, nil
	}

	var userID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payment.Status = enums.PaymentStatusSuccess
		if details.ReferenceID != "" {
			reference := details.ReferenceID
			payment.TransactionID = &reference
		}
		if err := repo.UpdatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment paid")
		}

		order, err := repo.FindByID(ctx, payment.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		userID = order.UserID

		if order.Status == enums.OrderStatusInitiated {
			if err := repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusPlaced); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
			}
		}

		if order.QRCode == nil {
			code, err := qr.DataURL(order.ID.String())
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate qr code")
			}
			if err := repo.UpdateOrderQR(ctx, order.ID, code); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist qr code")
			}
			result.QRCode = &code
		} else {
			result.QRCode = order.QRCode
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Paid = true

	if user, err := s.users.FindByID(ctx, userID); err == nil {
		s.notifyAsync(ctx, user.Mobile, fmt.Sprintf(
			"Payment received. Your order %s is confirmed; show the QR code at the counter.",
			result.OrderID,
		))
	}
	return result, nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	if userID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	orders, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	next := ""
	if len(orders) > limit {
		orders = orders[:limit]
		last := orders[len(orders)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return orders, next, nil
}

// MarkCompleted flips a placed order to completed when it is collected.
func (s *service) MarkCompleted(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status != enums.OrderStatusPlaced {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is %s, not placed", order.Status))
	}

	if err := s.repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusCompleted); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete order")
	}
	order.Status = enums.OrderStatusCompleted
	return order, nil
}

func (s *service) surchargePaise(totalPaise int64) int64 {
	if s.surcharge.IsZero() {
		return 0
	}
	return decimal.NewFromInt(totalPaise).
		Mul(s.surcharge).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// notifyAsync sends a WhatsApp message without holding up the caller. The
// settlement has already committed; delivery failures are only logged.
func (s *service) notifyAsync(ctx context.Context, mobile, text string) {
	if s.notifier == nil || mobile == "" {
		return
	}
	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		if err := s.notifier.SendText(sendCtx, mobile, text); err != nil && s.log != nil {
			s.log.Error(sendCtx, "order notification failed", err)
		}
	}()
}

// splitMethods validates the requested payment methods and reduces them to a
// wallet flag plus at most one remainder method.
func splitMethods(methods []enums.PaymentMethod) (bool, enums.PaymentMethod, error) {
	if len(methods) == 0 {
		return false, "", pkgerrors.New(pkgerrors.CodeValidation, "at least one payment method is required")
	}

	var useWallet bool
	var remainder enums.PaymentMethod
	for _, method := range methods {
		if !method.IsValid() {
			return false, "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", method))
		}
		if method == enums.PaymentMethodWallet {
			useWallet = true
			continue
		}
		if remainder != "" && remainder != method {
			return false, "", pkgerrors.New(pkgerrors.CodeValidation, "only one non-wallet payment method is allowed")
		}
		remainder = method
	}
	return useWallet, remainder, nil
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
