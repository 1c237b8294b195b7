package chatbot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/worldtek/canteen-backend/internal/cart"
	"github.com/worldtek/canteen-backend/internal/menus"
	"github.com/worldtek/canteen-backend/internal/orders"
	"github.com/worldtek/canteen-backend/pkg/db/models"
	"github.com/worldtek/canteen-backend/pkg/enums"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
	"github.com/worldtek/canteen-backend/pkg/redis"
)

type canteenLister interface {
	List(ctx context.Context, includeInactive bool) ([]models.Canteen, error)
}

type menuFinder interface {
	MenusGroupedNextTwoDays(ctx context.Context, canteenID *uuid.UUID) ([]menus.DayMenus, error)
	GetMenu(ctx context.Context, id uuid.UUID) (*models.Menu, error)
}

type cartWriter interface {
	UpsertCart(ctx context.Context, userID uuid.UUID, input cart.UpsertCartInput) (*models.Cart, error)
}

type orderPlacer interface {
	PlaceOrder(ctx context.Context, input orders.PlaceOrderInput) (*orders.PlaceOrderResult, error)
}

type userDirectory interface {
	FindByMobile(ctx context.Context, mobile string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
}

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	ChatSessionKey(sender string) string
}

// Service turns inbound WhatsApp messages into a guided ordering flow:
// pick a canteen, pick a serving, pick items, confirm, pay by UPI link.
type Service interface {
	HandleInbound(ctx context.Context, sender, text string) (string, error)
}

type service struct {
	canteens   canteenLister
	menus      menuFinder
	carts      cartWriter
	orders     orderPlacer
	users      userDirectory
	sessions   sessionStore
	sessionTTL time.Duration
}

// NewService wires the chatbot flow.
func NewService(
	canteens canteenLister,
	menuFinder menuFinder,
	carts cartWriter,
	orderPlacer orderPlacer,
	users userDirectory,
	sessions sessionStore,
	sessionTTL time.Duration,
) (Service, error) {
	if canteens == nil || menuFinder == nil || carts == nil || orderPlacer == nil || users == nil || sessions == nil {
		return nil, fmt.Errorf("all chatbot dependencies are required")
	}
	if sessionTTL <= 0 {
		sessionTTL = 30 * time.Minute
	}
	return &service{
		canteens:   canteens,
		menus:      menuFinder,
		carts:      carts,
		orders:     orderPlacer,
		users:      users,
		sessions:   sessions,
		sessionTTL: sessionTTL,
	}, nil
}

// HandleInbound advances the sender's conversation and returns the reply
// text. Unknown input restarts from the canteen list.
func (s *service) HandleInbound(ctx context.Context, sender, text string) (string, error) {
	if strings.TrimSpace(sender) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "sender is required")
	}
	input := strings.ToLower(strings.TrimSpace(text))

	sess, err := s.loadSession(ctx, sender)
	if err != nil {
		return "", err
	}

	if sess == nil || input == "hi" || input == "hello" || input == "start" || input == "menu" {
		return s.startConversation(ctx, sender)
	}
	if input == "cancel" {
		if err := s.sessions.Del(ctx, s.sessions.ChatSessionKey(sender)); err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session")
		}
		return "Order cancelled. Send \"hi\" whenever you are hungry again.", nil
	}

	switch sess.Stage {
	case stageCanteen:
		return s.handleCanteenChoice(ctx, sender, sess, input)
	case stageMenu:
		return s.handleMenuChoice(ctx, sender, sess, input)
	case stageItems:
		return s.handleItemEntry(ctx, sender, sess, input)
	case stageReview:
		return s.handleReview(ctx, sender, sess, input)
	default:
		return s.startConversation(ctx, sender)
	}
}

func (s *service) startConversation(ctx context.Context, sender string) (string, error) {
	canteens, err := s.canteens.List(ctx, false)
	if err != nil {
		return "", err
	}
	if len(canteens) == 0 {
		return "No canteens are open for ordering right now. Please try again later.", nil
	}

	sess := &session{Stage: stageCanteen}
	var b strings.Builder
	b.WriteString("Welcome to the canteen! Where would you like to order from?\n")
	for i, canteen := range canteens {
		sess.CanteenOptions = append(sess.CanteenOptions, canteenOption{ID: canteen.ID, Name: canteen.Name})
		fmt.Fprintf(&b, "%d. %s\n", i+1, canteen.Name)
	}
	b.WriteString("Reply with a number.")

	if err := s.saveSession(ctx, sender, sess); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *service) handleCanteenChoice(ctx context.Context, sender string, sess *session, input string) (string, error) {
	choice, ok := parseChoice(input, len(sess.CanteenOptions))
	if !ok {
		return fmt.Sprintf("Please reply with a number between 1 and %d, or \"cancel\".", len(sess.CanteenOptions)), nil
	}
	selected := sess.CanteenOptions[choice-1]

	grouped, err := s.menus.MenusGroupedNextTwoDays(ctx, &selected.ID)
	if err != nil {
		return "", err
	}
	if len(grouped) == 0 {
		return fmt.Sprintf("%s has no menus available for today or tomorrow. Reply \"hi\" to pick another canteen.", selected.Name), nil
	}

	sess.Stage = stageMenu
	sess.CanteenID = selected.ID
	sess.CanteenName = selected.Name
	sess.MenuOptions = nil

	var b strings.Builder
	fmt.Fprintf(&b, "Menus at %s:\n", selected.Name)
	index := 1
	for _, day := range grouped {
		for _, group := range day.Groups {
			for _, menu := range group.Menus {
				sess.MenuOptions = append(sess.MenuOptions, menuOption{
					MenuID:              menu.ID,
					MenuConfigurationID: menu.MenuConfigurationID,
					Label:               fmt.Sprintf("%s (%s, until %s)", menu.Name, group.Configuration, group.ServingEnd),
					Date:                day.Date,
				})
				fmt.Fprintf(&b, "%d. %s — %s, %s until %s\n", index, menu.Name, day.Date, group.Configuration, group.ServingEnd)
				index++
			}
		}
	}
	b.WriteString("Reply with a number.")

	if err := s.saveSession(ctx, sender, sess); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *service) handleMenuChoice(ctx context.Context, sender string, sess *session, input string) (string, error) {
	choice, ok := parseChoice(input, len(sess.MenuOptions))
	if !ok {
		return fmt.Sprintf("Please reply with a number between 1 and %d, or \"cancel\".", len(sess.MenuOptions)), nil
	}
	selected := sess.MenuOptions[choice-1]

	menu, err := s.menus.GetMenu(ctx, selected.MenuID)
	if err != nil {
		return "", err
	}

	sess.Stage = stageItems
	sess.MenuID = selected.MenuID
	sess.MenuConfigurationID = selected.MenuConfigurationID
	sess.OrderDate = selected.Date
	sess.ItemOptions = nil
	sess.Selected = nil

	var b strings.Builder
	fmt.Fprintf(&b, "%s for %s:\n", menu.Name, selected.Date)
	index := 1
	for _, menuItem := range menu.Items {
		if menuItem.Item == nil || menuItem.Item.Pricing == nil {
			continue
		}
		sess.ItemOptions = append(sess.ItemOptions, itemOption{
			ItemID:      menuItem.ItemID,
			Name:        menuItem.Item.Name,
			PricePaise:  menuItem.Item.Pricing.PricePaise,
			MinQuantity: menuItem.MinQuantity,
			MaxQuantity: menuItem.MaxQuantity,
		})
		fmt.Fprintf(&b, "%d. %s — %s\n", index, menuItem.Item.Name, rupees(menuItem.Item.Pricing.PricePaise))
		index++
	}
	if len(sess.ItemOptions) == 0 {
		return "That menu has no orderable items right now. Reply \"hi\" to start over.", nil
	}
	b.WriteString("Add items like \"1x2\" (item 1, two plates). Send \"done\" when finished.")

	if err := s.saveSession(ctx, sender, sess); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *service) handleItemEntry(ctx context.Context, sender string, sess *session, input string) (string, error) {
	if input == "done" {
		if len(sess.Selected) == 0 {
			return "Your tray is empty. Add items like \"1x2\" first.", nil
		}
		sess.Stage = stageReview
		if err := s.saveSession(ctx, sender, sess); err != nil {
			return "", err
		}
		return s.reviewText(sess), nil
	}

	index, quantity, ok := parseItemEntry(input)
	if !ok || index < 1 || index > len(sess.ItemOptions) {
		return "I did not catch that. Add items like \"1x2\", or send \"done\".", nil
	}
	option := sess.ItemOptions[index-1]
	if quantity < option.MinQuantity || quantity > option.MaxQuantity {
		return fmt.Sprintf("%s can be ordered in quantities of %d to %d per order.", option.Name, option.MinQuantity, option.MaxQuantity), nil
	}

	replaced := false
	for i := range sess.Selected {
		if sess.Selected[i].ItemID == option.ItemID {
			sess.Selected[i].Quantity = quantity
			replaced = true
			break
		}
	}
	if !replaced {
		sess.Selected = append(sess.Selected, selectedItem{
			ItemID:     option.ItemID,
			Name:       option.Name,
			Quantity:   quantity,
			PricePaise: option.PricePaise,
		})
	}

	if err := s.saveSession(ctx, sender, sess); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added %d x %s. Anything else? Send \"done\" to review.", quantity, option.Name), nil
}

func (s *service) handleReview(ctx context.Context, sender string, sess *session, input string) (string, error) {
	switch input {
	case "edit":
		sess.Stage = stageItems
		if err := s.saveSession(ctx, sender, sess); err != nil {
			return "", err
		}
		return "Back to your tray. Add items like \"1x2\", or send \"done\".", nil
	case "confirm", "yes":
		return s.placeOrder(ctx, sender, sess)
	default:
		return "Reply \"confirm\" to pay, \"edit\" to change items, or \"cancel\" to abandon the order.", nil
	}
}

func (s *service) placeOrder(ctx context.Context, sender string, sess *session) (string, error) {
	user, err := s.users.FindByMobile(ctx, sender)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		user, err = s.users.Create(ctx, &models.User{FirstName: "Guest", Mobile: sender})
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register guest")
		}
	}

	cartItems := make([]cart.CartItemInput, 0, len(sess.Selected))
	for _, item := range sess.Selected {
		cartItems = append(cartItems, cart.CartItemInput{ItemID: item.ItemID, Quantity: item.Quantity})
	}
	if _, err := s.carts.UpsertCart(ctx, user.ID, cart.UpsertCartInput{
		CanteenID:           sess.CanteenID,
		MenuConfigurationID: sess.MenuConfigurationID,
		OrderDate:           sess.OrderDate,
		Items:               cartItems,
	}); err != nil {
		return "", err
	}

	result, err := s.orders.PlaceOrder(ctx, orders.PlaceOrderInput{
		UserID:  user.ID,
		Methods: []enums.PaymentMethod{enums.PaymentMethodUPI},
	})
	if err != nil {
		return "", err
	}

	if err := s.sessions.Del(ctx, s.sessions.ChatSessionKey(sender)); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session")
	}

	if result.PaymentLink != nil {
		return fmt.Sprintf(
			"Order received! Pay %s via UPI to confirm: %s\nYour QR code arrives once the payment clears.",
			rupees(result.RemainingPaise), result.PaymentLink.LinkURL,
		), nil
	}
	return fmt.Sprintf("Order confirmed! Total %s. Show your QR code at the counter.", rupees(result.Order.TotalPaise)), nil
}

func (s *service) reviewText(sess *session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your order at %s for %s:\n", sess.CanteenName, sess.OrderDate)
	for _, item := range sess.Selected {
		fmt.Fprintf(&b, "- %d x %s = %s\n", item.Quantity, item.Name, rupees(item.PricePaise*item.Quantity))
	}
	fmt.Fprintf(&b, "Total %s.\n", rupees(sess.total()))
	b.WriteString("Reply \"confirm\" to pay by UPI, \"edit\" to change items, or \"cancel\".")
	return b.String()
}

func (s *service) loadSession(ctx context.Context, sender string) (*session, error) {
	raw, err := s.sessions.Get(ctx, s.sessions.ChatSessionKey(sender))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}

	var sess session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		// A corrupt session restarts the conversation.
		return nil, nil
	}
	return &sess, nil
}

func (s *service) saveSession(ctx context.Context, sender string, sess *session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal session")
	}
	if err := s.sessions.Set(ctx, s.sessions.ChatSessionKey(sender), string(payload), s.sessionTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	return nil
}

// parseChoice reads a 1-based list selection.
func parseChoice(input string, max int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > max {
		return 0, false
	}
	return n, true
}

// parseItemEntry reads "NxQ" or a bare "N" (quantity 1).
func parseItemEntry(input string) (int, int64, bool) {
	parts := strings.SplitN(strings.ReplaceAll(input, " ", ""), "x", 2)
	index, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	if len(parts) == 1 {
		return index, 1, true
	}
	quantity, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || quantity < 1 {
		return 0, 0, false
	}
	return index, quantity, true
}

func rupees(paise int64) string {
	return "₹" + decimal.NewFromInt(paise).Div(decimal.NewFromInt(100)).StringFixed(2)
}
