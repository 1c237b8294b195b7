package chatbot

import (
	"github.com/google/uuid"
)

// Conversation stages. Each inbound message is interpreted against the
// sender's current stage.
const (
	stageCanteen = "canteen"
	stageMenu    = "menu"
	stageItems   = "items"
	stageReview  = "review"
)

// session is the redis-persisted conversation state for one sender.
type session struct {
	Stage               string          `json:"stage"`
	CanteenID           uuid.UUID       `json:"canteen_id,omitempty"`
	CanteenName         string          `json:"canteen_name,omitempty"`
	MenuID              uuid.UUID       `json:"menu_id,omitempty"`
	MenuConfigurationID uuid.UUID       `json:"menu_configuration_id,omitempty"`
	OrderDate           string          `json:"order_date,omitempty"`
	CanteenOptions      []canteenOption `json:"canteen_options,omitempty"`
	MenuOptions         []menuOption    `json:"menu_options,omitempty"`
	ItemOptions         []itemOption    `json:"item_options,omitempty"`
	Selected            []selectedItem  `json:"selected,omitempty"`
}

type canteenOption struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type menuOption struct {
	MenuID              uuid.UUID `json:"menu_id"`
	MenuConfigurationID uuid.UUID `json:"menu_configuration_id"`
	Label               string    `json:"label"`
	Date                string    `json:"date"`
}

type itemOption struct {
	ItemID      uuid.UUID `json:"item_id"`
	Name        string    `json:"name"`
	PricePaise  int64     `json:"price_paise"`
	MinQuantity int64     `json:"min_quantity"`
	MaxQuantity int64     `json:"max_quantity"`
}

type selectedItem struct {
	ItemID     uuid.UUID `json:"item_id"`
	Name       string    `json:"name"`
	Quantity   int64     `json:"quantity"`
	PricePaise int64     `json:"price_paise"`
}

func (s *session) total() int64 {
	var total int64
	for _, item := range s.Selected {
		total += item.PricePaise * item.Quantity
	}
	return total
}
