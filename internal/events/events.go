// internal/events/events.go
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderPaid    = "OrderPaid"
	EventOrderShipped = "OrderShipped"
)

// Envelope wraps every fulfillment event. CorrelationID is the order id and
// doubles as the partition key.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id"`
	Payload       json.RawMessage `json:"payload"`
}

func NewEnvelope(eventType, correlationID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      "agent-commerce",
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

type ShipTo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
	Postal  string `json:"postal"`
}

// OrderPaidPayload carries what the fulfillment team needs to buy and ship
// the item from the marketplace.
type OrderPaidPayload struct {
	OrderID       string `json:"order_id"`
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	AmazonASIN    string `json:"amazon_asin"`
	AmazonURL     string `json:"amazon_url"`
	Quantity      int    `json:"quantity"`
	Total         string `json:"total"`
	Currency      string `json:"currency"`
	PaymentMethod string `json:"payment_method"`
	SettlementRef string `json:"settlement_ref"`
	AgentID       string `json:"agent_id,omitempty"`
	ShipTo        ShipTo `json:"ship_to"`
}

type OrderShippedPayload struct {
	OrderID        string `json:"order_id"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	TrackingURL    string `json:"tracking_url,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}
