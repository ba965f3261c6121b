// internal/services/notification_service.go
package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/agent-commerce/internal/events"
	"github.com/javajoker/agent-commerce/internal/models"
)

// NotificationService tells the manual fulfillment team about paid and
// shipped orders. Delivery is best-effort: failures are logged and never
// reach the caller.
type NotificationService struct {
	publisher events.Publisher
	timeout   time.Duration
	wg        sync.WaitGroup
}

func NewNotificationService(publisher events.Publisher) *NotificationService {
	return &NotificationService{
		publisher: publisher,
		timeout:   10 * time.Second,
	}
}

func (s *NotificationService) OrderPaid(order *models.Order) {
	amazonURL := order.AmazonURL()

	logrus.WithFields(logrus.Fields{
		"order_id":       order.ID,
		"product":        order.ProductName,
		"amazon_asin":    order.AmazonASIN,
		"amazon_url":     amazonURL,
		"quantity":       order.Quantity,
		"total":          order.Total.String(),
		"currency":       order.Currency,
		"payment_method": order.PaymentMethod,
		"ship_to":        formatShipTo(order.Shipping),
	}).Info("Order ready for fulfillment")

	payload := events.OrderPaidPayload{
		OrderID:       order.ID,
		ProductID:     order.ProductID,
		ProductName:   order.ProductName,
		AmazonASIN:    order.AmazonASIN,
		AmazonURL:     amazonURL,
		Quantity:      order.Quantity,
		Total:         order.Total.String(),
		Currency:      order.Currency,
		PaymentMethod: string(order.PaymentMethod),
		SettlementRef: derefString(order.SettlementRef),
		AgentID:       derefString(order.AgentID),
		ShipTo: events.ShipTo{
			Name:    order.Shipping.Name,
			Address: order.Shipping.Address,
			City:    order.Shipping.City,
			Country: order.Shipping.Country,
			Postal:  order.Shipping.Postal,
		},
	}
	s.publish(events.EventOrderPaid, order.ID, payload)
}

func (s *NotificationService) OrderShipped(order *models.Order) {
	logrus.WithFields(logrus.Fields{
		"order_id":        order.ID,
		"tracking_number": order.TrackingNumber,
	}).Info("Order shipped")

	s.publish(events.EventOrderShipped, order.ID, events.OrderShippedPayload{
		OrderID:        order.ID,
		TrackingNumber: order.TrackingNumber,
		TrackingURL:    order.TrackingURL,
	})
}

// Wait blocks until every in-flight publish has finished.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

func (s *NotificationService) publish(eventType, orderID string, payload any) {
	if s.publisher == nil {
		return
	}

	env, err := events.NewEnvelope(eventType, orderID, payload)
	if err != nil {
		logrus.WithError(err).WithField("order_id", orderID).Error("Failed to build fulfillment event")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.publisher.Publish(ctx, env); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"order_id":   orderID,
				"event_type": eventType,
			}).Error("Failed to publish fulfillment event")
		}
	}()
}

func formatShipTo(a models.ShippingAddress) string {
	return a.Name + ", " + a.Address + ", " + a.City + " " + a.Postal + ", " + a.Country
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
