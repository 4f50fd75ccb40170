package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"airline-reservation/internal/models"
	"airline-reservation/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventSink is where EventPublisher writes; *Producer in production
type EventSink interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	sink EventSink
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(sink EventSink) *EventPublisher {
	return &EventPublisher{sink: sink}
}

func reservationKey(id int64) string {
	return fmt.Sprintf("reservation-%d", id)
}

func (ep *EventPublisher) publish(ctx context.Context, key, eventType string, event interface{}) error {
	err := ep.sink.PublishEvent(ctx, key, event)
	result := "ok"
	if err != nil {
		result = "error"
	}
	util.EventsPublishedTotal.WithLabelValues(eventType, result).Inc()
	return err
}

// PublishReservationCreated publishes ReservationCreated event
func (ep *EventPublisher) PublishReservationCreated(ctx context.Context, event *models.ReservationCreatedEvent) error {
	return ep.publish(ctx, reservationKey(event.ReservationID), event.EventType, event)
}

// PublishReservationCancelled publishes ReservationCancelled event
func (ep *EventPublisher) PublishReservationCancelled(ctx context.Context, event *models.ReservationCancelledEvent) error {
	return ep.publish(ctx, reservationKey(event.ReservationID), event.EventType, event)
}

// PublishRefund publishes RefundCreated and RefundSettled events
func (ep *EventPublisher) PublishRefund(ctx context.Context, event *models.RefundEvent) error {
	return ep.publish(ctx, reservationKey(event.ReservationID), event.EventType, event)
}

// PublishFlight publishes FlightCreated and FaresUpdated events
func (ep *EventPublisher) PublishFlight(ctx context.Context, event *models.FlightEvent) error {
	return ep.publish(ctx, "flight-"+models.CodeKey(event.FlightCode), event.EventType, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onReservationCancelled func(context.Context, *models.ReservationCancelledEvent) error
	onRefundSettled        func(context.Context, *models.RefundEvent) error
	logger                 *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnReservationCancelled registers a handler for ReservationCancelled events
func (eh *EventHandler) OnReservationCancelled(handler func(context.Context, *models.ReservationCancelledEvent) error) {
	eh.onReservationCancelled = handler
}

// OnRefundSettled registers a handler for RefundSettled events
func (eh *EventHandler) OnRefundSettled(handler func(context.Context, *models.RefundEvent) error) {
	eh.onRefundSettled = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID),
	)

	switch baseEvent.EventType {
	case models.EventTypeReservationCancelled:
		if eh.onReservationCancelled != nil {
			var event models.ReservationCancelledEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ReservationCancelled event: %w", err)
			}
			return eh.onReservationCancelled(ctx, &event)
		}

	case models.EventTypeRefundSettled:
		if eh.onRefundSettled != nil {
			var event models.RefundEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal RefundSettled event: %w", err)
			}
			return eh.onRefundSettled(ctx, &event)
		}

	default:
		eh.logger.Debug("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
