package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Delivery event types reported by the mail relay webhook.
const (
	EventSent       = "email.sent"
	EventDelivered  = "email.delivered"
	EventBounced    = "email.bounced"
	EventComplained = "email.complained"
	EventDelayed    = "email.delivery_delayed"
)

var knownEvents = map[string]bool{
	EventSent:       true,
	EventDelivered:  true,
	EventBounced:    true,
	EventComplained: true,
	EventDelayed:    true,
}

// ErrInvalidEvent is returned for payloads that are not delivery events.
var ErrInvalidEvent = errors.New("invalid email event")

// DeliveryEvent is a delivery status callback from the mail relay.
type DeliveryEvent struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Data      struct {
		EmailID string   `json:"email_id"`
		To      []string `json:"to"`
	} `json:"data"`
}

// Known reports whether the event type is one the service tracks.
func (e *DeliveryEvent) Known() bool {
	return knownEvents[e.Type]
}

// Failed reports whether the event means the invite did not reach the inbox.
func (e *DeliveryEvent) Failed() bool {
	return e.Type == EventBounced || e.Type == EventComplained
}

// ParseDeliveryEvent decodes a webhook body.
func ParseDeliveryEvent(body []byte) (*DeliveryEvent, error) {
	var ev DeliveryEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	ev.Type = strings.TrimSpace(ev.Type)
	if ev.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidEvent)
	}
	return &ev, nil
}
