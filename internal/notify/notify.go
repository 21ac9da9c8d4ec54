// Package notify fans order lifecycle changes out to interested parties:
// the configured status webhook and connected websocket subscribers.
// Delivery is best-effort; a dead webhook never fails an order.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/posgate/api/internal/model"
	"github.com/posgate/api/internal/ws"
	"github.com/rs/zerolog/log"
)

// Notifier publishes lifecycle events. A nil hub or empty webhook URL
// disables that channel.
type Notifier struct {
	webhookURL string
	client     *http.Client
	hub        *ws.Hub
}

// New builds a Notifier. webhookURL may be empty.
func New(webhookURL string, hub *ws.Hub) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
		hub:        hub,
	}
}

// OrderCreated announces a newly accepted order to websocket subscribers.
func (n *Notifier) OrderCreated(order *model.Order) {
	n.broadcast(order.RestaurantID, "order.created", order)
}

// StatusChanged announces a status transition on both channels. The
// webhook POST runs in its own goroutine so the request that triggered
// the transition never waits on it.
func (n *Notifier) StatusChanged(order *model.Order) {
	payload := map[string]string{
		"orderId":   order.OrderID,
		"status":    order.Status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	n.broadcast(order.RestaurantID, "order.status_changed", payload)

	if n.webhookURL == "" {
		return
	}
	go n.postWebhook(payload)
}

func (n *Notifier) broadcast(restaurantID, eventType string, payload any) {
	if n.hub == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("marshal broadcast payload")
		return
	}
	n.hub.BroadcastToRestaurant(restaurantID, ws.Event{Type: eventType, Payload: raw})
}

func (n *Notifier) postWebhook(payload map[string]string) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("marshal webhook payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Msg("build webhook request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("orderId", payload["orderId"]).Msg("status webhook delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Str("orderId", payload["orderId"]).Msg("status webhook rejected")
	}
}
