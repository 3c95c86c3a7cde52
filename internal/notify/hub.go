package notify

import (
	"context"
	"encoding/json"
	"fmt"
)

// Broadcaster is satisfied by the websocket hub.
type Broadcaster interface {
	Publish(ctx context.Context, message []byte) error
}

type hubNotifier struct {
	hub Broadcaster
}

// NewHubNotifier pushes notifications to every connected websocket client.
func NewHubNotifier(hub Broadcaster) Notifier {
	return &hubNotifier{hub: hub}
}

func (h *hubNotifier) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(map[string]any{
		"type":    "ALLOCATION_NOTIFICATION",
		"payload": n,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return h.hub.Publish(ctx, payload)
}
