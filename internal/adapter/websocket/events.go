package websocket

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/domain"
	"github.com/seu-repo/voicebridge/internal/ports"
)

// eventFrame is the wire shape of one broadcast frame. Event is
// "ui.action" for dispatched actions (Type carries the action's own
// discriminant) and "toast" for feedback.
type eventFrame struct {
	Event         string                `json:"event"`
	Type          string                `json:"type,omitempty"`
	Payload       *domain.ActionPayload `json:"payload,omitempty"`
	CorrelationID string                `json:"correlation_id,omitempty"`
	Toast         *domain.ToastEvent    `json:"toast,omitempty"`
}

// BridgeBus forwards every event-bus action and toast to the hub as a
// JSON frame. Host pages listen on /ws/events and react to actions the
// same way they would to a local dispatch. Returns an unsubscribe func.
func BridgeBus(hub *Hub, bus ports.EventBus, log *zap.Logger) func() {
	unsubActions := bus.SubscribeAllActions(func(event domain.ActionEvent) {
		payload := event.Payload
		frame := eventFrame{
			Event:         "ui.action",
			Type:          string(event.Type),
			Payload:       &payload,
			CorrelationID: event.CorrelationID,
		}
		data, err := json.Marshal(frame)
		if err != nil {
			log.Error("Failed to marshal action frame", zap.Error(err))
			return
		}
		hub.Broadcast(data)
	})

	unsubToasts := bus.SubscribeToast(func(event domain.ToastEvent) {
		toast := event
		frame := eventFrame{
			Event: "toast",
			Toast: &toast,
		}
		data, err := json.Marshal(frame)
		if err != nil {
			log.Error("Failed to marshal toast frame", zap.Error(err))
			return
		}
		hub.Broadcast(data)
	})

	return func() {
		unsubActions()
		unsubToasts()
	}
}
