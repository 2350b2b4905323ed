package queue

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/domain"
	"github.com/seu-repo/voicebridge/internal/ports"
)

const (
	actionSubjectPrefix = "voicebridge.ui.action."
	toastSubject        = "voicebridge.ui.toast"
)

// MirrorEvents republishes every broadcast action and toast onto the
// message queue, one subject per action type. Returns an unsubscribe
// func releasing both bus subscriptions.
func MirrorEvents(bus ports.EventBus, q MessageQueue, log *zap.Logger) func() {
	unsubActions := bus.SubscribeAllActions(func(event domain.ActionEvent) {
		data, err := json.Marshal(event)
		if err != nil {
			log.Error("Failed to marshal action event", zap.Error(err))
			return
		}
		if err := q.Publish(actionSubjectPrefix+string(event.Type), data); err != nil {
			log.Warn("Failed to mirror action event",
				zap.String("type", string(event.Type)),
				zap.Error(err),
			)
		}
	})

	unsubToasts := bus.SubscribeToast(func(event domain.ToastEvent) {
		data, err := json.Marshal(event)
		if err != nil {
			log.Error("Failed to marshal toast event", zap.Error(err))
			return
		}
		if err := q.Publish(toastSubject, data); err != nil {
			log.Warn("Failed to mirror toast event", zap.Error(err))
		}
	})

	return func() {
		unsubActions()
		unsubToasts()
	}
}
