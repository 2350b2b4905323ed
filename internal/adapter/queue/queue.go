package queue

// MessageQueue defines the interface for a message queue adapter.
// Broadcast action and toast events are mirrored onto it so listeners
// outside the process (debug tooling, analytics) observe the same
// dispatches as the in-process host surfaces.
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}
