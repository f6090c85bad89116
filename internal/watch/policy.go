package watch

import "fmt"

// StatusPolicy decides which status query failures abort the watcher.
type StatusPolicy string

const (
	// StatusBestEffort aborts only on ServiceUnavailable; other failures are
	// logged and watching proceeds.
	StatusBestEffort StatusPolicy = "best-effort"
	// StatusStrict aborts on any status query failure.
	StatusStrict StatusPolicy = "strict"
)

// ParseStatusPolicy validates a status policy name.
func ParseStatusPolicy(s string) (StatusPolicy, error) {
	switch StatusPolicy(s) {
	case StatusBestEffort, StatusStrict:
		return StatusPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown status policy %q", s)
	}
}

// StreamErrorPolicy decides which stream errors end the watch phase.
type StreamErrorPolicy string

const (
	// StreamErrorFatal terminates on any stream error.
	StreamErrorFatal StreamErrorPolicy = "fatal"
	// StreamErrorConnectionOnly terminates only on connection-class
	// (BadGateway) errors and keeps watching otherwise.
	StreamErrorConnectionOnly StreamErrorPolicy = "connection-only"
)

// ParseStreamErrorPolicy validates a stream error policy name.
func ParseStreamErrorPolicy(s string) (StreamErrorPolicy, error) {
	switch StreamErrorPolicy(s) {
	case StreamErrorFatal, StreamErrorConnectionOnly:
		return StreamErrorPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown stream error policy %q", s)
	}
}
