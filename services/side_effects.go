package services

import (
	"errors"
	"log"

	"grownet-api/metrics"
	"grownet-api/realtime"
)

// Side effects never fail the operation that triggered them. They are logged
// and counted instead.

func logPushFailure(event, userID string, err error) {
	if errors.Is(err, realtime.ErrUserOffline) {
		return
	}
	log.Printf("Failed to push %s to %s: %v", event, userID, err)
	metrics.SideEffectFailures.WithLabelValues("push").Inc()
}

func logSideEffect(kind string, err error) {
	log.Printf("Side effect %s failed: %v", kind, err)
	metrics.SideEffectFailures.WithLabelValues(kind).Inc()
}
