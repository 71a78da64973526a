package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// gatePlacements counts accepted gate placements.
	// Labels: op (AND, OR)
	gatePlacements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gatehouse",
		Name:      "gate_placements_total",
		Help:      "Total accepted gate placements",
	}, []string{"op"})

	// signPlacements counts accepted sign placements.
	// Labels: result (correct, incorrect)
	signPlacements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gatehouse",
		Name:      "sign_placements_total",
		Help:      "Total accepted sign placements by result",
	}, []string{"result"})

	// retries counts pair resets fired by the retry scheduler.
	retries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gatehouse",
		Name:      "retries_total",
		Help:      "Total comparison pairs regenerated after a wrong sign",
	})

	// roomsCompleted counts room completions.
	// Labels: room
	roomsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gatehouse",
		Name:      "rooms_completed_total",
		Help:      "Total room completions",
	}, []string{"room"})

	// rejectedPlacements counts placements refused with a puzzle error.
	// Labels: code
	rejectedPlacements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gatehouse",
		Name:      "rejected_placements_total",
		Help:      "Total placements rejected by error code",
	}, []string{"code"})
)

// RecordGatePlacement counts a gate placement.
func RecordGatePlacement(op string) {
	gatePlacements.WithLabelValues(op).Inc()
}

// RecordSignPlacement counts a sign placement.
func RecordSignPlacement(correct bool) {
	result := "incorrect"
	if correct {
		result = "correct"
	}
	signPlacements.WithLabelValues(result).Inc()
}

// RecordRetry counts a fired pair reset.
func RecordRetry() {
	retries.Inc()
}

// RecordRoomCompleted counts a room completion.
func RecordRoomCompleted(room string) {
	roomsCompleted.WithLabelValues(room).Inc()
}

// RecordRejection counts a placement rejected with err. Errors without a
// puzzle code are counted as "OTHER".
func RecordRejection(err error) {
	code, ok := CodeOf(err)
	if !ok {
		code = "OTHER"
	}
	rejectedPlacements.WithLabelValues(string(code)).Inc()
}
