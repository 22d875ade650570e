package hydrotop

import (
	"time"
)

const (
	// LIVE_TIMEOUT_SECONDS is how long the live indicator stays lit without a new live sample
	LIVE_TIMEOUT_SECONDS = 10

	// LIVE_POINTS is the default number of points kept by each live series
	LIVE_POINTS = 20

	// FETCH_TIMEOUT_SECONDS bounds a single history or command request
	FETCH_TIMEOUT_SECONDS = 15

	// FEED_BUFFER is the number of transport events queued before the transport blocks
	FEED_BUFFER = 256

	// PULSE_INTERVAL_MS is the redraw period of the status clock
	PULSE_INTERVAL_MS = 1000
)

// Connection lost banner shown until the push channel reconnects
const ConnectionLostText = "Connection to the board lost. Please check the connection."

// LiveTimeout returns the default live indicator countdown as a time.Duration
func LiveTimeout() time.Duration {
	return time.Duration(LIVE_TIMEOUT_SECONDS) * time.Second
}

// FetchTimeout returns the default request timeout as a time.Duration
func FetchTimeout() time.Duration {
	return time.Duration(FETCH_TIMEOUT_SECONDS) * time.Second
}

// PulseDuration returns the status clock period
func PulseDuration() time.Duration {
	return time.Duration(PULSE_INTERVAL_MS) * time.Millisecond
}
