package transport

import (
	"time"
)

// Option configures a Radio implementation.
type Option func(*options)

// options holds configuration shared by the Serial and Socket radios.
type options struct {
	retryDelay   time.Duration
	timeout      time.Duration
	retryBackoff float64
	pingInterval time.Duration
	pongTimeout  time.Duration
	baudRate     int
	maxRetries   int
	reconnect    bool
}

func defaultOptions() *options {
	return &options{
		timeout:      30 * time.Second,
		maxRetries:   3,
		retryDelay:   1 * time.Second,
		retryBackoff: 2.0,
		reconnect:    true,
		pingInterval: 30 * time.Second,
		pongTimeout:  10 * time.Second,
		baudRate:     115200,
	}
}

// WithTimeout sets the Socket radio's timeout for the dial handshake of
// Connect and of each reconnect attempt. The Serial radio and SendPacket
// do not apply it.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) { o.timeout = timeout }
}

// WithRetry sets the reconnect retry budget: maxRetries attempts starting
// at initialDelay, scaled by the retry backoff multiplier each attempt.
func WithRetry(maxRetries int, initialDelay time.Duration) Option {
	return func(o *options) {
		o.maxRetries = maxRetries
		o.retryDelay = initialDelay
	}
}

// WithRetryBackoff sets the retry backoff multiplier. Default 2.0.
func WithRetryBackoff(multiplier float64) Option {
	return func(o *options) { o.retryBackoff = multiplier }
}

// WithReconnect enables/disables automatic reconnection for the Socket
// radio when the underlying connection drops.
func WithReconnect(enable bool) Option {
	return func(o *options) { o.reconnect = enable }
}

// WithPingInterval sets the Socket radio's keepalive ping interval.
func WithPingInterval(interval time.Duration) Option {
	return func(o *options) { o.pingInterval = interval }
}

// WithPongTimeout sets the Socket radio's write deadline for each keepalive
// ping. No pong reply is awaited.
func WithPongTimeout(timeout time.Duration) Option {
	return func(o *options) { o.pongTimeout = timeout }
}

// WithBaudRate sets the Serial radio's baud rate. Default 115200, matching
// the common EZSP/ASH UART configuration.
func WithBaudRate(baud int) Option {
	return func(o *options) { o.baudRate = baud }
}

func applyOptions(opts *options, optFns []Option) {
	for _, opt := range optFns {
		opt(opts)
	}
}
