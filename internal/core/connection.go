package core

import "errors"

// Frame is an encoded event ready for the wire.
type Frame []byte

// ConnID identifies a live transport connection, assigned at upgrade time.
type ConnID string

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// Conn abstracts a transport endpoint (WebSocket in production, a fake in
// tests). Owned by the adapter; the adapter must Close() it.
type Conn interface {
	// TrySend enqueues a frame without blocking. ErrBackpressure means the
	// peer is not draining its buffer; callers treat it as unreachable for
	// this delivery.
	TrySend(Frame) error
	Close()
}

// Delivery is the outcome of a single best-effort send.
type Delivery int

const (
	Delivered Delivery = iota
	PeerUnreachable
)

// DeliveryStats reports the outcome of a fan-out so callers can decide
// whether to log or surface unreachable peers.
type DeliveryStats struct {
	Delivered   int
	Unreachable int
}
