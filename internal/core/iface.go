package core

import "errors"

var (
	// ErrBackpressure means the connection's send queue is full.
	ErrBackpressure = errors.New("backpressure")
	// ErrChannelClosed means the connection is gone; the caller should
	// treat the user as disconnected.
	ErrChannelClosed = errors.New("channel closed")
)

// SignalConnection abstracts a duplex messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
