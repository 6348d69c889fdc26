// Package transport abstracts how radiotap-prefixed 802.11 frames are
// read from and written to the outside world: a live monitor-mode pcap
// socket, or a length-prefixed framed byte stream for deterministic
// replay testing.
package transport

import "context"

// Transport reads and writes whole radiotap-prefixed 802.11 frames.
// Receive blocks until a frame is available, ctx is cancelled, or the
// underlying source is closed.
type Transport interface {
	Receive(ctx context.Context) ([]byte, error)
	Send(frame []byte) error
	Close() error
}
