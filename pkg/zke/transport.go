// SPDX-License-Identifier: MIT

package zke

// Transport is the byte link a session talks over. The concrete
// implementations live with the CLI: a local serial port and a remote
// serial port bridged over a websocket.
type Transport interface {
	// IsOpen reports whether the link is usable.
	IsOpen() bool

	// Read reads available bytes, blocking up to the transport's read
	// timeout. A timeout with no data reads as (0, nil).
	Read(p []byte) (n int, err error)

	// Write writes the full buffer.
	Write(p []byte) (n int, err error)

	// BytesWaiting returns the number of buffered unread bytes, or 0 if
	// the transport cannot tell.
	BytesWaiting() (int, error)

	// DiscardInput drops all buffered unread bytes.
	DiscardInput() error

	// Close shuts the link down.
	Close() error
}
