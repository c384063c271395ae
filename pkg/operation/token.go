package operation

import "sync/atomic"

// 🚦 CancellationToken is a shared flag used to cooperatively stop an
// in-progress operation. The Manager holds the writing side; the worker
// polls IsCancelled at file boundaries and inside the byte-copy loop.
// Both sides share the same token by pointer, never a copy of the value.
type CancellationToken struct {
	cancelled atomic.Bool
}

// NewCancellationToken creates an unset token
func NewCancellationToken() *CancellationToken {
	return &CancellationToken{}
}

// Cancel requests a cooperative abort. Idempotent.
func (t *CancellationToken) Cancel() {
	t.cancelled.Store(true)
}

// IsCancelled reports whether an abort has been requested
func (t *CancellationToken) IsCancelled() bool {
	return t.cancelled.Load()
}
