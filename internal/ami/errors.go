package ami

import "errors"

var (
	// ErrConnection covers dial failures and banner mismatches.
	ErrConnection = errors.New("ami: connection failed")
	// ErrAuthentication means the manager rejected the login exchange.
	ErrAuthentication = errors.New("ami: authentication failed")
	// ErrTimeout means no qualifying frame arrived within the call deadline.
	// A timeout during dispatch is fatal to the connection; the stream may be
	// mid-frame and must not be reused.
	ErrTimeout = errors.New("ami: timeout")
	// ErrProtocol is reserved for frames too malformed to interpret even
	// under the lenient per-line skipping policy.
	ErrProtocol = errors.New("ami: protocol error")
	// ErrClosed means the connection is Closed or Failed.
	ErrClosed = errors.New("ami: connection closed")
)
