// conn.go — Connection error classification used by the session's
// attach-socket path.
package bridge

import (
	"errors"
	"net"
	"strings"
)

// IsConnectionError returns true if err indicates the debug port is
// unreachable (refused/no-route), as opposed to a protocol-level failure
// once a socket was actually established.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	// Prefer typed error checks over string matching
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	// Fallback: string check for wrapped errors that lose type info
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host")
}
