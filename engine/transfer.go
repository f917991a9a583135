//go:build !tlsclient_nocrypto

package engine

import (
	"errors"
	"net"
	"time"

	"go.uber.org/zap"
)

// ReadTimeout reads with a bounded deadline: an empty buf returns
// immediately, timeout<0 waits forever, timeout==0 tries once without
// blocking, timeout>0 is a deadline in that duration.
func (c *Conn) ReadTimeout(buf []byte, timeout time.Duration) (int, error) {
	return c.transfer(buf, timeout, false)
}

// WriteTimeout is ReadTimeout's write-direction counterpart.
func (c *Conn) WriteTimeout(buf []byte, timeout time.Duration) (int, error) {
	return c.transfer(buf, timeout, true)
}

func (c *Conn) transfer(buf []byte, timeout time.Duration, write bool) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	deadline := deadlineFor(timeout)
	var n int
	var err error
	if write {
		if dErr := c.Conn.SetWriteDeadline(deadline); dErr != nil {
			return 0, newError(CodeUnknown, "failed to set write deadline", dErr)
		}
		n, err = c.Conn.Write(buf)
	} else {
		if dErr := c.Conn.SetReadDeadline(deadline); dErr != nil {
			return 0, newError(CodeUnknown, "failed to set read deadline", dErr)
		}
		n, err = c.Conn.Read(buf)
	}

	if err == nil {
		return n, nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		if timeout == 0 {
			// Non-blocking try-once: "would block" is not an error, just
			// zero progress.
			return 0, nil
		}
		return n, newError(CodeTimeout, "transfer timed out", err)
	}

	// Any other transfer-layer error is surfaced as UNKNOWN at this public
	// read/write boundary.
	c.engine.logger.Error("transfer failed", zap.Bool("write", write), zap.Error(err))
	return n, newError(CodeUnknown, "transfer failed", err)
}
