//go:build !tlsclient_nocrypto

package engine

import (
	"net"
	"time"
)

// Poller is an external readiness-poll collaborator. Go's crypto/tls has
// no WANT_READ/WANT_WRITE states of its own to poll on, so the injected
// Poller instead gates the pollConn's Read/Write calls that
// tls.Conn.Handshake drives, keeping the only blocking points inside the
// poll call even though the underlying TLS stack blocks synchronously.
type Poller interface {
	// WaitReadable blocks until conn is readable or timeout elapses.
	// timeout < 0 waits forever; timeout == 0 returns immediately.
	WaitReadable(conn net.Conn, timeout time.Duration) error
	WaitWritable(conn net.Conn, timeout time.Duration) error
}

// deadlinePoller is the default Poller: it folds "poll" and "read" into one
// deadline-bounded blocking call by setting the connection's deadline and
// letting the subsequent Read/Write enforce it.
type deadlinePoller struct{}

func (deadlinePoller) WaitReadable(conn net.Conn, timeout time.Duration) error {
	return conn.SetReadDeadline(deadlineFor(timeout))
}

func (deadlinePoller) WaitWritable(conn net.Conn, timeout time.Duration) error {
	return conn.SetWriteDeadline(deadlineFor(timeout))
}

func deadlineFor(timeout time.Duration) time.Time {
	switch {
	case timeout < 0:
		return time.Time{}
	case timeout == 0:
		return time.Now()
	default:
		return time.Now().Add(timeout)
	}
}

// pollConn wraps a net.Conn so that every Read/Write first consults a
// Poller, matching the handshake loop's "on WANT_READ/WANT_WRITE, call the
// readiness poll" step.
type pollConn struct {
	net.Conn
	poller  Poller
	timeout time.Duration
}

func (p *pollConn) Read(b []byte) (int, error) {
	if p.poller != nil {
		if err := p.poller.WaitReadable(p.Conn, p.timeout); err != nil {
			return 0, err
		}
	}
	return p.Conn.Read(b)
}

func (p *pollConn) Write(b []byte) (int, error) {
	if p.poller != nil {
		if err := p.poller.WaitWritable(p.Conn, p.timeout); err != nil {
			return 0, err
		}
	}
	return p.Conn.Write(b)
}
