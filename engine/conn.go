//go:build !tlsclient_nocrypto

package engine

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/caddyserver/tlsclient/session"
)

// Conn is a handshake-complete connection, the opaque handle Open hands
// back to the caller.
type Conn struct {
	*tls.Conn

	hostname       string
	engine         *Engine
	sessionOutcome session.Outcome
}

// Open drives the handshake orchestrator: it ensures the engine is
// initialized, binds the session cache and SNI for hostname, then runs the
// handshake through a Poller-gated connection.
//
// connectTimeout <= 0 means wait forever, matching the "timeout < 0" wait-
// forever convention used throughout this package's transfer primitives.
func (e *Engine) Open(ctx context.Context, conn net.Conn, hostname string, connectTimeout time.Duration) (*Conn, error) {
	if conn == nil {
		return nil, newError(CodeInvalid, "nil connection", nil)
	}

	if err := e.Init(ctx); err != nil {
		return nil, err
	}

	base := e.baseTLSConfig()
	if base == nil {
		return nil, newError(CodeUnknown, "engine has no initialized TLS configuration", nil)
	}
	cfg := base.Clone()

	if hostname != "" {
		cfg.ServerName = hostname
	} else {
		e.logger.Debug("no hostname supplied; SNI will not be sent")
	}

	var cache *session.Cache
	if e.SessionStore != nil {
		cache = session.NewCache(ctx, e.SessionStore, hostname, e.logger)
		cfg.ClientSessionCache = cache
	}

	timeout := connectTimeout
	if timeout <= 0 {
		timeout = -1
	}
	pc := &pollConn{Conn: conn, poller: e.Poller, timeout: timeout}

	hsCtx := ctx
	if connectTimeout > 0 {
		var cancel context.CancelFunc
		hsCtx, cancel = context.WithTimeout(ctx, connectTimeout)
		defer cancel()
	}

	tlsConn := tls.Client(pc, cfg)
	if err := tlsConn.HandshakeContext(hsCtx); err != nil {
		if engErr, ok := err.(*Error); ok {
			return nil, engErr
		}
		return nil, translateHandshakeError(err)
	}

	outcome := session.NotCached
	if cache != nil {
		outcome = cache.LastOutcome()
	}
	cs := tlsConn.ConnectionState()
	e.logger.Info("TLS handshake complete",
		zap.String("hostname", hostname),
		zap.Bool("resumed", cs.DidResume),
		zap.Uint16("version", cs.Version))

	return &Conn{Conn: tlsConn, hostname: hostname, engine: e, sessionOutcome: outcome}, nil
}

// Close is idempotent for a nil *Conn, matching ssl_close's "idempotent for
// null" contract. tls.Conn.Close already sends close_notify synchronously,
// so unlike the C provider's shutdown-pending retry loop there is nothing
// further to poll here.
func (c *Conn) Close() error {
	if c == nil || c.Conn == nil {
		return nil
	}
	return c.Conn.Close()
}

// SessionOutcome reports what the session cache actually did for this
// connection's handshake.
func (c *Conn) SessionOutcome() session.Outcome {
	return c.sessionOutcome
}
