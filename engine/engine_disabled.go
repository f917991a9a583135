//go:build tlsclient_nocrypto

// Package engine, built with the tlsclient_nocrypto tag, is the build
// variant with no cryptographic provider: every exported operation becomes
// a no-op so that a caller compiled without a TLS implementation still
// links.
package engine

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/caddyserver/tlsclient/config"
)

// Engine is the no-crypto stand-in: it holds no provider state at all.
type Engine struct {
	mu sync.Mutex
}

// Conn is never actually produced by Open in this build; it exists only so
// the exported API surface matches the crypto-enabled build.
type Conn struct{}

// New returns a no-op Engine. cfg and logger are accepted for API symmetry
// and otherwise unused.
func New(_ *config.Registry, _ *zap.Logger) *Engine {
	return &Engine{}
}

// Init is a no-op.
func (e *Engine) Init(_ context.Context) error { return nil }

// Deinit is a no-op.
func (e *Engine) Deinit() {}

// Open always returns TLS_DISABLED, never a usable *Conn.
func (e *Engine) Open(_ context.Context, _ net.Conn, _ string, _ time.Duration) (*Conn, error) {
	return nil, newError(CodeTLSDisabled, "built without a cryptographic provider", nil)
}

// ReadTimeout always returns 0, nil.
func (c *Conn) ReadTimeout(_ []byte, _ time.Duration) (int, error) { return 0, nil }

// WriteTimeout always returns 0, nil.
func (c *Conn) WriteTimeout(_ []byte, _ time.Duration) (int, error) { return 0, nil }

// Close is always a no-op, idempotent for nil.
func (c *Conn) Close() error { return nil }

// Configure is a no-op in this build.
func Configure(_ *config.Registry, _ *zap.Logger) {}

// Init is a no-op in this build.
func Init(_ context.Context) error { return nil }

// Deinit is a no-op in this build.
func Deinit() {}
