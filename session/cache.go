// Package session adapts the engine's hostname-keyed TLS session database
// to Go's tls.ClientSessionCache interface, so that resumption lookup/save
// is driven by crypto/tls itself rather than by manual pre/post-handshake
// calls.
package session

import (
	"context"
	"crypto/tls"
	"time"

	"go.uber.org/zap"
)

// DefaultExpiry is how long a saved session entry remains eligible for
// resumption: 18 hours, matching the engine's persisted session default.
const DefaultExpiry = 18 * time.Hour

// Entry is a persisted TLS session: the tuple (hostname, expiry,
// opaque session blob) the external session database stores.
type Entry struct {
	Hostname string
	Expiry   time.Time
	Blob     []byte
}

// Store is the external TLS session database. Lookup is keyed by exact
// hostname string equality. Store implementations are non-owning; their
// lifetime is managed by the caller, matching the "borrowed handle"
// contract of config.Registry.TLSSessionDB.
type Store interface {
	Get(ctx context.Context, hostname string) (*Entry, bool, error)
	Put(ctx context.Context, entry *Entry) error
}

// Outcome reports what Resume/Save actually did, matching the engine's
// three-way ssl_resume_session result: a positive hit, a negative (no
// cached session), or a negative with a different cause (unusable entry).
type Outcome int

const (
	NotCached Outcome = iota
	Resumed
	Unusable
	NotSaved
	Saved
)

// Cache implements tls.ClientSessionCache against a Store, for one
// hostname. A fresh Cache is created per connection (engine.Open does this)
// because tls.ClientSessionCache.Get/Put are keyed by a "session key" the
// stdlib derives from the server address — it instead always resolves to
// its own Store using the hostname captured at construction time, keyed by
// exact hostname string equality.
type Cache struct {
	ctx      context.Context
	store    Store
	hostname string
	logger   *zap.Logger

	lastOutcome Outcome
}

// NewCache returns a tls.ClientSessionCache backed by store for hostname.
// If store is nil, every Get is a miss and every Put is a silent no-op: a
// caller with no session store configured still gets a successful
// handshake, just without resumption.
func NewCache(ctx context.Context, store Store, hostname string, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &Cache{ctx: ctx, store: store, hostname: hostname, logger: logger}
}

// Get implements tls.ClientSessionCache. sessionKey is ignored: lookups are
// keyed purely by the hostname this Cache was constructed for.
func (c *Cache) Get(sessionKey string) (*tls.ClientSessionState, bool) {
	if c.store == nil {
		c.lastOutcome = NotCached
		return nil, false
	}

	entry, ok, err := c.store.Get(c.ctx, c.hostname)
	if err != nil {
		c.logger.Debug("session lookup failed; proceeding with full handshake",
			zap.String("hostname", c.hostname), zap.Error(err))
		c.lastOutcome = Unusable
		return nil, false
	}
	if !ok {
		c.lastOutcome = NotCached
		return nil, false
	}
	if time.Now().After(entry.Expiry) {
		c.lastOutcome = Unusable
		return nil, false
	}

	state, err := decodeSessionState(entry.Blob)
	if err != nil {
		c.logger.Debug("cached TLS session is not resumable; running a full handshake",
			zap.String("hostname", c.hostname), zap.Error(err))
		c.lastOutcome = Unusable
		return nil, false
	}

	c.lastOutcome = Resumed
	c.logger.Debug("resuming cached TLS session", zap.String("hostname", c.hostname))
	return state, true
}

// Put implements tls.ClientSessionCache. sessionKey is ignored for the same
// reason as Get.
func (c *Cache) Put(sessionKey string, cs *tls.ClientSessionState) {
	if c.store == nil || cs == nil {
		c.lastOutcome = NotSaved
		return
	}

	blob, err := encodeSessionState(cs)
	if err != nil {
		c.logger.Debug("could not serialize TLS session; not saving",
			zap.String("hostname", c.hostname), zap.Error(err))
		c.lastOutcome = NotSaved
		return
	}

	entry := &Entry{
		Hostname: c.hostname,
		Expiry:   time.Now().Add(DefaultExpiry),
		Blob:     blob,
	}
	if err := c.store.Put(c.ctx, entry); err != nil {
		c.logger.Debug("failed to persist TLS session",
			zap.String("hostname", c.hostname), zap.Error(err))
		c.lastOutcome = NotSaved
		return
	}
	c.lastOutcome = Saved
}

// LastOutcome reports what the most recent Get or Put call actually did.
// engine.Open reads it once the handshake completes and exposes it as
// Conn.SessionOutcome.
func (c *Cache) LastOutcome() Outcome {
	return c.lastOutcome
}
