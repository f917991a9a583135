//go:build !tlsclient_nocrypto

// Package engine is the handshake orchestrator: it wires the trust loader,
// priority mapper, session cache adapter, and revocation checker into a
// crypto/tls.Config, and drives the connect/read/write/close lifecycle the
// other packages in this module only supply policy for.
package engine

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"sync"

	"go.uber.org/zap"

	"github.com/caddyserver/tlsclient/config"
	"github.com/caddyserver/tlsclient/priority"
	"github.com/caddyserver/tlsclient/revocation"
	"github.com/caddyserver/tlsclient/session"
	"github.com/caddyserver/tlsclient/trust"
)

// Engine is the process-wide TLS client state: the built tls.Config plus an
// init/deinit refcount, guarded by one mutex. Unlike the C provider this
// replaces, Engine is an explicit collaborator a caller constructs and
// passes around — the package-level Configure/Init/Deinit functions below
// exist only as the compatibility facade for callers that want a singleton.
type Engine struct {
	mu       sync.Mutex
	refcount int

	cfg    *config.Registry
	logger *zap.Logger

	// SessionStore, PinStore, OCSPCache, and HTTPClient are optional
	// non-owning collaborators; nil disables the corresponding feature
	// (no session resumption, no HPKP, no OCSP caching, default HTTP
	// client respectively).
	SessionStore session.Store
	PinStore     revocation.PinStore
	OCSPCache    revocation.OCSPCache
	HTTPClient   revocation.HTTPDoer
	Poller       Poller

	trustPool *x509.CertPool
	crl       *x509.RevocationList
	tlsConfig *tls.Config
}

// New returns an unintialized Engine for cfg. Call Init before Open.
func New(cfg *config.Registry, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger, Poller: deadlinePoller{}}
}

// Init builds the provider context (trust store, priority window, cipher
// list, revocation checker) if not already initialized, and bumps the
// refcount. Idempotent: a second Init without an intervening Deinit just
// increments the refcount and returns nil.
func (e *Engine) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.refcount > 0 {
		e.refcount++
		return nil
	}

	e.adoptBorrowedCaches()

	trustResult, err := trust.Load(ctx, e.cfg)
	if err != nil {
		return newError(CodeUnknown, "failed to load trust store", err)
	}

	versions, cipherList, err := priority.Resolve(e.cfg.SecureProtocol, tls.VersionTLS13, e.logger)
	if err != nil {
		return newError(CodeUnknown, "failed to resolve priority string", err)
	}

	checker := &revocation.Checker{
		HTTPClient: e.HTTPClient,
		OCSPCache:  e.OCSPCache,
		PinStore:   e.PinStore,
		Config:     e.cfg,
		Logger:     e.logger,
	}

	cfg := &tls.Config{
		RootCAs:      trustResult.Pool,
		MinVersion:   versions.Min,
		MaxVersion:   versions.Max,
		CipherSuites: cipherList.Preferred,
	}

	switch {
	case trustResult.VerificationDisabled:
		cfg.InsecureSkipVerify = true
	case !e.cfg.CheckHostname:
		e.logger.Warn("hostname verification disabled; chain trust is still checked")
		cfg.InsecureSkipVerify = true
		cfg.VerifyConnection = e.buildVerifyConnection(checker)
	default:
		cfg.VerifyConnection = e.buildVerifyConnection(checker)
	}

	e.trustPool = trustResult.Pool
	e.crl = trustResult.CRL
	e.tlsConfig = cfg
	e.refcount = 1
	return nil
}

// adoptBorrowedCaches fills in SessionStore/PinStore/OCSPCache from the
// config registry's borrowed-object fields (TLSSessionDB/HPKPCache/
// OCSPCertCache, set via Registry.SetObject) whenever the corresponding
// Engine field was left nil. A caller that only uses the documented
// SetObject API, rather than setting the Engine fields directly, still gets
// session resumption, HPKP, and OCSP caching wired in. Engine fields set
// directly always take precedence. A value of the wrong type is logged and
// ignored rather than panicking.
func (e *Engine) adoptBorrowedCaches() {
	if e.SessionStore == nil && e.cfg.TLSSessionDB != nil {
		if store, ok := e.cfg.TLSSessionDB.(session.Store); ok {
			e.SessionStore = store
		} else {
			e.logger.Error("tls_session_cache object does not implement session.Store; ignoring")
		}
	}
	if e.PinStore == nil && e.cfg.HPKPCache != nil {
		if pins, ok := e.cfg.HPKPCache.(revocation.PinStore); ok {
			e.PinStore = pins
		} else {
			e.logger.Error("hpkp_cache object does not implement revocation.PinStore; ignoring")
		}
	}
	if e.OCSPCache == nil && e.cfg.OCSPCertCache != nil {
		if cache, ok := e.cfg.OCSPCertCache.(revocation.OCSPCache); ok {
			e.OCSPCache = cache
		} else {
			e.logger.Error("ocsp_cert_cache object does not implement revocation.OCSPCache; ignoring")
		}
	}
}

// Deinit decrements the refcount; the built tls.Config is discarded once it
// reaches zero. Calling Deinit without a matching Init is a no-op.
func (e *Engine) Deinit() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.refcount == 0 {
		return
	}
	e.refcount--
	if e.refcount == 0 {
		e.tlsConfig = nil
		e.trustPool = nil
		e.crl = nil
	}
}

func (e *Engine) baseTLSConfig() *tls.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tlsConfig
}

// defaultEngine is the package-level Engine the free-function facade
// (Configure, Init, Deinit) delegates to, for callers happy with a process-wide
// singleton instead of constructing their own Engine.
var defaultEngine *Engine
var defaultEngineMu sync.Mutex

// Configure installs cfg as the default engine's configuration. Must be
// called before the first Init().
func Configure(cfg *config.Registry, logger *zap.Logger) {
	defaultEngineMu.Lock()
	defer defaultEngineMu.Unlock()
	defaultEngine = New(cfg, logger)
}

// Init initializes the default engine, constructing it from config.New(nil)
// if Configure was never called.
func Init(ctx context.Context) error {
	defaultEngineMu.Lock()
	if defaultEngine == nil {
		defaultEngine = New(config.New(nil), nil)
	}
	e := defaultEngine
	defaultEngineMu.Unlock()
	return e.Init(ctx)
}

// Deinit tears down the default engine.
func Deinit() {
	defaultEngineMu.Lock()
	e := defaultEngine
	defaultEngineMu.Unlock()
	if e != nil {
		e.Deinit()
	}
}
