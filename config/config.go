// Package config holds the process-wide, typed configuration registry
// consumed by the other tlsclient packages (trust, priority, session,
// revocation, engine).
package config

import (
	"go.uber.org/zap"
)

// Format is the encoding of a certificate, key, or CA bundle on disk.
type Format int

const (
	// FormatPEM is the default encoding for all certificate/key material.
	FormatPEM Format = iota
	FormatDER
)

// Option identifies a single configuration field. Values mirror the
// WGET_SSL_* key space this config registry was distilled from: every
// option is one of three kinds (string, int/bool, or borrowed object), and
// setting an unrecognized Option is logged, never fatal.
type Option int

const (
	OptSecureProtocol Option = iota
	OptCADirectory
	OptCAFile
	OptCertFile
	OptKeyFile
	OptCRLFile
	OptOCSPServer
	OptALPN
	OptCAType
	OptCertType
	OptKeyType
	OptCheckCertificate
	OptCheckHostname
	OptPrintInfo
	OptOCSP
	OptOCSPStapling
	OptOCSPCertCache
	OptOCSPHostCache
	OptTLSSessionCache
	OptHPKPCache
)

// Registry is a process-wide record of TLS client options. It is read-only
// during an in-flight handshake. engine.Engine.Init reads most fields once,
// when it builds its tls.Config; a later mutation of those reaches a
// handshake only after the engine's refcount drops to zero and Init runs
// again. OCSP and OCSPServer are read by the revocation checker on every
// handshake; CheckHostname is read both at Init and on every handshake.
//
// Registry is not safe for concurrent self-mutation; callers must serialize
// their own calls to the Set* methods. Once published, concurrent reads by
// many connections are safe.
type Registry struct {
	SecureProtocol string
	CADirectory    string
	CAFile         string
	CertFile       string
	KeyFile        string
	CRLFile        string
	OCSPServer     string
	ALPN           string

	CAType   Format
	CertType Format
	KeyType  Format

	CheckCertificate bool
	CheckHostname    bool
	PrintInfo        bool
	OCSP             bool
	OCSPStapling     bool

	// Borrowed, non-owning handles to external databases. Their lifetime is
	// managed by the caller; the registry only stores the pointer.
	OCSPCertCache  any
	OCSPHostCache  any
	TLSSessionDB   any
	HPKPCache      any

	logger *zap.Logger
}

// New returns a Registry populated with the library's defaults:
// SecureProtocol="AUTO", CADirectory="system", all X.509 formats PEM,
// CheckCertificate/CheckHostname/OCSP/OCSPStapling true, PrintInfo false.
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		SecureProtocol:   "AUTO",
		CADirectory:      "system",
		CAType:           FormatPEM,
		CertType:         FormatPEM,
		KeyType:          FormatPEM,
		CheckCertificate: true,
		CheckHostname:    true,
		OCSP:             true,
		OCSPStapling:     true,
		logger:           logger,
	}
}

// SetString sets a string-valued option. Unknown options are logged at
// error level and otherwise ignored; every other field is left unchanged.
func (r *Registry) SetString(opt Option, value string) {
	switch opt {
	case OptSecureProtocol:
		r.SecureProtocol = value
	case OptCADirectory:
		r.CADirectory = value
	case OptCAFile:
		r.CAFile = value
	case OptCertFile:
		r.CertFile = value
	case OptKeyFile:
		r.KeyFile = value
	case OptCRLFile:
		r.CRLFile = value
	case OptOCSPServer:
		r.OCSPServer = value
	case OptALPN:
		r.ALPN = value
	default:
		r.logger.Error("unknown string configuration option", zap.Int("option", int(opt)))
	}
}

// SetInt sets an integer/boolean-valued option. Unknown options are logged
// at error level and otherwise ignored.
func (r *Registry) SetInt(opt Option, value int) {
	switch opt {
	case OptCAType:
		r.CAType = Format(value)
	case OptCertType:
		r.CertType = Format(value)
	case OptKeyType:
		r.KeyType = Format(value)
	case OptCheckCertificate:
		r.CheckCertificate = value != 0
	case OptCheckHostname:
		r.CheckHostname = value != 0
	case OptPrintInfo:
		r.PrintInfo = value != 0
	case OptOCSP:
		r.OCSP = value != 0
	case OptOCSPStapling:
		r.OCSPStapling = value != 0
	default:
		r.logger.Error("unknown integer configuration option", zap.Int("option", int(opt)))
	}
}

// SetObject sets a borrowed-object-valued option (a cache/DB handle whose
// lifetime the caller owns). Unknown options are logged at error level and
// otherwise ignored.
func (r *Registry) SetObject(opt Option, value any) {
	switch opt {
	case OptOCSPCertCache:
		r.OCSPCertCache = value
	case OptOCSPHostCache:
		r.OCSPHostCache = value
	case OptTLSSessionCache:
		r.TLSSessionDB = value
	case OptHPKPCache:
		r.HPKPCache = value
	default:
		r.logger.Error("unknown object configuration option", zap.Int("option", int(opt)))
	}
}

// Logger returns the registry's logger, defaulting to a no-op logger.
func (r *Registry) Logger() *zap.Logger {
	if r.logger == nil {
		return zap.NewNop()
	}
	return r.logger
}
