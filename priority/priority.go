// Package priority maps the engine's symbolic protocol-priority strings
// ("AUTO", "PFS", "TLSv1_2", ...) onto a concrete crypto/tls version range
// and cipher-suite preference, the way the C engine's priority string maps
// onto SSL_CTX_set_{min,max}_proto_version/SSL_CTX_set_cipher_list.
package priority

import (
	"crypto/tls"
	"errors"
	"strings"

	"github.com/klauspost/cpuid/v2"
	"go.uber.org/zap"
)

// ErrInvalidPriority is returned when a priority string cannot be resolved
// to a usable cipher list. Fatal to engine initialization.
var ErrInvalidPriority = errors.New("priority: invalid priority string")

// defaultCiphers and pfsCiphers are symbolic names standing in for the
// engine's literal "HIGH:!aNULL:!RC4:!MD5:!SRP:!PSK[:!kRSA]" OpenSSL cipher
// strings. crypto/tls has no equivalent textual cipher-list syntax, so Resolve
// does not parse these strings: it builds the concrete tls.CipherSuite ID
// lists below (aesSuites, chachaSuites, kRSASuites) directly.
const (
	defaultCiphers = "HIGH:!aNULL:!RC4:!MD5:!SRP:!PSK"
	pfsCiphers     = "HIGH:!aNULL:!RC4:!MD5:!SRP:!PSK:!kRSA"
)

// Versions is the resolved protocol version window for a handshake.
type Versions struct {
	Min uint16
	Max uint16
}

// CipherList is the resolved cipher preference for a handshake.
//
// Verbatim holds the literal priority string when the caller supplied one
// that isn't one of the recognized symbolic names, for informational and
// logging purposes. Go's crypto/tls has no provider-specific
// priority-string parser, so Preferred is always populated with a
// best-effort translation into concrete cipher suite IDs regardless.
type CipherList struct {
	Name      string
	Verbatim  string
	Preferred []uint16
}

// aesSuites and chachaSuites are the TLS 1.2 AEAD suites covered by the
// default/PFS cipher strings (RC4, MD5, export, and anonymous suites are
// excluded by construction — there is no Go CipherSuite ID for them).
var (
	aesSuites = []uint16{
		tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	}
	chachaSuites = []uint16{
		tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
		tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	}
	// kRSA suites: static-RSA key exchange, excluded whenever !kRSA applies
	// (the PFS priority). Kept separate so Resolve can drop them cleanly.
	kRSASuites = []uint16{
		tls.TLS_RSA_WITH_AES_128_GCM_SHA256,
		tls.TLS_RSA_WITH_AES_256_GCM_SHA384,
	}
)

// orderedByCPU returns aes+chacha suites ordered so the cipher the CPU can
// accelerate in hardware comes first. An explicit CipherSuites list bypasses
// crypto/tls's own CPU-aware default ordering, so it must be re-derived.
func orderedByCPU() []uint16 {
	var ordered []uint16
	if cpuid.CPU.Supports(cpuid.AESNI) {
		ordered = append(append([]uint16{}, aesSuites...), chachaSuites...)
	} else {
		ordered = append(append([]uint16{}, chachaSuites...), aesSuites...)
	}
	// kRSA (static RSA key exchange, no forward secrecy) suites are part of
	// the default list and are only excluded by the PFS priority's !kRSA.
	return append(ordered, kRSASuites...)
}

// Resolve implements the priority table:
//
//	AUTO / TLSv1_2 / ""   -> min TLS1.2, max provider max, default ciphers
//	SSL                   -> min SSL3.0 (mapped to the lowest crypto/tls supports, TLS1.0), default ciphers
//	TLSv1 / TLSv1_1       -> min TLS1.0 / TLS1.1, default ciphers
//	TLSv1_3               -> min TLS1.3 if providerSupportsTLS13, else logged and left at TLS1.2
//	PFS                   -> min TLS1.2, ciphers default minus kRSA suites
//	anything else         -> min TLS1.2, the string passed through verbatim
//
// maxVersion is the provider's maximum supported version (crypto/tls always
// reports tls.VersionTLS13 today, but Resolve takes it as a parameter so
// callers — and tests — can simulate a provider without TLS 1.3).
func Resolve(secureProtocol string, maxVersion uint16, logger *zap.Logger) (Versions, CipherList, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	v := Versions{Min: tls.VersionTLS12, Max: maxVersion}
	cl := CipherList{Name: secureProtocol, Preferred: orderedByCPU()}

	switch {
	case secureProtocol == "" || strings.EqualFold(secureProtocol, "AUTO") || strings.EqualFold(secureProtocol, "TLSv1_2"):
		// already the default window above

	case strings.EqualFold(secureProtocol, "SSL"):
		// crypto/tls dropped SSLv3 support entirely; TLS 1.0 is the lowest
		// version it can still negotiate, so that's the closest honest floor.
		v.Min = tls.VersionTLS10

	case strings.EqualFold(secureProtocol, "TLSv1"):
		v.Min = tls.VersionTLS10

	case strings.EqualFold(secureProtocol, "TLSv1_1"):
		v.Min = tls.VersionTLS11

	case strings.EqualFold(secureProtocol, "TLSv1_3"):
		if maxVersion >= tls.VersionTLS13 {
			v.Min = tls.VersionTLS13
		} else {
			logger.Info("TLS 1.3 is not supported by the provider; using TLS 1.2 instead")
		}

	case strings.EqualFold(secureProtocol, "PFS"):
		cl.Preferred = dropKRSA(cl.Preferred)

	default:
		cl.Verbatim = secureProtocol
	}

	if len(cl.Preferred) == 0 && cl.Verbatim == "" {
		logger.Error("unable to resolve a usable cipher list", zap.String("priority", secureProtocol))
		return Versions{}, CipherList{}, ErrInvalidPriority
	}

	return v, cl, nil
}

func dropKRSA(suites []uint16) []uint16 {
	blocked := make(map[uint16]bool, len(kRSASuites))
	for _, s := range kRSASuites {
		blocked[s] = true
	}
	out := make([]uint16, 0, len(suites))
	for _, s := range suites {
		if !blocked[s] {
			out = append(out, s)
		}
	}
	return out
}
