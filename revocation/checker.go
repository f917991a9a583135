package revocation

import (
	"context"
	"crypto/tls"
	"crypto/x509"

	"go.uber.org/zap"

	"github.com/caddyserver/tlsclient/config"
)

// Checker installs as tls.Config.VerifyConnection, replacing the C
// provider's custom verify-callback function pointer with a plain method
// value closed over this Checker's collaborators — no ex-data slot, no
// thread-local hostname smuggling.
type Checker struct {
	// HTTPClient delivers OCSP requests. Defaults to DefaultHTTPClient()
	// when nil.
	HTTPClient HTTPDoer

	// OCSPCache optionally avoids re-fetching a fresh OCSP response for a
	// certificate already checked recently. May be nil (no caching).
	OCSPCache OCSPCache

	// PinStore is the HPKP pin database. HPKP runs only when PinStore is
	// non-nil.
	PinStore PinStore

	Config *config.Registry
	Logger *zap.Logger
}

func (c *Checker) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Checker) httpClient() HTTPDoer {
	if c.HTTPClient == nil {
		return DefaultHTTPClient()
	}
	return c.HTTPClient
}

// VerifyConnection implements the tls.Config.VerifyConnection hook: run
// OCSP (if enabled) and HPKP (if a PinStore is configured) against the
// verified peer chain, and AND the two verdicts. A nil return lets the
// handshake proceed; a non-nil *CertificateError aborts it.
func (c *Checker) VerifyConnection(cs tls.ConnectionState) error {
	return c.VerifyChain(context.Background(), cs.ServerName, cs.PeerCertificates)
}

// VerifyChain runs the revocation policy directly against a chain (leaf
// first), for callers — and tests — that want to supply their own context
// or exercise a chain built outside a live handshake.
func (c *Checker) VerifyChain(ctx context.Context, hostname string, chain []*x509.Certificate) error {
	if c.Config != nil && c.Config.OCSP && len(chain) > 0 {
		if err := c.checkOCSPChain(ctx, chain); err != nil {
			c.logger().Warn("OCSP revocation check failed",
				zap.String("hostname", hostname), zap.Error(err))
			return err
		}
	}

	if c.PinStore != nil {
		if err := c.checkHPKPChain(ctx, hostname, chain); err != nil {
			c.logger().Warn("HPKP pin verification failed",
				zap.String("hostname", hostname), zap.Error(err))
			return err
		}
	}

	return nil
}
