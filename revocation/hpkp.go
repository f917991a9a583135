package revocation

import (
	"context"
	"crypto/x509"

	"go.uber.org/zap"
)

// checkHPKPChain scans every certificate in chain against the configured
// PinStore. The chain passes iff at least one certificate resolves to
// MATCH, NO_PINS_FOR_HOST, or a failed lookup (degraded-but-not-fatal); a
// chain where every certificate MISMATCHes fails outright.
func (c *Checker) checkHPKPChain(ctx context.Context, hostname string, chain []*x509.Certificate) error {
	anyNonMismatch := false

	for _, cert := range chain {
		result, err := c.PinStore.Lookup(ctx, hostname, cert.RawSubjectPublicKeyInfo)
		if err != nil {
			c.logger().Debug("HPKP lookup failed; treating as degraded pass",
				zap.String("hostname", hostname), zap.Error(err))
			anyNonMismatch = true
			continue
		}

		switch result {
		case PinMatch:
			return nil
		case PinNoPinsForHost:
			anyNonMismatch = true
		case PinMismatch:
			// no-op: keep scanning the rest of the chain
		}
	}

	if !anyNonMismatch {
		return &CertificateError{Reason: "public key pinning mismatch: no certificate in the chain matched the configured pins"}
	}
	return nil
}
