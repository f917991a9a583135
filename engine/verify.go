//go:build !tlsclient_nocrypto

package engine

import (
	"context"
	"crypto/tls"
	"crypto/x509"

	"github.com/caddyserver/tlsclient/revocation"
)

// buildVerifyConnection returns the tls.Config.VerifyConnection hook for
// this engine. When CheckHostname is disabled, chain trust is still
// verified manually (with an empty DNSName, Go's x509 verification idiom
// for "skip hostname, still check the chain") before the revocation policy
// runs, without disabling chain verification entirely the way
// InsecureSkipVerify alone would.
func (e *Engine) buildVerifyConnection(checker *revocation.Checker) func(tls.ConnectionState) error {
	return func(cs tls.ConnectionState) error {
		if !e.cfg.CheckHostname {
			if err := verifyChainOnly(cs, e.trustPool); err != nil {
				return newError(CodeCertificate, "certificate verify failed", err)
			}
		}
		if e.crl != nil {
			if err := checkCRL(cs, e.crl); err != nil {
				return err
			}
		}
		if err := checker.VerifyChain(context.Background(), cs.ServerName, cs.PeerCertificates); err != nil {
			return err
		}
		return nil
	}
}

// checkCRL rejects the connection if any presented certificate's serial
// number appears on crl. Mirrors the original provider's
// X509_V_FLAG_CRL_CHECK_ALL: every certificate in the chain is checked, not
// only the leaf.
func checkCRL(cs tls.ConnectionState, crl *x509.RevocationList) error {
	for _, cert := range cs.PeerCertificates {
		for _, revoked := range crl.RevokedCertificateEntries {
			if cert.SerialNumber != nil && revoked.SerialNumber != nil && cert.SerialNumber.Cmp(revoked.SerialNumber) == 0 {
				return newError(CodeCertificate, "certificate serial number found on CRL", nil)
			}
		}
	}
	return nil
}

func verifyChainOnly(cs tls.ConnectionState, roots *x509.CertPool) error {
	if len(cs.PeerCertificates) == 0 {
		return newError(CodeCertificate, "no peer certificates presented", nil)
	}
	intermediates := x509.NewCertPool()
	for _, c := range cs.PeerCertificates[1:] {
		intermediates.AddCert(c)
	}
	_, err := cs.PeerCertificates[0].Verify(x509.VerifyOptions{
		Roots:         roots,
		Intermediates: intermediates,
		DNSName:       "",
	})
	return err
}
