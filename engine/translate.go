//go:build !tlsclient_nocrypto

package engine

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"

	"github.com/caddyserver/tlsclient/revocation"
)

// translateHandshakeError isolates the "was it a cert verify failure?"
// decision behind a single exhaustive translator, rather than scattering
// the peek across call sites.
func translateHandshakeError(err error) *Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return newError(CodeTimeout, "handshake timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(CodeTimeout, "handshake timed out", err)
	}

	var certErr *revocation.CertificateError
	if errors.As(err, &certErr) {
		return newError(CodeCertificate, "certificate rejected by revocation policy", err)
	}

	var tlsCertErr *tls.CertificateVerificationError
	if errors.As(err, &tlsCertErr) {
		return newError(CodeCertificate, "certificate verify failed", err)
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return newError(CodeCertificate, "certificate verify failed", err)
	}
	var unknownAuthErr x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthErr) {
		return newError(CodeCertificate, "certificate verify failed", err)
	}
	var invalidCertErr x509.CertificateInvalidError
	if errors.As(err, &invalidCertErr) {
		return newError(CodeCertificate, "certificate verify failed", err)
	}

	return newError(CodeHandshake, "handshake failed", err)
}
