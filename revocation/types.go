// Package revocation implements the handshake-time chain validation the
// engine installs as a tls.Config.VerifyConnection hook: an OCSP revocation
// check over every adjacent certificate pair in the chain, ANDed with an
// HPKP pin-match scan, replacing the C provider's verify-callback.
package revocation

import (
	"context"
	"fmt"
	"net/http"
)

// HTTPDoer delivers OCSP requests. Satisfied by *http.Client; callers that
// need custom transport, proxying, or redirect limits supply their own.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// OCSPCache is the external OCSP response cache: a non-owning collaborator
// keyed by an opaque certificate identity (we use the CertID's serial
// combined with the issuer's subject key hash). A nil OCSPCache disables
// caching; every lookup is a live fetch.
type OCSPCache interface {
	Get(ctx context.Context, certKey string) ([]byte, bool, error)
	Put(ctx context.Context, certKey string, response []byte) error
}

// PinResult is the outcome of a single HPKP pin lookup for one certificate.
type PinResult int

const (
	// PinMatch: the certificate's SPKI matches a pin for this hostname.
	PinMatch PinResult = iota
	// PinNoPinsForHost: the hostname has no pins configured.
	PinNoPinsForHost
	// PinMismatch: pins exist for this hostname but none match this SPKI.
	PinMismatch
)

// PinStore is the external HPKP pin database. Lookup errors (a failed
// query, not a deliberate mismatch) are treated as a degraded-but-not-fatal
// pass by the caller.
type PinStore interface {
	Lookup(ctx context.Context, hostname string, spkiDER []byte) (PinResult, error)
}

// CertificateError is returned by Checker.VerifyConnection when the OCSP or
// HPKP verdict rejects the chain. engine.translateHandshakeError matches on
// this type (via errors.As) to produce an engine.Error with Code CERTIFICATE,
// keeping revocation decoupled from the engine package.
type CertificateError struct {
	Reason string
}

func (e *CertificateError) Error() string {
	return fmt.Sprintf("certificate rejected: %s", e.Reason)
}
