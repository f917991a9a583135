package revocation

import (
	"bytes"
	"context"
	"crypto"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ocsp"
)

// checkOCSPChain walks every adjacent certificate pair (cert[i], cert[i+1])
// in chain, leaf first, treating cert[i+1] as the issuer of cert[i]. This is
// the corrected stride: the original provider this engine replaces advanced
// its index by 2 per iteration and silently skipped pairs on chains longer
// than two certificates.
func (c *Checker) checkOCSPChain(ctx context.Context, chain []*x509.Certificate) error {
	for i := 0; i+1 < len(chain); i++ {
		if err := c.checkOCSPPair(ctx, chain[i], chain[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// checkOCSPPair runs the OCSP sub-protocol for one (subject, issuer) pair.
// A missing responder URI is not a failure: it is logged and treated as
// "no opinion" for this pair. A configured OCSPCache is consulted first; a
// cache hit that is still unexpired skips the live fetch entirely, and a
// fresh fetch's response is stored back for next time.
func (c *Checker) checkOCSPPair(ctx context.Context, subject, issuer *x509.Certificate) error {
	responderURL := responderURI(subject, c.Config.OCSPServer)
	if responderURL == "" {
		c.logger().Debug("no OCSP responder for certificate; skipping",
			zap.String("subject", subject.Subject.String()))
		return nil
	}

	certKey := ocspCacheKey(subject, issuer)

	if c.OCSPCache != nil {
		if cached, ok, err := c.OCSPCache.Get(ctx, certKey); err != nil {
			c.logger().Debug("OCSP cache lookup failed", zap.Error(err))
		} else if ok {
			if parsed, verr := ocsp.ParseResponseForCert(cached, subject, issuer); verr == nil && validOCSPTiming(parsed) {
				return evaluateOCSPStatus(parsed)
			}
			c.logger().Debug("cached OCSP response stale or invalid; refetching")
		}
	}

	reqDER, err := ocsp.CreateRequest(subject, issuer, &ocsp.RequestOptions{Hash: crypto.SHA256})
	if err != nil {
		return &CertificateError{Reason: fmt.Sprintf("building OCSP request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, responderURL, bytes.NewReader(reqDER))
	if err != nil {
		return &CertificateError{Reason: fmt.Sprintf("building OCSP HTTP request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/ocsp-request")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return &CertificateError{Reason: fmt.Sprintf("OCSP request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &CertificateError{Reason: fmt.Sprintf("reading OCSP response: %v", err)}
	}

	// ParseResponseForCert decodes the outer response (failing on any outer
	// status other than "successful"), matches the BasicOCSPResponse's
	// subject to subject, and verifies the response signature against
	// issuer (or a delegated responder certificate signed by issuer) —
	// covering steps 5, 6(partial) and 9 in one call.
	parsed, err := ocsp.ParseResponseForCert(body, subject, issuer)
	if err != nil {
		return &CertificateError{Reason: fmt.Sprintf("OCSP response rejected: %v", err)}
	}

	if c.OCSPCache != nil {
		if err := c.OCSPCache.Put(ctx, certKey, body); err != nil {
			c.logger().Debug("failed to cache OCSP response", zap.Error(err))
		}
	}

	// TODO: golang.org/x/crypto/ocsp.CreateRequest does not expose a way to
	// inject our own nonce into the request it builds, so there is nothing
	// of ours to compare the response's nonce extension against; we only
	// log when the response carries any extensions (a responder nonce would
	// be one), rather than claim to verify a nonce.
	if len(parsed.Extensions) > 0 {
		c.logger().Debug("OCSP response carried extensions", zap.Int("count", len(parsed.Extensions)))
	}

	if !validOCSPTiming(parsed) {
		return &CertificateError{Reason: "OCSP response not valid at this time"}
	}
	return evaluateOCSPStatus(parsed)
}

// evaluateOCSPStatus rejects the pair iff the response says the certificate
// is not good.
func evaluateOCSPStatus(parsed *ocsp.Response) error {
	if parsed.Status != ocsp.Good {
		return &CertificateError{Reason: fmt.Sprintf(
			"certificate revoked via OCSP: reason=%d revokedAt=%s",
			parsed.RevocationReason, parsed.RevokedAt.Format(time.RFC3339))}
	}
	return nil
}

// validOCSPTiming reports whether parsed's thisUpdate/nextUpdate window
// covers now, regardless of whether parsed came from a live fetch or the
// cache.
func validOCSPTiming(parsed *ocsp.Response) bool {
	now := time.Now()
	if now.Before(parsed.ThisUpdate) {
		return false
	}
	return parsed.NextUpdate.IsZero() || !now.After(parsed.NextUpdate)
}

// responderURI extracts the OCSP responder URI from cert's Authority
// Information Access extension, falling back to configured when absent.
func responderURI(cert *x509.Certificate, configured string) string {
	if len(cert.OCSPServer) > 0 {
		return cert.OCSPServer[0]
	}
	return configured
}

// ocspCacheKey derives the OCSPCache key for one (subject, issuer) pair:
// the subject's serial number combined with a hash of the issuer's public
// key, standing in for CertID's (issuerNameHash, issuerKeyHash,
// serialNumber) tuple without needing the ASN.1 machinery to build one.
func ocspCacheKey(subject, issuer *x509.Certificate) string {
	issuerKeyHash := sha256.Sum256(issuer.RawSubjectPublicKeyInfo)
	return fmt.Sprintf("%s:%x", subject.SerialNumber.String(), issuerKeyHash)
}
