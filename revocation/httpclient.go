package revocation

import (
	"fmt"
	"net/http"
	"time"
)

// maxOCSPRedirects bounds the redirect chain an OCSP responder fetch will
// follow.
const maxOCSPRedirects = 5

// DefaultHTTPClient returns an *http.Client suitable as an HTTPDoer for
// OCSP fetches: a bounded timeout and a redirect cap, rather than relying
// on http.DefaultClient.
func DefaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxOCSPRedirects {
				return fmt.Errorf("revocation: stopped after %d redirects", maxOCSPRedirects)
			}
			return nil
		},
	}
}
