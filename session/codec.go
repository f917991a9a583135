package session

import (
	"crypto/tls"
	"encoding/binary"
	"errors"
)

// errNotResumable mirrors the engine's SSL_SESSION_is_resumable check: a
// decoded entry that doesn't carry enough to resume is treated as "entry
// present but unusable", not a hard failure.
var errNotResumable = errors.New("session: cached entry is not resumable")

// encodeSessionState serializes a tls.ClientSessionState to an opaque blob
// suitable for storage in an external session DB, using crypto/tls's own
// SessionState wire format (tls.SessionState.Bytes), so round-tripping
// through our Store never has to understand TLS internals.
func encodeSessionState(cs *tls.ClientSessionState) ([]byte, error) {
	ticket, state, err := cs.ResumptionState()
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, errNotResumable
	}

	body, err := state.Bytes()
	if err != nil {
		return nil, err
	}

	// Prefix with the session ticket (itself opaque, server-issued) since
	// ResumptionState/NewResumptionState round-trip both independently.
	buf := make([]byte, 4+len(ticket)+len(body))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(ticket)))
	copy(buf[4:], ticket)
	copy(buf[4+len(ticket):], body)
	return buf, nil
}

// decodeSessionState is the inverse of encodeSessionState.
func decodeSessionState(blob []byte) (*tls.ClientSessionState, error) {
	if len(blob) < 4 {
		return nil, errNotResumable
	}
	ticketLen := binary.BigEndian.Uint32(blob[:4])
	if uint64(ticketLen)+4 > uint64(len(blob)) {
		return nil, errNotResumable
	}
	ticket := blob[4 : 4+ticketLen]
	body := blob[4+ticketLen:]

	state, err := tls.ParseSessionState(body)
	if err != nil {
		return nil, err
	}
	return tls.NewResumptionState(ticket, state)
}
