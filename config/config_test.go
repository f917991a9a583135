package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest/observer"

	"go.uber.org/zap"
)

func TestNewDefaults(t *testing.T) {
	r := New(nil)
	assert.Equal(t, "AUTO", r.SecureProtocol)
	assert.Equal(t, "system", r.CADirectory)
	assert.Equal(t, FormatPEM, r.CAType)
	assert.Equal(t, FormatPEM, r.CertType)
	assert.Equal(t, FormatPEM, r.KeyType)
	assert.True(t, r.CheckCertificate)
	assert.True(t, r.CheckHostname)
	assert.True(t, r.OCSP)
	assert.True(t, r.OCSPStapling)
	assert.False(t, r.PrintInfo)
}

func TestUnknownOptionLeavesOthersUnchanged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := New(zap.New(core))

	before := *r
	r.SetString(Option(999), "whatever")
	r.SetInt(Option(999), 42)
	r.SetObject(Option(999), "opaque")

	after := *r
	// logger field differs only in identity, never content; strip it before compare.
	before.logger = nil
	after.logger = nil
	require.Equal(t, before, after)
	assert.Equal(t, 3, logs.Len())
}

func TestSetStringKnownKeys(t *testing.T) {
	r := New(nil)
	r.SetString(OptCADirectory, "/etc/ssl/custom")
	r.SetString(OptCAFile, "/etc/ssl/ca.pem")
	r.SetString(OptOCSPServer, "http://ocsp.example.com")
	assert.Equal(t, "/etc/ssl/custom", r.CADirectory)
	assert.Equal(t, "/etc/ssl/ca.pem", r.CAFile)
	assert.Equal(t, "http://ocsp.example.com", r.OCSPServer)
}

func TestSetIntBooleans(t *testing.T) {
	r := New(nil)
	r.SetInt(OptCheckCertificate, 0)
	r.SetInt(OptOCSP, 0)
	assert.False(t, r.CheckCertificate)
	assert.False(t, r.OCSP)
}

func TestSetObjectHandles(t *testing.T) {
	r := New(nil)
	type fakeDB struct{ tag string }
	db := &fakeDB{tag: "session-db"}
	r.SetObject(OptTLSSessionCache, db)
	assert.Same(t, db, r.TLSSessionDB)
}
