package trust

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caddyserver/tlsclient/config"
)

func writeSelfSignedPEM(t *testing.T, path, cn string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		IsCA:         true,
		KeyUsage:     x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, pem.Encode(f, &pem.Block{Type: "CERTIFICATE", Bytes: der}))
}

func TestLoadCheckCertificateDisabled(t *testing.T) {
	cfg := config.New(nil)
	cfg.CheckCertificate = false

	res, err := Load(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, res.VerificationDisabled)
	assert.Nil(t, res.Pool)
}

func TestLoadDirectorySkipsNonPEMAndBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeSelfSignedPEM(t, filepath.Join(dir, "root-one.pem"), "root-one")
	writeSelfSignedPEM(t, filepath.Join(dir, "ROOT-TWO.PEM"), "root-two") // case-insensitive suffix
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pem"), []byte("not a cert"), 0o600))

	cfg := config.New(nil)
	cfg.CADirectory = dir

	res, err := Load(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, res.LoadedFromDirectory)
	assert.False(t, res.UsedSystemPool)
	assert.Empty(t, res.Warnings)
}

func TestLoadDirectoryZeroMatchesIsWarningNotError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o600))

	cfg := config.New(nil)
	cfg.CADirectory = dir

	res, err := Load(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, res.LoadedFromDirectory)
	assert.NotEmpty(t, res.Warnings)
}

func TestLoadMissingCAFileIsWarningNotError(t *testing.T) {
	cfg := config.New(nil)
	cfg.CADirectory = t.TempDir()
	cfg.CAFile = "/nonexistent/ca.pem"

	res, err := Load(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, res.CAFileLoaded)
	assert.NotEmpty(t, res.Warnings)
}

func TestLoadInvalidCRLIsFatal(t *testing.T) {
	dir := t.TempDir()
	crlPath := filepath.Join(dir, "bad.crl")
	require.NoError(t, os.WriteFile(crlPath, []byte("not a crl"), 0o600))

	cfg := config.New(nil)
	cfg.CADirectory = dir
	cfg.CRLFile = crlPath

	_, err := Load(context.Background(), cfg)
	require.ErrorIs(t, err, ErrCRLLoad)
}

func TestLoadValidCRLIsPopulated(t *testing.T) {
	dir := t.TempDir()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	ca := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, ca, ca, &key.PublicKey, key)
	require.NoError(t, err)
	caCert, err := x509.ParseCertificate(caDER)
	require.NoError(t, err)

	revokedSerial := big.NewInt(1234)
	tmpl := &x509.RevocationList{
		Number:     big.NewInt(1),
		ThisUpdate: time.Now().Add(-time.Minute),
		NextUpdate: time.Now().Add(time.Hour),
		RevokedCertificateEntries: []x509.RevocationListEntry{
			{SerialNumber: revokedSerial, RevocationTime: time.Now().Add(-time.Minute)},
		},
	}
	crlDER, err := x509.CreateRevocationList(rand.Reader, tmpl, caCert, key)
	require.NoError(t, err)

	crlPath := filepath.Join(dir, "valid.crl")
	f, err := os.Create(crlPath)
	require.NoError(t, err)
	require.NoError(t, pem.Encode(f, &pem.Block{Type: "X509 CRL", Bytes: crlDER}))
	require.NoError(t, f.Close())

	cfg := config.New(nil)
	cfg.CADirectory = dir
	cfg.CRLFile = crlPath

	res, err := Load(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, res.CRL)
	require.Len(t, res.CRL.RevokedCertificateEntries, 1)
	assert.Equal(t, 0, revokedSerial.Cmp(res.CRL.RevokedCertificateEntries[0].SerialNumber))
}

func TestHasPEMSuffix(t *testing.T) {
	assert.True(t, hasPEMSuffix("root.pem"))
	assert.True(t, hasPEMSuffix("ROOT.PEM"))
	assert.False(t, hasPEMSuffix("pem.root"))
	assert.False(t, hasPEMSuffix("ab"))
}
