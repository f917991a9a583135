// Package trust populates a crypto/x509 certificate pool the way the
// engine's trust loader does: from the system pool, a directory of PEM
// files, a single CA file, and (fatally, if it fails) a CRL.
package trust

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/caddyserver/tlsclient/config"
)

// ErrCRLLoad is returned when an explicitly configured CRL file cannot be
// installed. Fatal to engine initialization.
var ErrCRLLoad = errors.New("trust: failed to load CRL file")

// Result reports what the loader actually did, for logging and testing
// (invariants are easier to assert against structured data than log lines).
type Result struct {
	// Pool is the populated certificate pool. Nil if CheckCertificate is
	// false (peer verification disabled entirely).
	Pool *x509.CertPool

	// VerificationDisabled is true iff CheckCertificate was false.
	VerificationDisabled bool

	// UsedSystemPool is true if the system's default trust roots were used.
	UsedSystemPool bool

	// LoadedFromDirectory is the count of .pem files successfully loaded
	// from CADirectory, when CADirectory isn't "system" (or system lookup
	// failed).
	LoadedFromDirectory int

	// CAFileLoaded is true iff CAFile was set and loaded successfully.
	CAFileLoaded bool

	// CRL is the parsed revocation list when CRLFile was set and loaded
	// successfully. Nil if no CRLFile was configured. The engine consults
	// this during VerifyConnection to reject a presented certificate whose
	// serial number appears on the list.
	CRL *x509.RevocationList

	// Warnings holds non-fatal problems encountered (missing ca_file, zero
	// .pem files found in a user directory, etc.).
	Warnings []string
}

// Load builds a certificate pool from cfg per the engine's trust contract:
//
//  1. CheckCertificate == false disables peer verification entirely.
//  2. Otherwise resolve CADirectory: "system" tries the platform roots
//     first; any other value (or a system-pool failure) walks the
//     directory for *.pem files (ASCII case-insensitive suffix match),
//     skipping files that fail to parse.
//  3. CAFile, if set, is loaded in addition.
//  4. CRLFile, if set, is installed; failure here is fatal.
//
// Load never fails merely because zero .pem files were found in a
// user-specified directory, or because CAFile failed to load — those are
// reported as Warnings. Only a CRL failure returns a non-nil error.
func Load(ctx context.Context, cfg *config.Registry) (*Result, error) {
	logger := cfg.Logger()
	res := &Result{}

	if !cfg.CheckCertificate {
		logger.Warn("certificate verification disabled by configuration")
		res.VerificationDisabled = true
		return res, nil
	}

	pool, err := loadDirectory(cfg.CADirectory, logger, res)
	if err != nil {
		return nil, err
	}
	res.Pool = pool

	if cfg.CAFile != "" {
		if err := loadFile(pool, cfg.CAFile); err != nil {
			logger.Error("failed to load ca_file", zap.String("path", cfg.CAFile), zap.Error(err))
			res.Warnings = append(res.Warnings, "ca_file: "+err.Error())
		} else {
			res.CAFileLoaded = true
		}
	}

	if cfg.CRLFile != "" {
		crl, err := installCRL(cfg.CRLFile)
		if err != nil {
			logger.Error("failed to load crl_file", zap.String("path", cfg.CRLFile), zap.Error(err))
			return nil, ErrCRLLoad
		}
		res.CRL = crl
	}

	return res, nil
}

// loadDirectory implements the CADirectory resolution: "system" first,
// falling back to directory iteration on failure or on any other value.
func loadDirectory(caDirectory string, logger *zap.Logger, res *Result) (*x509.CertPool, error) {
	if caDirectory == "system" || caDirectory == "" {
		if pool, err := x509.SystemCertPool(); err == nil && pool != nil {
			res.UsedSystemPool = true
			return pool, nil
		}
		if caDirectory == "" {
			logger.Warn("could not load system trust roots")
			return x509.NewCertPool(), nil
		}
		logger.Warn("could not load system trust roots; walking ca_directory as a directory instead")
	}

	pool := x509.NewCertPool()
	loaded, err := loadPEMDirectory(pool, caDirectory, logger)
	if err != nil {
		logger.Error("could not open ca_directory", zap.String("path", caDirectory), zap.Error(err))
		res.Warnings = append(res.Warnings, "ca_directory: "+err.Error())
		return pool, nil
	}
	res.LoadedFromDirectory = loaded
	if loaded == 0 {
		logger.Error("no certificates could be loaded from ca_directory", zap.String("path", caDirectory))
		res.Warnings = append(res.Warnings, "ca_directory: zero .pem files loaded")
	}
	return pool, nil
}

// loadPEMDirectory iterates dir's regular files and loads every one whose
// name ends in ".pem" (ASCII, case-insensitive). Files that fail to parse
// are skipped silently (debug log only) — this is the corrected form of the
// engine's path join: "{dir}/{file}" via filepath.Join, never a truncating
// concatenation.
func loadPEMDirectory(pool *x509.CertPool, dir string, logger *zap.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !hasPEMSuffix(entry.Name()) {
			continue
		}
		full := filepath.Join(dir, entry.Name())
		if err := loadFile(pool, full); err != nil {
			logger.Debug("skipping unloadable trust file", zap.String("path", full), zap.Error(err))
			continue
		}
		loaded++
	}
	return loaded, nil
}

// hasPEMSuffix reports whether name ends in ".pem", ASCII case-insensitive.
// This is the corrected suffix match (the engine's source has a build
// variant that instead compares the *beginning* of the filename to ".pem";
// that bug is deliberately not reproduced here).
func hasPEMSuffix(name string) bool {
	if len(name) < 4 {
		return false
	}
	return strings.EqualFold(name[len(name)-4:], ".pem")
}

func loadFile(pool *x509.CertPool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !pool.AppendCertsFromPEM(data) {
		return errors.New("no certificates found in file")
	}
	return nil
}

// installCRL parses path as a well-formed CRL, PEM or DER encoded. A parse
// failure is what makes CRL loading fatal; the returned list is threaded
// into Result.CRL for the engine to consult serial-by-serial during
// VerifyConnection (crypto/x509 has no CRL-aware verifier of its own to
// install it into).
func installCRL(path string) (*x509.RevocationList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if block, _ := pem.Decode(data); block != nil {
		data = block.Bytes
	}
	return x509.ParseRevocationList(data)
}
