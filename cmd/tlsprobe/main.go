// Command tlsprobe drives one handshake (two with --resume) through the
// engine against a live TCP address and prints what happened: whether the
// session was resumed and the session cache outcome, or the handshake error
// (including any revocation/certificate failure).
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caddyserver/tlsclient/config"
	"github.com/caddyserver/tlsclient/engine"
	"github.com/caddyserver/tlsclient/session"
)

var (
	hostname       string
	connectTimeout time.Duration
	caFile         string
	caDirectory    string
	checkHostname  bool
	resume         bool
	verbose        bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tlsprobe <address>",
		Short: "Probe a TLS server through the engine and report the handshake outcome",
		Args:  cobra.ExactArgs(1),
		RunE:  runProbe,
	}

	flags := cmd.Flags()
	flags.StringVar(&hostname, "hostname", "", "SNI / certificate hostname (defaults to the host part of the address)")
	flags.DurationVar(&connectTimeout, "timeout", 5*time.Second, "connect timeout")
	flags.StringVar(&caFile, "ca-file", "", "additional CA bundle to trust")
	flags.StringVar(&caDirectory, "ca-directory", "system", "CA directory, or \"system\" for the platform trust store")
	flags.BoolVar(&checkHostname, "check-hostname", true, "verify the server's hostname against its certificate")
	flags.BoolVar(&resume, "resume", false, "probe twice and report whether the second handshake resumed")
	flags.BoolVar(&verbose, "verbose", false, "enable debug logging")

	return cmd
}

func runProbe(cmd *cobra.Command, args []string) error {
	addr := args[0]
	host := hostname
	if host == "" {
		if h, _, err := net.SplitHostPort(addr); err == nil {
			host = h
		} else {
			host = addr
		}
	}

	logger, err := buildLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cfg := config.New(logger)
	cfg.CAFile = caFile
	cfg.CADirectory = caDirectory
	cfg.CheckHostname = checkHostname

	e := engine.New(cfg, logger)
	if resume {
		e.SessionStore = session.NewMemoryStore()
	}

	if err := probeOnce(cmd, e, addr, host); err != nil {
		return err
	}
	if resume {
		fmt.Fprintln(cmd.OutOrStdout(), "--- second handshake (expecting resumption) ---")
		return probeOnce(cmd, e, addr, host)
	}
	return nil
}

func probeOnce(cmd *cobra.Command, e *engine.Engine, addr, host string) error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout+time.Second)
	defer cancel()

	rawConn, err := (&net.Dialer{}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer rawConn.Close()

	conn, err := e.Open(ctx, rawConn, host, connectTimeout)
	if err != nil {
		return fmt.Errorf("handshake with %s (hostname %s): %w", addr, host, err)
	}
	defer conn.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "handshake ok: hostname=%s resumed=%v session_outcome=%v\n",
		host, conn.Conn.ConnectionState().DidResume, conn.SessionOutcome())
	return nil
}

func buildLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
