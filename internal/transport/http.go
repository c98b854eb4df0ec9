// Package transport builds the HTTPS client used for the report.
package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http2"

	"cloudpico-reporter/internal/config"
)

// NewHTTPClient returns a client with certificate verification on unless
// cfg.TLSInsecureSkipVerify is set. There is no overall timeout; the report
// phase watchdog bounds the exchange.
func NewHTTPClient(cfg config.Config, logger *slog.Logger) (*http.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if cfg.TLSCAFile != "" {
		pem, err := os.ReadFile(cfg.TLSCAFile)
		if err != nil {
			return nil, fmt.Errorf("read TLS_CA_FILE: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("TLS_CA_FILE %s: no certificates found", cfg.TLSCAFile)
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.TLSInsecureSkipVerify {
		tlsConfig.InsecureSkipVerify = true //nolint:gosec // explicit opt-in via TLS_INSECURE_SKIP_VERIFY
		logger.Warn("tls certificate verification disabled", "host", cfg.ReportHost)
	}

	t := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSClientConfig:       tlsConfig,
		TLSHandshakeTimeout:   30 * time.Second,
		ResponseHeaderTimeout: 5 * time.Minute,
	}
	if err := http2.ConfigureTransport(t); err != nil {
		return nil, fmt.Errorf("configure http2: %w", err)
	}

	return &http.Client{Transport: t}, nil
}
