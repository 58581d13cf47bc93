// Package adapter holds helpers shared by the outbound adapters.
package adapter

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// A MakeTLSConfig returns [*tls.Config] for mutual TLS with the broker.
//
// All args are the filepaths.
func MakeTLSConfig(ca, cert, key string) (*tls.Config, error) {
	const op = "adapter.MakeTLSConfig"

	caCert, err := os.ReadFile(ca)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read CA certificate file: %w", op, err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("%s: %w", op, errors.New("failed to parse CA certificate"))
	}

	clientCert, err := tls.LoadX509KeyPair(cert, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &tls.Config{
		RootCAs:      caCertPool,
		Certificates: []tls.Certificate{clientCert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
