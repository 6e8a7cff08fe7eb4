// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package truststore

import (
	"crypto/x509"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	x509certs "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/certs"
)

// The embedded private authority roots. R1 is the original RSA/SHA-256 root;
// E1 is its ECDSA/SHA-384 successor. Both stay trusted for the duration of
// the root migration.
var (
	//go:embed roots/root_rsa.pem
	rootR1PEM []byte

	//go:embed roots/root_ecdsa.pem
	rootE1PEM []byte
)

// ErrNoCertificates indicates that a store was constructed without any trust anchors.
var ErrNoCertificates = errors.New("truststore: at least one trusted certificate is required")

// Store is an immutable set of trusted root certificates with precomputed
// SHA-256 fingerprints. It is populated once and never mutated, so it is
// safe for concurrent use without synchronization.
type Store struct {
	certs        []*x509.Certificate
	fingerprints map[string]struct{} // lowercase hex keys
}

var (
	embedded     *Store
	embeddedOnce sync.Once
)

// Embedded returns the process-wide store holding the embedded private
// authority roots. It is initialized on first use and shared thereafter.
func Embedded() *Store {
	embeddedOnce.Do(func() {
		decoder := x509certs.New()

		var certs []*x509.Certificate
		for _, pemData := range [][]byte{rootR1PEM, rootE1PEM} {
			cert, err := decoder.Decode(pemData)
			if err != nil {
				// Embedded material is validated at build time; a decode
				// failure here means a corrupted binary.
				panic(fmt.Sprintf("truststore: bad embedded root: %v", err))
			}
			certs = append(certs, cert)
		}

		store, err := NewFromCertificates(certs)
		if err != nil {
			panic(fmt.Sprintf("truststore: %v", err))
		}
		embedded = store
	})

	return embedded
}

// NewFromCertificates constructs a store from explicit trust anchors. The
// certificate order is preserved. Intended for injecting alternate roots in
// tests and for operator-supplied anchors loaded from configuration.
func NewFromCertificates(certs []*x509.Certificate) (*Store, error) {
	if len(certs) == 0 {
		return nil, ErrNoCertificates
	}

	s := &Store{
		certs:        append([]*x509.Certificate(nil), certs...),
		fingerprints: make(map[string]struct{}, len(certs)),
	}

	for _, cert := range s.certs {
		s.fingerprints[x509certs.Fingerprint(cert)] = struct{}{}
	}

	return s, nil
}

// Certificates returns the trusted certificates in their original order.
func (s *Store) Certificates() []*x509.Certificate {
	return append([]*x509.Certificate(nil), s.certs...)
}

// Len returns the number of trust anchors in the store.
func (s *Store) Len() int { return len(s.certs) }

// IsTrustedRoot reports whether fingerprint identifies one of the store's
// trust anchors. The comparison is case-insensitive.
func (s *Store) IsTrustedRoot(fingerprint string) bool {
	_, ok := s.fingerprints[strings.ToLower(fingerprint)]
	return ok
}

// Pool returns a certificate pool seeded with the store's anchors, for use
// as the root set when building chains. The pool is rebuilt per call so
// callers cannot mutate the store through it.
func (s *Store) Pool() *x509.CertPool {
	pool := x509.NewCertPool()
	for _, cert := range s.certs {
		pool.AddCert(cert)
	}
	return pool
}
