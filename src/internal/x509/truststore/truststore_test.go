// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package truststore_test

import (
	"crypto/x509"
	"strings"
	"testing"

	x509certs "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/pkitest"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/truststore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedded(t *testing.T) {
	store := truststore.Embedded()

	// The embedded material is the R1/E1 migration pair.
	require.Equal(t, 2, store.Len())

	certs := store.Certificates()
	require.Len(t, certs, 2)

	// Both roots remain trusted simultaneously, under distinct signature
	// algorithms (the point of the migration pair).
	assert.NotEqual(t, certs[0].SignatureAlgorithm, certs[1].SignatureAlgorithm)

	for _, cert := range certs {
		assert.True(t, cert.IsCA)
		assert.True(t, store.IsTrustedRoot(x509certs.Fingerprint(cert)))
	}

	// Shared process-wide instance.
	assert.Same(t, store, truststore.Embedded())
}

func TestIsTrustedRoot_CaseInsensitive(t *testing.T) {
	store := truststore.Embedded()
	fp := x509certs.Fingerprint(store.Certificates()[0])

	assert.True(t, store.IsTrustedRoot(strings.ToUpper(fp)))
	assert.False(t, store.IsTrustedRoot("ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"))
}

func TestNewFromCertificates(t *testing.T) {
	ca, _, err := pkitest.NewCA("Injected Root")
	require.NoError(t, err)

	store, err := truststore.NewFromCertificates([]*x509.Certificate{ca})
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len())
	assert.True(t, store.IsTrustedRoot(x509certs.Fingerprint(ca)))
	assert.False(t, store.IsTrustedRoot(x509certs.Fingerprint(truststore.Embedded().Certificates()[0])))

	// Mutating the returned slice must not affect the store.
	certs := store.Certificates()
	certs[0] = nil
	assert.NotNil(t, store.Certificates()[0])
}

func TestNewFromCertificates_Empty(t *testing.T) {
	_, err := truststore.NewFromCertificates(nil)
	assert.ErrorIs(t, err, truststore.ErrNoCertificates)
}
