// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs_test

import (
	"crypto/x509"
	"strings"
	"testing"

	x509certs "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/pkitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	ca, caKey, err := pkitest.NewCA("Decode Test CA")
	require.NoError(t, err)

	leaf, _, err := pkitest.NewLeaf(pkitest.LeafConfig{CommonName: "decode.internal"}, ca, caKey)
	require.NoError(t, err)

	decoder := x509certs.New()

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Decode PEM",
			testFunc: func(t *testing.T) {
				pemData := decoder.EncodePEM(leaf)
				require.True(t, decoder.IsPEM(pemData))

				cert, err := decoder.Decode(pemData)
				require.NoError(t, err)
				assert.True(t, cert.Equal(leaf))
			},
		},
		{
			name: "Decode DER",
			testFunc: func(t *testing.T) {
				cert, err := decoder.Decode(leaf.Raw)
				require.NoError(t, err)
				assert.True(t, cert.Equal(leaf))
			},
		},
		{
			name: "Decode garbage fails with PKCS7 error",
			testFunc: func(t *testing.T) {
				_, err := decoder.Decode([]byte("definitely not a certificate"))
				assert.ErrorIs(t, err, x509certs.ErrParsePKCS7)
			},
		},
		{
			name: "Decode wrong PEM block type",
			testFunc: func(t *testing.T) {
				wrongType := strings.ReplaceAll(string(decoder.EncodePEM(leaf)), "CERTIFICATE", "PUBLIC KEY")
				_, err := decoder.Decode([]byte(wrongType))
				assert.ErrorIs(t, err, x509certs.ErrInvalidBlockType)
			},
		},
		{
			name: "DecodeMultiple PEM bundle",
			testFunc: func(t *testing.T) {
				bundle := append(decoder.EncodePEM(ca), decoder.EncodePEM(leaf)...)

				certs, err := decoder.DecodeMultiple(bundle)
				require.NoError(t, err)
				require.Len(t, certs, 2)
				assert.True(t, certs[0].Equal(ca))
				assert.True(t, certs[1].Equal(leaf))
			},
		},
		{
			name: "EncodeMultiplePEM round trip",
			testFunc: func(t *testing.T) {
				bundle := decoder.EncodeMultiplePEM([]*x509.Certificate{ca, leaf})

				certs, err := decoder.DecodeMultiple(bundle)
				require.NoError(t, err)
				require.Len(t, certs, 2)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestFingerprint(t *testing.T) {
	ca, caKey, err := pkitest.NewCA("Fingerprint Test CA")
	require.NoError(t, err)

	leaf, _, err := pkitest.NewLeaf(pkitest.LeafConfig{CommonName: "fp.internal"}, ca, caKey)
	require.NoError(t, err)

	fp := x509certs.Fingerprint(leaf)

	// SHA-256 over DER, rendered as lowercase hex.
	assert.Len(t, fp, 64)
	assert.Equal(t, strings.ToLower(fp), fp)

	// Stable across calls, distinct across certificates.
	assert.Equal(t, fp, x509certs.Fingerprint(leaf))
	assert.NotEqual(t, fp, x509certs.Fingerprint(ca))
}
