// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package policy_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"net"
	"testing"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/pkitest"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/policy"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/trust"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/truststore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVersion = "1.3.3.7-testing"

// newTestPolicy builds a policy whose validator trusts a fresh CA.
func newTestPolicy(t *testing.T) (*policy.Policy, *x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()

	ca, caKey, err := pkitest.NewCA("Policy Test CA")
	require.NoError(t, err)

	store, err := truststore.NewFromCertificates([]*x509.Certificate{ca})
	require.NoError(t, err)

	return policy.NewPolicy(trust.New(store, testVersion)), ca, caKey
}

func newIPLeaf(t *testing.T, ca *x509.Certificate, caKey *ecdsa.PrivateKey, ips ...string) *x509.Certificate {
	t.Helper()

	cfg := pkitest.LeafConfig{CommonName: "ip.internal"}
	for _, ip := range ips {
		cfg.IPAddresses = append(cfg.IPAddresses, net.ParseIP(ip))
	}

	leaf, _, err := pkitest.NewLeaf(cfg, ca, caKey)
	require.NoError(t, err)
	return leaf
}

func TestDecide(t *testing.T) {
	pol, ca, caKey := newTestPolicy(t)
	ctx := context.Background()

	leafWithIP := newIPLeaf(t, ca, caKey, "10.0.0.5")
	leafOtherIP := newIPLeaf(t, ca, caKey, "192.168.1.9")

	selfSigned, _, err := pkitest.NewSelfSigned(pkitest.LeafConfig{CommonName: "rogue.internal"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		sender policy.Sender
		cert   *x509.Certificate
		errs   policy.PolicyErrors
		want   bool
	}{
		{
			name:   "No policy errors accepts",
			sender: policy.Request{Host: "10.0.0.5"},
			cert:   leafWithIP,
			errs:   policy.PolicyErrorNone,
			want:   true,
		},
		{
			name:   "Remote certificate not available always rejects",
			sender: policy.Request{Host: "10.0.0.5"},
			cert:   leafWithIP,
			errs:   policy.PolicyErrorRemoteCertificateNotAvailable,
			want:   false,
		},
		{
			name:   "Not available rejects even combined with other flags",
			sender: policy.Request{Host: "10.0.0.5"},
			cert:   leafWithIP,
			errs:   policy.PolicyErrorRemoteCertificateNotAvailable | policy.PolicyErrorRemoteCertificateNameMismatch,
			want:   false,
		},
		{
			name:   "Name mismatch forgiven for matching IP SAN",
			sender: policy.Request{Host: "10.0.0.5"},
			cert:   leafWithIP,
			errs:   policy.PolicyErrorRemoteCertificateNameMismatch,
			want:   true,
		},
		{
			name:   "Name mismatch rejected for absent IP SAN",
			sender: policy.Request{Host: "10.0.0.5"},
			cert:   leafOtherIP,
			errs:   policy.PolicyErrorRemoteCertificateNameMismatch,
			want:   false,
		},
		{
			name:   "Name mismatch rejected for DNS request host",
			sender: policy.Request{Host: "server.internal"},
			cert:   leafWithIP,
			errs:   policy.PolicyErrorRemoteCertificateNameMismatch,
			want:   false,
		},
		{
			name:   "Chain errors alone delegate to validator and accept trusted chain",
			sender: policy.Request{Host: "10.0.0.5"},
			cert:   leafWithIP,
			errs:   policy.PolicyErrorRemoteCertificateChainErrors,
			want:   true,
		},
		{
			name:   "Chain errors alone reject untrusted certificate",
			sender: policy.Request{Host: "rogue.internal"},
			cert:   selfSigned,
			errs:   policy.PolicyErrorRemoteCertificateChainErrors,
			want:   false,
		},
		{
			name:   "Forgiven name mismatch plus chain errors still delegates",
			sender: policy.Request{Host: "10.0.0.5"},
			cert:   leafWithIP,
			errs:   policy.PolicyErrorRemoteCertificateNameMismatch | policy.PolicyErrorRemoteCertificateChainErrors,
			want:   true,
		},
		{
			name:   "Unforgiven name mismatch plus chain errors rejects",
			sender: policy.Request{Host: "10.0.0.5"},
			cert:   leafOtherIP,
			errs:   policy.PolicyErrorRemoteCertificateNameMismatch | policy.PolicyErrorRemoteCertificateChainErrors,
			want:   false,
		},
		{
			name:   "Nil certificate rejects",
			sender: policy.Request{Host: "10.0.0.5"},
			cert:   nil,
			errs:   policy.PolicyErrorNone,
			want:   false,
		},
		{
			name:   "Nil sender cannot forgive a name mismatch",
			sender: nil,
			cert:   leafWithIP,
			errs:   policy.PolicyErrorRemoteCertificateNameMismatch,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pol.Decide(ctx, tt.sender, tt.cert, nil, tt.errs)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecideRaw(t *testing.T) {
	pol, ca, caKey := newTestPolicy(t)
	ctx := context.Background()

	leaf := newIPLeaf(t, ca, caKey, "10.0.0.5")

	assert.True(t, pol.DecideRaw(ctx, policy.Request{Host: "10.0.0.5"}, leaf.Raw, nil,
		policy.PolicyErrorRemoteCertificateChainErrors))

	assert.False(t, pol.DecideRaw(ctx, policy.Request{Host: "10.0.0.5"}, []byte("not a certificate"), nil,
		policy.PolicyErrorNone), "undecodable bytes must reject")
}

func TestPolicyErrorsString(t *testing.T) {
	assert.Equal(t, "None", policy.PolicyErrorNone.String())
	assert.Equal(t, "RemoteCertificateNameMismatch",
		policy.PolicyErrorRemoteCertificateNameMismatch.String())
	assert.Equal(t, "RemoteCertificateNotAvailable, RemoteCertificateChainErrors",
		(policy.PolicyErrorRemoteCertificateNotAvailable | policy.PolicyErrorRemoteCertificateChainErrors).String())
}
