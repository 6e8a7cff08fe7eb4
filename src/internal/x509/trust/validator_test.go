// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package trust_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/pkitest"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/trust"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/truststore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVersion = "1.3.3.7-testing"

// newTestValidator builds a validator whose only trust anchor is a fresh CA.
func newTestValidator(t *testing.T) (*trust.Validator, *x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()

	ca, caKey, err := pkitest.NewCA("Validator Test CA")
	require.NoError(t, err)

	store, err := truststore.NewFromCertificates([]*x509.Certificate{ca})
	require.NoError(t, err)

	return trust.New(store, testVersion), ca, caKey
}

func TestValidate_NilLeaf(t *testing.T) {
	validator, _, _ := newTestValidator(t)

	_, _, err := validator.Validate(context.Background(), nil)
	assert.ErrorIs(t, err, trust.ErrNilLeaf)

	_, _, err = validator.Inspect(context.Background(), nil)
	assert.ErrorIs(t, err, trust.ErrNilLeaf)
}

func TestValidate_TrustedChain(t *testing.T) {
	validator, ca, caKey := newTestValidator(t)

	leaf, _, err := pkitest.NewLeaf(pkitest.LeafConfig{CommonName: "good.internal"}, ca, caKey)
	require.NoError(t, err)

	valid, flags, err := validator.Validate(context.Background(), leaf)
	require.NoError(t, err)

	// No revocation endpoints exist, so the walk sees only the two
	// suppressed revocation-availability flags: the verdict stays clean.
	assert.True(t, valid)
	assert.Equal(t, trust.FlagNoError, flags)
}

func TestValidate_SelfSignedUntrusted(t *testing.T) {
	validator, _, _ := newTestValidator(t)

	leaf, _, err := pkitest.NewSelfSigned(pkitest.LeafConfig{CommonName: "rogue.internal"})
	require.NoError(t, err)

	valid, flags, err := validator.Validate(context.Background(), leaf)
	require.NoError(t, err)

	assert.False(t, valid)
	assert.True(t, flags.Has(trust.FlagUntrustedRoot), "got flags %s", flags)
}

func TestValidate_ForeignAuthority(t *testing.T) {
	validator, _, _ := newTestValidator(t)

	otherCA, otherKey, err := pkitest.NewCA("Some Other CA")
	require.NoError(t, err)

	leaf, _, err := pkitest.NewLeaf(pkitest.LeafConfig{CommonName: "elsewhere.internal"}, otherCA, otherKey)
	require.NoError(t, err)

	valid, flags, err := validator.Validate(context.Background(), leaf)
	require.NoError(t, err)

	assert.False(t, valid)
	assert.True(t, flags.Has(trust.FlagPartialChain), "got flags %s", flags)
}

func TestValidate_ExpiredLeaf(t *testing.T) {
	validator, ca, caKey := newTestValidator(t)

	leaf, _, err := pkitest.NewLeaf(pkitest.LeafConfig{
		CommonName: "expired.internal",
		NotBefore:  time.Now().Add(-48 * time.Hour),
		NotAfter:   time.Now().Add(-24 * time.Hour),
	}, ca, caKey)
	require.NoError(t, err)

	valid, flags, err := validator.Validate(context.Background(), leaf)
	require.NoError(t, err)

	assert.False(t, valid)
	assert.True(t, flags.Has(trust.FlagNotTimeValid), "got flags %s", flags)
}

func TestValidate_OfflineRevocationSuppressed(t *testing.T) {
	trust.ClearCRLCache()

	validator, ca, caKey := newTestValidator(t)

	// Distribution point exists but serves nothing useful.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	leaf, _, err := pkitest.NewLeaf(pkitest.LeafConfig{
		CommonName: "unreachable-crl.internal",
		CRLURLs:    []string{srv.URL + "/ca.crl"},
	}, ca, caKey)
	require.NoError(t, err)

	valid, flags, err := validator.Validate(context.Background(), leaf)
	require.NoError(t, err)

	// Revocation status unknown plus offline check are non-fatal.
	assert.True(t, valid)
	assert.Equal(t, trust.FlagNoError, flags)
}

func TestValidate_RevokedLeaf(t *testing.T) {
	trust.ClearCRLCache()

	validator, ca, caKey := newTestValidator(t)

	var crlDER []byte
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		w.Header().Set("Content-Type", "application/pkix-crl")
		w.Write(crlDER)
	}))
	defer srv.Close()

	leaf, _, err := pkitest.NewLeaf(pkitest.LeafConfig{
		CommonName: "revoked.internal",
		CRLURLs:    []string{srv.URL + "/ca.crl"},
	}, ca, caKey)
	require.NoError(t, err)

	der, err := x509.CreateRevocationList(rand.Reader, &x509.RevocationList{
		Number:     big.NewInt(1),
		ThisUpdate: time.Now().Add(-time.Hour),
		NextUpdate: time.Now().Add(24 * time.Hour),
		RevokedCertificateEntries: []x509.RevocationListEntry{
			{SerialNumber: leaf.SerialNumber, RevocationTime: time.Now()},
		},
	}, ca, caKey)
	require.NoError(t, err)

	mu.Lock()
	crlDER = der
	mu.Unlock()

	valid, flags, err := validator.Validate(context.Background(), leaf)
	require.NoError(t, err)

	assert.False(t, valid)
	assert.True(t, flags.Has(trust.FlagRevoked), "got flags %s", flags)
}

func TestValidate_CacheSkipsChainBuilding(t *testing.T) {
	validator, ca, caKey := newTestValidator(t)

	leaf, _, err := pkitest.NewLeaf(pkitest.LeafConfig{CommonName: "cached.internal"}, ca, caKey)
	require.NoError(t, err)

	var evaluations atomic.Int32
	validator.SetEvaluateForTest(func(ctx context.Context, leaf *x509.Certificate) ([]trust.ChainElement, trust.Flags) {
		evaluations.Add(1)
		return nil, trust.FlagNoError
	})

	valid1, flags1, err := validator.Validate(context.Background(), leaf)
	require.NoError(t, err)
	valid2, flags2, err := validator.Validate(context.Background(), leaf)
	require.NoError(t, err)

	assert.Equal(t, valid1, valid2)
	assert.Equal(t, flags1, flags2)
	assert.Equal(t, int32(1), evaluations.Load(), "second call must hit the cache")
}

func TestValidate_ConcurrentSameLeaf(t *testing.T) {
	validator, ca, caKey := newTestValidator(t)

	leaf, _, err := pkitest.NewLeaf(pkitest.LeafConfig{CommonName: "hot.internal"}, ca, caKey)
	require.NoError(t, err)

	const workers = 16
	results := make([]trust.Flags, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			_, flags, err := validator.Validate(context.Background(), leaf)
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			results[i] = flags
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Equal(t, results[0], results[i], "all racing validations must observe one cached verdict")
	}
}

func TestInspect_Elements(t *testing.T) {
	validator, ca, caKey := newTestValidator(t)

	leaf, _, err := pkitest.NewLeaf(pkitest.LeafConfig{CommonName: "inspect.internal"}, ca, caKey)
	require.NoError(t, err)

	elements, flags, err := validator.Inspect(context.Background(), leaf)
	require.NoError(t, err)

	require.Len(t, elements, 2)
	assert.True(t, elements[0].Certificate.Equal(leaf))
	assert.False(t, elements[0].TrustedRoot)
	assert.True(t, elements[1].Certificate.Equal(ca))
	assert.True(t, elements[1].TrustedRoot, "trust anchor must be identified by fingerprint")
	assert.Equal(t, trust.FlagNoError, flags)

	report := &trust.Report{Elements: elements, Flags: flags}
	assert.True(t, report.Valid())
	assert.Contains(t, report.RenderASCIITree(), "inspect.internal")
	assert.Contains(t, report.RenderTable(), "Root CA Certificate")

	data, err := report.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"valid": true`)
}
