// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package trust

import (
	"bytes"
	"context"
	"crypto/x509"
	"net/http"
	"time"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/helper/gc"
	"golang.org/x/crypto/ocsp"
)

// checkRevocation determines the revocation flags for cert. OCSP is
// consulted first, CRLs second; the first definitive answer wins.
//
// Failures are never errors here: unreachable endpoints yield
// [FlagOfflineRevocation] alongside [FlagRevocationStatusUnknown], and
// undecodable responses yield [FlagRevocationStatusUnknown] alone. Both are
// suppressed later by the chain walk.
func (v *Validator) checkRevocation(ctx context.Context, cert, issuer *x509.Certificate) Flags {
	if issuer == nil {
		// Revocation data cannot be authenticated without the issuer.
		return FlagRevocationStatusUnknown
	}

	offline := false

	if len(cert.OCSPServer) > 0 {
		flags, definitive, reachable := v.checkOCSP(ctx, cert, issuer)
		if definitive {
			return flags
		}
		if !reachable {
			offline = true
		}
	}

	if len(cert.CRLDistributionPoints) > 0 {
		flags, definitive, reachable := v.checkCRL(ctx, cert, issuer)
		if definitive {
			return flags
		}
		if !reachable {
			offline = true
		}
	}

	flags := FlagRevocationStatusUnknown
	if offline {
		flags |= FlagOfflineRevocation
	}
	return flags
}

// checkOCSP queries the certificate's first OCSP responder.
// definitive is true only for a verified Good or Revoked answer; reachable
// is false when the responder could not be contacted.
func (v *Validator) checkOCSP(ctx context.Context, cert, issuer *x509.Certificate) (flags Flags, definitive, reachable bool) {
	ocspReq, err := ocsp.CreateRequest(cert, issuer, nil)
	if err != nil {
		return FlagNoError, false, true
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cert.OCSPServer[0], bytes.NewReader(ocspReq))
	if err != nil {
		return FlagNoError, false, true
	}
	req.Header.Set("Content-Type", "application/ocsp-request")
	req.Header.Set("Accept", "application/ocsp-response")
	req.Header.Set("User-Agent", v.HTTPConfig.GetUserAgent())

	resp, err := v.HTTPConfig.Client().Do(req)
	if err != nil {
		return FlagNoError, false, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FlagNoError, false, false
	}

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()         // Reset the buffer to prevent data leaks
		gc.Default.Put(buf) // Return the buffer to the pool for reuse
	}()

	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return FlagNoError, false, false
	}

	parsed, err := ocsp.ParseResponseForCert(buf.Bytes(), cert, issuer)
	if err != nil {
		return FlagNoError, false, true
	}

	switch parsed.Status {
	case ocsp.Good:
		return FlagNoError, true, true
	case ocsp.Revoked:
		return FlagRevoked, true, true
	default:
		return FlagNoError, false, true
	}
}

// checkCRL fetches and evaluates the certificate's first CRL distribution
// point, consulting the process-wide CRL cache before going to the network.
func (v *Validator) checkCRL(ctx context.Context, cert, issuer *x509.Certificate) (flags Flags, definitive, reachable bool) {
	crlURL := cert.CRLDistributionPoints[0]

	data, cached := getCachedCRL(crlURL)
	if !cached {
		fetched, ok := v.fetchCRL(ctx, crlURL)
		if !ok {
			return FlagNoError, false, false
		}
		data = fetched
	}

	rl, err := x509.ParseRevocationList(data)
	if err != nil {
		return FlagNoError, false, true
	}

	// An unverifiable or stale CRL proves nothing either way.
	if err := rl.CheckSignatureFrom(issuer); err != nil {
		return FlagNoError, false, true
	}
	if rl.NextUpdate.Before(time.Now()) {
		return FlagNoError, false, true
	}

	if !cached {
		setCachedCRL(crlURL, data, rl.NextUpdate)
	}

	for _, entry := range rl.RevokedCertificateEntries {
		if entry.SerialNumber.Cmp(cert.SerialNumber) == 0 {
			return FlagRevoked, true, true
		}
	}

	return FlagNoError, true, true
}

// fetchCRL downloads a CRL using the pooled buffer helper.
func (v *Validator) fetchCRL(ctx context.Context, crlURL string) ([]byte, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crlURL, nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("User-Agent", v.HTTPConfig.GetUserAgent())

	resp, err := v.HTTPConfig.Client().Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false
	}

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()         // Reset the buffer to prevent data leaks
		gc.Default.Put(buf) // Return the buffer to the pool for reuse
	}()

	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, false
	}

	return append([]byte(nil), buf.Bytes()...), true
}
