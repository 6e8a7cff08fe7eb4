// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package policy

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ErrCertificateRejected indicates that the handshake policy refused the
// server certificate.
var ErrCertificateRejected = errors.New("policy: server certificate rejected by trust policy")

// NewHTTPClient returns an HTTP client whose TLS handshakes are adjudicated
// by this policy instead of the default verifier. Standard verification
// still runs first to compute the policy-error set; Decide then applies the
// IP-SAN hostname exception and the private-trust chain fallback.
func (p *Policy) NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		DialTLSContext: p.dialTLS,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// dialTLS establishes a TLS connection with certificate verification
// disabled in the handshake itself, then applies the policy callback to the
// presented chain before handing the connection to the HTTP transport.
func (p *Policy) dialTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	rawConn, err := (&net.Dialer{}).DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	// Verification is deferred to the policy callback below, mirroring a
	// transport that exposes a validation-callback extension point.
	conn := tls.Client(rawConn, &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: true,
	})

	if err := conn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}

	peerCerts := conn.ConnectionState().PeerCertificates
	errs := ClassifyPolicyErrors(peerCerts, host)

	var leaf *x509.Certificate
	var rest []*x509.Certificate
	if len(peerCerts) > 0 {
		leaf = peerCerts[0]
		rest = peerCerts[1:]
	}

	if !p.Decide(ctx, Request{Host: host}, leaf, rest, errs) {
		conn.Close()
		return nil, fmt.Errorf("%w (policy errors: %s)", ErrCertificateRejected, errs)
	}

	return conn, nil
}

// ClassifyPolicyErrors computes the platform policy-error set for a
// presented chain, the way a default TLS verifier would: certificate
// absence, hostname mismatch against the request host, and standard chain
// validation against the system roots with the presented intermediates.
func ClassifyPolicyErrors(peerCerts []*x509.Certificate, host string) PolicyErrors {
	if len(peerCerts) == 0 {
		return PolicyErrorRemoteCertificateNotAvailable
	}

	leaf := peerCerts[0]
	errs := PolicyErrorNone

	if err := leaf.VerifyHostname(host); err != nil {
		errs |= PolicyErrorRemoteCertificateNameMismatch
	}

	roots, err := x509.SystemCertPool()
	if err != nil {
		roots = x509.NewCertPool()
	}

	intermediates := x509.NewCertPool()
	for _, cert := range peerCerts[1:] {
		intermediates.AddCert(cert)
	}

	if _, err := leaf.Verify(x509.VerifyOptions{
		Roots:         roots,
		Intermediates: intermediates,
	}); err != nil {
		errs |= PolicyErrorRemoteCertificateChainErrors
	}

	return errs
}

// Probe connects to the target host, runs the handshake policy against the
// presented certificates, and reports the outcome together with the raw
// policy-error set and the peer chain. The connection is closed before
// returning; Probe exists for diagnostics, not for traffic.
func (p *Policy) Probe(ctx context.Context, hostname string, port int, timeout time.Duration) (accepted bool, errs PolicyErrors, peerCerts []*x509.Certificate, err error) {
	dialer := &net.Dialer{Timeout: timeout}

	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	conn, err := tls.DialWithDialer(dialer, "tcp", fmt.Sprintf("%s:%d", hostname, port),
		// We just want the cert chain; the policy decides trust below.
		&tls.Config{InsecureSkipVerify: true})
	if err != nil {
		return false, PolicyErrorNone, nil, fmt.Errorf("failed to connect to %s:%d: %w", hostname, port, err)
	}
	defer conn.Close()

	peerCerts = conn.ConnectionState().PeerCertificates
	errs = ClassifyPolicyErrors(peerCerts, hostname)

	var leaf *x509.Certificate
	var rest []*x509.Certificate
	if len(peerCerts) > 0 {
		leaf = peerCerts[0]
		rest = peerCerts[1:]
	}

	accepted = p.Decide(ctx, Request{Host: hostname}, leaf, rest, errs)
	return accepted, errs, peerCerts, nil
}
