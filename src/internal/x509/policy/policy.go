// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package policy

import (
	"context"
	"crypto/x509"
	"net"
	"strings"

	x509certs "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/certs"
	x509san "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/san"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/trust"
)

// PolicyErrors is the transport-computed policy-error bitmask presented to
// the handshake callback. The zero value means the platform found nothing
// wrong with the presented certificate.
type PolicyErrors uint8

const (
	// PolicyErrorNone means no policy errors were detected.
	PolicyErrorNone PolicyErrors = 0

	// PolicyErrorRemoteCertificateNotAvailable means the peer presented no
	// certificate at all.
	PolicyErrorRemoteCertificateNotAvailable PolicyErrors = 1 << iota

	// PolicyErrorRemoteCertificateNameMismatch means the certificate does
	// not match the host the request was addressed to.
	PolicyErrorRemoteCertificateNameMismatch

	// PolicyErrorRemoteCertificateChainErrors means standard chain
	// validation failed.
	PolicyErrorRemoteCertificateChainErrors
)

// Has reports whether every bit of mask is set in e.
func (e PolicyErrors) Has(mask PolicyErrors) bool { return e&mask == mask }

// Without returns e with the bits of mask cleared.
func (e PolicyErrors) Without(mask PolicyErrors) PolicyErrors { return e &^ mask }

// String renders the set policy errors as a comma-joined list, or "None".
func (e PolicyErrors) String() string {
	if e == PolicyErrorNone {
		return "None"
	}

	var names []string
	if e.Has(PolicyErrorRemoteCertificateNotAvailable) {
		names = append(names, "RemoteCertificateNotAvailable")
	}
	if e.Has(PolicyErrorRemoteCertificateNameMismatch) {
		names = append(names, "RemoteCertificateNameMismatch")
	}
	if e.Has(PolicyErrorRemoteCertificateChainErrors) {
		names = append(names, "RemoteCertificateChainErrors")
	}
	return strings.Join(names, ", ")
}

// Sender describes the transport-side context of the handshake: the host
// the underlying request was addressed to.
type Sender interface {
	// RequestHost returns the host component (no port) of the request URI
	// the connection is being established for.
	RequestHost() string
}

// Request is a minimal Sender carrying a request host.
type Request struct{ Host string }

// RequestHost returns the request's host.
func (r Request) RequestHost() string { return r.Host }

// Policy is the handshake-time trust decision procedure. The TLS transport
// invokes Decide during the handshake with the presented certificate and
// the platform's policy-error verdict; Policy adjudicates the two specific
// conditions it understands and rejects everything else.
//
// Policy is safe for concurrent use across simultaneous handshakes.
type Policy struct {
	validator *trust.Validator
	decoder   *x509certs.Certificate
}

// NewPolicy creates a handshake policy backed by validator.
func NewPolicy(validator *trust.Validator) *Policy {
	return &Policy{
		validator: validator,
		decoder:   x509certs.New(),
	}
}

// Validator returns the chain validator backing this policy.
func (p *Policy) Validator() *trust.Validator { return p.validator }

// DecideRaw coerces a raw (DER, PEM, or PKCS7) certificate into structured
// form and delegates to Decide. Undecodable bytes are treated the same as
// an absent certificate: rejection.
func (p *Policy) DecideRaw(ctx context.Context, sender Sender, rawCert []byte, chain []*x509.Certificate, errs PolicyErrors) bool {
	cert, err := p.decoder.Decode(rawCert)
	if err != nil {
		return false
	}
	return p.Decide(ctx, sender, cert, chain, errs)
}

// Decide is the TLS handshake validation callback. It returns true to
// accept the connection and false to reject it.
//
// The decision procedure:
//  1. An absent certificate is never overridden: reject.
//  2. A name mismatch is forgiven iff the sender's request host is a
//     literal IP address present in the leaf's SAN IP-address set. Default
//     hostname verification ignores IP-form SANs; this restores them.
//  3. After that adjustment, exactly chain-errors delegates to the chain
//     validator, exactly no-error accepts, and any other combination is
//     rejected: this callback only adjudicates the conditions above.
func (p *Policy) Decide(ctx context.Context, sender Sender, cert *x509.Certificate, chain []*x509.Certificate, errs PolicyErrors) bool {
	if errs.Has(PolicyErrorRemoteCertificateNotAvailable) || cert == nil {
		return false
	}

	if errs.Has(PolicyErrorRemoteCertificateNameMismatch) && sender != nil {
		if host := sender.RequestHost(); net.ParseIP(host) != nil {
			names, err := x509san.FromCertificate(cert)
			if err == nil && names.ContainsIPAddress(host) {
				errs = errs.Without(PolicyErrorRemoteCertificateNameMismatch)
			}
		}
	}

	switch errs {
	case PolicyErrorNone:
		return true
	case PolicyErrorRemoteCertificateChainErrors:
		valid, _, err := p.validator.Validate(ctx, cert)
		return err == nil && valid
	default:
		return false
	}
}
