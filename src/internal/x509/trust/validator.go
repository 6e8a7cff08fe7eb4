// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package trust

import (
	"bytes"
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	x509certs "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/truststore"
)

// ErrNilLeaf indicates that a nil leaf certificate was supplied for validation.
var ErrNilLeaf = errors.New("trust: leaf certificate must not be nil")

// maxChainDepth bounds manual chain assembly against issuer loops.
const maxChainDepth = 8

// HTTPConfig holds HTTP client configuration for revocation fetches.
type HTTPConfig struct {
	Timeout   time.Duration // HTTP request timeout
	Version   string        // Application version for User-Agent
	UserAgent string        // Custom User-Agent string, if empty will be constructed from Version

	mu     sync.Mutex
	client *http.Client
}

// NewHTTPConfig creates a new HTTP configuration with a default timeout of
// 10 seconds and the provided application version.
func NewHTTPConfig(version string) *HTTPConfig {
	return &HTTPConfig{
		Timeout:   10 * time.Second,
		Version:   version,
		UserAgent: "",
	}
}

// GetUserAgent returns the User-Agent string, constructing it if not set.
func (c *HTTPConfig) GetUserAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return fmt.Sprintf("TLS-Trust-Validator/%s (+https://github.com/H0llyW00dzZ/tls-trust-validator)", c.Version)
}

// Client returns an HTTP client configured with the current timeout.
//
// Thread Safety: Safe for concurrent use.
func (c *HTTPConfig) Client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		c.client = &http.Client{Timeout: c.Timeout}
		return c.client
	}

	if c.client.Timeout != c.Timeout {
		c.client.Timeout = c.Timeout
	}

	return c.client
}

// ChainElement is one certificate of an evaluated chain, leaf first, with
// the element's own status flags. Trusted-root elements carry no flags;
// their identity alone makes them acceptable.
type ChainElement struct {
	Certificate *x509.Certificate
	Flags       Flags
	TrustedRoot bool
}

// Validator decides whether a leaf certificate chains to the private
// root-of-trust. Verdicts are cached per leaf fingerprint, so repeated
// presentations of the same certificate skip chain building entirely.
//
// Validator is safe for concurrent use: the trust store is immutable, the
// verdict cache is internally synchronized, and chain evaluation touches no
// shared mutable state.
type Validator struct {
	store *truststore.Store
	cache *VerdictCache

	// HTTPConfig configures revocation fetches (OCSP, CRL).
	HTTPConfig *HTTPConfig

	// evaluate runs the chain walk on a cache miss; replaceable in tests.
	evaluate func(ctx context.Context, leaf *x509.Certificate) ([]ChainElement, Flags)
}

// New creates a Validator rooted at store.
func New(store *truststore.Store, version string) *Validator {
	v := &Validator{
		store:      store,
		cache:      NewVerdictCache(),
		HTTPConfig: NewHTTPConfig(version),
	}
	v.evaluate = v.evaluateChain
	return v
}

// Store returns the trust store this validator is rooted at.
func (v *Validator) Store() *truststore.Store { return v.store }

// Cache returns the validator's verdict cache.
func (v *Validator) Cache() *VerdictCache { return v.cache }

// Validate reports whether leaf chains to a trusted root, along with the
// chain-status flags backing the verdict. A nil leaf is the only error case;
// untrusted chains are expressed through the flags, not through errors.
//
// The verdict for a given leaf fingerprint is computed at most once per
// cache entry: cache hits return without blocking, while misses pay for
// chain building and (potentially I/O-bound) revocation checks. Concurrent
// misses on the same fingerprint may compute redundantly; the first cached
// result wins and all callers observe it.
func (v *Validator) Validate(ctx context.Context, leaf *x509.Certificate) (bool, Flags, error) {
	if leaf == nil {
		return false, FlagNoError, ErrNilLeaf
	}

	fingerprint := x509certs.Fingerprint(leaf)
	if flags, ok := v.cache.Lookup(fingerprint); ok {
		return flags.IsClean(), flags, nil
	}

	_, flags := v.evaluate(ctx, leaf)

	// Best-effort write: never overwrite an existing entry. A racing
	// computation may have stored first; its result is the verdict.
	flags = v.cache.Store(fingerprint, flags)

	return flags.IsClean(), flags, nil
}

// Inspect evaluates leaf's chain and returns the per-element breakdown
// alongside the aggregate flags. It bypasses the verdict cache, so it always
// reflects a fresh chain walk; use it for reporting, not on hot paths.
func (v *Validator) Inspect(ctx context.Context, leaf *x509.Certificate) ([]ChainElement, Flags, error) {
	if leaf == nil {
		return nil, FlagNoError, ErrNilLeaf
	}

	elements, flags := v.evaluateChain(ctx, leaf)
	return elements, flags, nil
}

// evaluateChain builds leaf's chain and walks it leaf-to-root.
//
// Elements whose fingerprint matches a trusted root are skipped. For every
// other element the per-element flags are computed, the two revocation
// availability flags are stripped, and the FIRST element with remaining
// flags decides the aggregate. Flags are deliberately not merged across
// elements; callers depend on seeing the first failure only.
func (v *Validator) evaluateChain(ctx context.Context, leaf *x509.Certificate) ([]ChainElement, Flags) {
	chain, leafFlags, terminalFlags := v.buildChain(leaf)

	now := time.Now()
	aggregate := FlagNoError
	elements := make([]ChainElement, len(chain))

	for i, cert := range chain {
		elem := ChainElement{Certificate: cert}

		if v.store.IsTrustedRoot(x509certs.Fingerprint(cert)) {
			elem.TrustedRoot = true
			elements[i] = elem
			continue
		}

		flags := FlagNoError
		if i == 0 {
			flags |= leafFlags
		}
		if i == len(chain)-1 {
			flags |= terminalFlags
		}

		if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
			flags |= FlagNotTimeValid
		}

		issuer := chainIssuer(chain, i)
		if issuer != nil && issuer != cert {
			if err := cert.CheckSignatureFrom(issuer); err != nil {
				flags |= FlagNotSignatureValid
			}
		}

		// Full-chain revocation: every non-root element is checked.
		flags |= v.checkRevocation(ctx, cert, issuer)

		elem.Flags = flags
		elements[i] = elem

		if remaining := flags.Without(suppressedFlags); aggregate == FlagNoError && remaining != FlagNoError {
			aggregate = remaining
		}
	}

	return elements, aggregate
}

// buildChain constructs leaf's certificate chain, leaf first. The standard
// chain builder runs with the trust store seeding both the root pool and the
// extra-certificates (intermediates) pool, so chains complete even when the
// leaf's issuer is not independently discoverable. When the builder rejects
// the chain, a best-effort chain is assembled by issuer-walking the trust
// store so the element walk can attribute precise flags.
func (v *Validator) buildChain(leaf *x509.Certificate) (chain []*x509.Certificate, leafFlags, terminalFlags Flags) {
	opts := x509.VerifyOptions{
		Roots:         v.store.Pool(),
		Intermediates: v.store.Pool(),
	}

	chains, err := leaf.Verify(opts)
	if err == nil && len(chains) > 0 {
		return chains[0], FlagNoError, FlagNoError
	}

	chain = v.assembleChain(leaf)
	top := chain[len(chain)-1]

	var (
		unknownAuthErr x509.UnknownAuthorityError
		invalidErr     x509.CertificateInvalidError
	)
	switch {
	case errors.As(err, &unknownAuthErr):
		// Attribution happens below from the assembled chain's shape.
	case errors.As(err, &invalidErr) && invalidErr.Reason == x509.Expired:
		// The element walk's own time check covers this.
	case err != nil:
		leafFlags |= FlagInvalidExtension
	}

	switch {
	case !isSelfSigned(top):
		terminalFlags |= FlagPartialChain
	case !v.store.IsTrustedRoot(x509certs.Fingerprint(top)):
		terminalFlags |= FlagUntrustedRoot
	}

	return chain, leafFlags, terminalFlags
}

// assembleChain issuer-walks from leaf through the trust store's
// certificates, stopping at a self-signed certificate, a missing issuer, or
// the depth bound.
func (v *Validator) assembleChain(leaf *x509.Certificate) []*x509.Certificate {
	chain := []*x509.Certificate{leaf}
	candidates := v.store.Certificates()

	for len(chain) < maxChainDepth {
		current := chain[len(chain)-1]
		if isSelfSigned(current) {
			break
		}

		var issuer *x509.Certificate
		for _, candidate := range candidates {
			if containsCert(chain, candidate) {
				continue
			}
			if err := current.CheckSignatureFrom(candidate); err == nil {
				issuer = candidate
				break
			}
		}
		if issuer == nil {
			break
		}

		chain = append(chain, issuer)
	}

	return chain
}

// chainIssuer returns the issuer element for position i: the next element
// up, or the certificate itself when it terminates the chain self-signed.
func chainIssuer(chain []*x509.Certificate, i int) *x509.Certificate {
	if i+1 < len(chain) {
		return chain[i+1]
	}
	if isSelfSigned(chain[i]) {
		return chain[i]
	}
	return nil
}

// isSelfSigned checks if a certificate is signed by its own key. It verifies
// the signature directly rather than through CheckSignatureFrom, which would
// reject self-signed end-entity certificates for lacking the CA constraint.
func isSelfSigned(cert *x509.Certificate) bool {
	if !bytes.Equal(cert.RawIssuer, cert.RawSubject) {
		return false
	}
	return cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature) == nil
}

func containsCert(chain []*x509.Certificate, cert *x509.Certificate) bool {
	for _, c := range chain {
		if c.Equal(cert) {
			return true
		}
	}
	return false
}
