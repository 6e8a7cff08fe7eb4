// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package trust

import "strings"

// Flags is a bitmask of chain-status failure reasons for a certificate or a
// whole chain. The zero value [FlagNoError] means the chain is clean.
//
// Untrusted chains are results, not errors: validation reports a Flags value
// and lets the caller reject the connection.
type Flags uint32

const (
	// FlagNoError is the "no error" sentinel.
	FlagNoError Flags = 0

	// FlagNotTimeValid means the certificate is outside its validity window.
	FlagNotTimeValid Flags = 1 << iota

	// FlagNotSignatureValid means the certificate's signature does not
	// verify against its issuer.
	FlagNotSignatureValid

	// FlagRevoked means revocation data positively lists the certificate.
	FlagRevoked

	// FlagRevocationStatusUnknown means revocation status could not be
	// determined. Always suppressed by the chain validator.
	FlagRevocationStatusUnknown

	// FlagOfflineRevocation means the revocation endpoint was unreachable.
	// Always suppressed by the chain validator.
	FlagOfflineRevocation

	// FlagUntrustedRoot means the chain terminates at a self-signed
	// certificate that is not one of the trusted roots.
	FlagUntrustedRoot

	// FlagPartialChain means the chain could not be built up to a
	// self-signed root.
	FlagPartialChain

	// FlagInvalidExtension means a certificate carries an unsupported
	// critical extension or otherwise malformed extension data.
	FlagInvalidExtension
)

// suppressedFlags are stripped from every chain element before deciding the
// verdict: the deployment accepts that revocation data may be unreachable.
const suppressedFlags = FlagRevocationStatusUnknown | FlagOfflineRevocation

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagNotTimeValid, "NotTimeValid"},
	{FlagNotSignatureValid, "NotSignatureValid"},
	{FlagRevoked, "Revoked"},
	{FlagRevocationStatusUnknown, "RevocationStatusUnknown"},
	{FlagOfflineRevocation, "OfflineRevocation"},
	{FlagUntrustedRoot, "UntrustedRoot"},
	{FlagPartialChain, "PartialChain"},
	{FlagInvalidExtension, "InvalidExtension"},
}

// Has reports whether every bit of mask is set in f.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// Without returns f with the bits of mask cleared.
func (f Flags) Without(mask Flags) Flags { return f &^ mask }

// IsClean reports whether f is the "no error" sentinel.
func (f Flags) IsClean() bool { return f == FlagNoError }

// String renders the set flags as a comma-joined list, or "NoError".
func (f Flags) String() string {
	if f == FlagNoError {
		return "NoError"
	}

	var names []string
	for _, entry := range flagNames {
		if f.Has(entry.flag) {
			names = append(names, entry.name)
		}
	}
	return strings.Join(names, ", ")
}
