// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509san

import (
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"sort"
	"strings"
)

var (
	// ErrNilCertificate indicates that a nil certificate was supplied.
	ErrNilCertificate = errors.New("x509san: certificate must not be nil")

	// ErrNilDNSNames indicates that the DNS name list was absent (nil, not merely empty).
	ErrNilDNSNames = errors.New("x509san: DNS name list must not be nil")

	// ErrNilIPAddresses indicates that the IP address list was absent (nil, not merely empty).
	ErrNilIPAddresses = errors.New("x509san: IP address list must not be nil")
)

// oidSubjectAltName is the Subject Alternative Name extension identifier (2.5.29.17).
var oidSubjectAltName = asn1.ObjectIdentifier{2, 5, 29, 17}

// Line labels recognized in the textual rendering of the SAN extension.
// Any other label is ignored.
const (
	labelDNSName   = "DNS Name"
	labelIPAddress = "IP Address"
)

// SubjectAlternativeNames is an immutable value holding the normalized
// alternative names of a certificate: a case-insensitive, deduplicated set
// of DNS names and a set of syntactically valid IP address strings.
//
// Equality and containment are set-based: element order and letter case
// never matter. All methods are safe for concurrent use since the value
// never mutates after construction.
type SubjectAlternativeNames struct {
	dnsNames    []string // normalized (lowercase, trimmed), sorted
	ipAddresses []string // trimmed, sorted; validated by net.ParseIP
	all         []string // dnsNames followed by ipAddresses

	dnsSet map[string]struct{} // lowercase keys
	ipSet  map[string]struct{} // lowercase keys
}

// Empty is the canonical value for a certificate without a SAN extension.
var Empty = mustNew(nil, nil)

// New constructs a SubjectAlternativeNames value from explicit name lists.
// Both lists must be present (non-nil); empty lists are fine. DNS names are
// trimmed, lowercased, and deduplicated with blank entries dropped. IP
// entries that net.ParseIP rejects are dropped silently.
func New(dnsNames, ipAddresses []string) (*SubjectAlternativeNames, error) {
	if dnsNames == nil {
		return nil, ErrNilDNSNames
	}
	if ipAddresses == nil {
		return nil, ErrNilIPAddresses
	}

	s := &SubjectAlternativeNames{
		dnsSet: make(map[string]struct{}),
		ipSet:  make(map[string]struct{}),
	}

	for _, name := range dnsNames {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, dup := s.dnsSet[name]; dup {
			continue
		}
		s.dnsSet[name] = struct{}{}
		s.dnsNames = append(s.dnsNames, name)
	}

	for _, addr := range ipAddresses {
		addr = strings.TrimSpace(addr)
		if net.ParseIP(addr) == nil {
			continue
		}
		key := strings.ToLower(addr)
		if _, dup := s.ipSet[key]; dup {
			continue
		}
		s.ipSet[key] = struct{}{}
		s.ipAddresses = append(s.ipAddresses, addr)
	}

	sort.Strings(s.dnsNames)
	sort.Strings(s.ipAddresses)

	// The combined alternative-name union is derived once here; the value is
	// immutable so there is nothing to invalidate later.
	s.all = make([]string, 0, len(s.dnsNames)+len(s.ipAddresses))
	s.all = append(s.all, s.dnsNames...)
	s.all = append(s.all, s.ipAddresses...)

	return s, nil
}

// mustNew is New for statically known-good inputs.
func mustNew(dnsNames, ipAddresses []string) *SubjectAlternativeNames {
	if dnsNames == nil {
		dnsNames = []string{}
	}
	if ipAddresses == nil {
		ipAddresses = []string{}
	}

	s, err := New(dnsNames, ipAddresses)
	if err != nil {
		panic(fmt.Sprintf("x509san: %v", err))
	}
	return s
}

// FromCertificate extracts the Subject Alternative Name extension (OID
// 2.5.29.17) from cert. A certificate without the extension yields [Empty].
// Garbled extension contents degrade to fewer recognized names, never to an
// error; only a nil certificate fails.
func FromCertificate(cert *x509.Certificate) (*SubjectAlternativeNames, error) {
	if cert == nil {
		return nil, ErrNilCertificate
	}

	for _, ext := range cert.Extensions {
		if !ext.Id.Equal(oidSubjectAltName) {
			continue
		}
		return ParseExtensionText(formatExtension(ext.Value)), nil
	}

	return Empty, nil
}

// formatExtension renders the raw SAN extension value as the textual
// "Label = Value" line form consumed by [ParseExtensionText]. General names
// other than dNSName (tag 2) and iPAddress (tag 7) are omitted; undecodable
// data yields however many lines were recovered before the damage.
func formatExtension(der []byte) string {
	var seq asn1.RawValue
	if rest, err := asn1.Unmarshal(der, &seq); err != nil || len(rest) != 0 {
		return ""
	}
	if !seq.IsCompound || seq.Tag != 16 || seq.Class != asn1.ClassUniversal {
		return ""
	}

	var lines []string

	data := seq.Bytes
	for len(data) > 0 {
		var v asn1.RawValue
		rest, err := asn1.Unmarshal(data, &v)
		if err != nil {
			break
		}
		data = rest

		if v.Class != asn1.ClassContextSpecific {
			continue
		}

		switch v.Tag {
		case 2: // dNSName, IA5String
			lines = append(lines, fmt.Sprintf("%s = %s", labelDNSName, string(v.Bytes)))
		case 7: // iPAddress, OCTET STRING
			if len(v.Bytes) == net.IPv4len || len(v.Bytes) == net.IPv6len {
				lines = append(lines, fmt.Sprintf("%s = %s", labelIPAddress, net.IP(v.Bytes).String()))
			}
		}
	}

	return strings.Join(lines, "\r\n")
}

// ParseExtensionText parses the multi-line textual rendering of a SAN
// extension. Lines are separated by "\r\n" or "\n"; each line splits on the
// first "=" into a label and a value. Labels other than "DNS Name" and
// "IP Address", and lines without "=", are skipped silently.
func ParseExtensionText(text string) *SubjectAlternativeNames {
	dnsNames := []string{}
	ipAddresses := []string{}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}

		label := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])

		switch label {
		case labelDNSName:
			dnsNames = append(dnsNames, value)
		case labelIPAddress:
			ipAddresses = append(ipAddresses, value)
		}
	}

	return mustNew(dnsNames, ipAddresses)
}

// DNSNames returns the normalized DNS name set in sorted order.
func (s *SubjectAlternativeNames) DNSNames() []string {
	out := make([]string, len(s.dnsNames))
	copy(out, s.dnsNames)
	return out
}

// IPAddresses returns the validated IP address set in sorted order.
func (s *SubjectAlternativeNames) IPAddresses() []string {
	out := make([]string, len(s.ipAddresses))
	copy(out, s.ipAddresses)
	return out
}

// AlternativeNames returns the union of DNS names and IP addresses.
func (s *SubjectAlternativeNames) AlternativeNames() []string {
	out := make([]string, len(s.all))
	copy(out, s.all)
	return out
}

// IsEmpty reports whether the value holds no alternative names.
func (s *SubjectAlternativeNames) IsEmpty() bool { return len(s.all) == 0 }

// ContainsDNSName reports whether name is in the DNS name set,
// compared case-insensitively.
func (s *SubjectAlternativeNames) ContainsDNSName(name string) bool {
	_, ok := s.dnsSet[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// ContainsIPAddress reports whether addr is in the IP address set,
// compared case-insensitively.
func (s *SubjectAlternativeNames) ContainsIPAddress(addr string) bool {
	_, ok := s.ipSet[strings.ToLower(strings.TrimSpace(addr))]
	return ok
}

// Contains reports whether every DNS name and every IP address in other is
// present in the respective set of s. Every value trivially contains itself.
func (s *SubjectAlternativeNames) Contains(other *SubjectAlternativeNames) bool {
	if other == nil {
		return false
	}

	for name := range other.dnsSet {
		if _, ok := s.dnsSet[name]; !ok {
			return false
		}
	}
	for addr := range other.ipSet {
		if _, ok := s.ipSet[addr]; !ok {
			return false
		}
	}

	return true
}

// Equal reports whether s and other hold the same combined alternative-name
// set, compared case-insensitively and independent of element order.
func (s *SubjectAlternativeNames) Equal(other *SubjectAlternativeNames) bool {
	if other == nil {
		return false
	}
	if len(s.all) != len(other.all) {
		return false
	}

	for _, name := range other.all {
		key := strings.ToLower(name)
		if _, ok := s.dnsSet[key]; ok {
			continue
		}
		if _, ok := s.ipSet[key]; ok {
			continue
		}
		return false
	}

	return true
}

// Hash returns a hash consistent with Equal: equal values hash equally
// regardless of the order their names were supplied in. Per-element FNV-1a
// hashes are combined with XOR, which is order-independent.
func (s *SubjectAlternativeNames) Hash() uint64 {
	var sum uint64
	for _, name := range s.all {
		h := fnv.New64a()
		h.Write([]byte(strings.ToLower(name)))
		sum ^= h.Sum64()
	}
	return sum
}

// String renders the combined alternative names as a comma-joined list in
// deterministic (sorted, DNS names first) order.
func (s *SubjectAlternativeNames) String() string {
	return strings.Join(s.all, ", ")
}
