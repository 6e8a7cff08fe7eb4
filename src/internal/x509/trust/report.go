// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package trust

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	x509certs "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/certs"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// Report is the renderable outcome of a chain validation: the evaluated
// elements leaf-to-root and the aggregate verdict.
type Report struct {
	Elements []ChainElement
	Flags    Flags
}

// Valid reports whether the aggregate flags are clean.
func (r *Report) Valid() bool { return r.Flags.IsClean() }

// RenderASCIITree renders the evaluated chain as an ASCII tree diagram,
// marking each element with its validation outcome.
func (r *Report) RenderASCIITree() string {
	if len(r.Elements) == 0 {
		return "No certificates in chain"
	}

	var result strings.Builder
	for i, elem := range r.Elements {
		connector := "├── "
		if i == len(r.Elements)-1 {
			connector = "└── "
		}

		statusIcon := "✓"
		if !elem.TrustedRoot && !elem.Flags.Without(suppressedFlags).IsClean() {
			statusIcon = "✗"
		}

		certInfo := fmt.Sprintf("[%s] %s (%s)", statusIcon, elem.Certificate.Subject.CommonName, r.elementRole(i))
		result.WriteString(connector + certInfo + "\n")
	}

	result.WriteString(fmt.Sprintf("\nVerdict: %s\n", r.Flags))
	return result.String()
}

// RenderTable renders the evaluated chain as a formatted markdown table
// with per-element subjects, validity dates, key sizes, and status flags.
func (r *Report) RenderTable() string {
	if len(r.Elements) == 0 {
		return "No certificates to display"
	}

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)

	table.Header([]string{"#", "Role", "Subject", "Issuer", "Valid Until", "Key", "Status"})

	var rows [][]string
	for i, elem := range r.Elements {
		cert := elem.Certificate

		status := elem.Flags.String()
		if elem.TrustedRoot {
			status = "TrustedRoot"
		}

		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			r.elementRole(i),
			cert.Subject.CommonName,
			cert.Issuer.CommonName,
			cert.NotAfter.Format("2006-01-02"),
			keyDescription(cert.PublicKey),
			status,
		})
	}

	table.Bulk(rows)
	table.Render()
	return buf.String()
}

// ToJSON converts the report to structured JSON for external tools.
func (r *Report) ToJSON() ([]byte, error) {
	type ElementData struct {
		Index              int       `json:"index"`
		Role               string    `json:"role"`
		Subject            string    `json:"subject"`
		Issuer             string    `json:"issuer"`
		SerialNumber       string    `json:"serialNumber"`
		Fingerprint        string    `json:"fingerprint"`
		SignatureAlgorithm string    `json:"signatureAlgorithm"`
		NotBefore          time.Time `json:"notBefore"`
		NotAfter           time.Time `json:"notAfter"`
		IsCA               bool      `json:"isCA"`
		TrustedRoot        bool      `json:"trustedRoot"`
		StatusFlags        string    `json:"statusFlags"`
	}

	type ReportData struct {
		Timestamp   string        `json:"timestamp"`
		ChainLength int           `json:"chainLength"`
		Valid       bool          `json:"valid"`
		Verdict     string        `json:"verdict"`
		Elements    []ElementData `json:"elements"`
	}

	data := ReportData{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		ChainLength: len(r.Elements),
		Valid:       r.Valid(),
		Verdict:     r.Flags.String(),
		Elements:    make([]ElementData, len(r.Elements)),
	}

	for i, elem := range r.Elements {
		cert := elem.Certificate
		data.Elements[i] = ElementData{
			Index:              i,
			Role:               r.elementRole(i),
			Subject:            cert.Subject.CommonName,
			Issuer:             cert.Issuer.CommonName,
			SerialNumber:       cert.SerialNumber.String(),
			Fingerprint:        x509certs.Fingerprint(cert),
			SignatureAlgorithm: cert.SignatureAlgorithm.String(),
			NotBefore:          cert.NotBefore,
			NotAfter:           cert.NotAfter,
			IsCA:               cert.IsCA,
			TrustedRoot:        elem.TrustedRoot,
			StatusFlags:        elem.Flags.String(),
		}
	}

	return json.MarshalIndent(data, "", "  ")
}

// elementRole describes the position of an element within the chain.
func (r *Report) elementRole(index int) string {
	total := len(r.Elements)
	switch {
	case total == 1:
		return "Self-Signed Certificate"
	case index == 0:
		return "End-Entity (Server/Leaf) Certificate"
	case index == total-1:
		return "Root CA Certificate"
	default:
		return "Intermediate CA Certificate"
	}
}

// keyDescription summarizes the public key algorithm and size.
func keyDescription(pub any) string {
	switch key := pub.(type) {
	case *rsa.PublicKey:
		return fmt.Sprintf("%d-bit RSA", key.Size()*8)
	case *ecdsa.PublicKey:
		return fmt.Sprintf("%d-bit ECDSA", key.Curve.Params().BitSize)
	default:
		return "unknown"
	}
}
