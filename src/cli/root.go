// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/config"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/helper/posix"
	x509certs "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/policy"
	x509san "github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/san"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/trust"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/internal/x509/truststore"
	"github.com/H0llyW00dzZ/tls-trust-validator/src/logger"
	"github.com/spf13/cobra"
)

var (
	configFile string
	outputJSON bool
	outputFile string
	probePort  int
)

// OperationPerformed reports whether a command ran to completion.
var OperationPerformed bool

// OperationPerformedSuccessfully reports whether the last command succeeded.
var OperationPerformedSuccessfully bool

// Execute runs the root command, handling any errors that occur during execution.
func Execute(ctx context.Context, version string, log logger.Logger) error {
	rootCmd := &cobra.Command{
		Use:           posix.GetExecutableName(),
		Short:         "Private-trust TLS certificate validator",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file (.json, .yaml, .yml)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output machine-readable JSON")

	rootCmd.AddCommand(newValidateCmd(version, log))
	rootCmd.AddCommand(newProbeCmd(version, log))
	rootCmd.AddCommand(newSANCmd(log))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	return nil
}

// loadConfig resolves the effective configuration for a command run.
func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	return config.Load(configFile)
}

// effectiveLogger returns the logger commands should write through: the
// structured JSON logger when the configuration asks for it, otherwise the
// logger the process started with.
func effectiveLogger(cfg *config.Config, log logger.Logger) logger.Logger {
	if cfg.Logging.JSON {
		return logger.NewJSONLogger(os.Stdout, false)
	}
	return log
}

// buildValidator constructs a chain validator from the embedded roots plus
// any operator-supplied extra anchors.
func buildValidator(cfg *config.Config, version string) (*trust.Validator, error) {
	anchors := truststore.Embedded().Certificates()

	if cfg.Trust.ExtraAnchorsFile != "" {
		data, err := os.ReadFile(cfg.Trust.ExtraAnchorsFile)
		if err != nil {
			return nil, fmt.Errorf("reading extra anchors: %w", err)
		}

		extra, err := x509certs.New().DecodeMultiple(data)
		if err != nil {
			return nil, fmt.Errorf("decoding extra anchors: %w", err)
		}
		anchors = append(anchors, extra...)
	}

	store, err := truststore.NewFromCertificates(anchors)
	if err != nil {
		return nil, err
	}

	validator := trust.New(store, version)
	validator.HTTPConfig.Timeout = time.Duration(cfg.Client.TimeoutSeconds) * time.Second
	return validator, nil
}

// newValidateCmd validates a certificate file against the private trust
// policy and renders the per-element chain report.
func newValidateCmd(version string, log logger.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [CERT_FILE]",
		Short: "Validate a certificate file against the private root-of-trust",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			OperationPerformed = true

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := effectiveLogger(cfg, log)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading input file: %w", err)
			}

			cert, err := x509certs.New().Decode(data)
			if err != nil {
				return fmt.Errorf("decoding certificate: %w", err)
			}

			validator, err := buildValidator(cfg, version)
			if err != nil {
				return err
			}

			elements, flags, err := validator.Inspect(cmd.Context(), cert)
			if err != nil {
				return err
			}

			report := &trust.Report{Elements: elements, Flags: flags}
			if err := renderReport(report, log); err != nil {
				return err
			}

			if outputFile != "" {
				chain := make([]*x509.Certificate, len(elements))
				for i, elem := range elements {
					chain[i] = elem.Certificate
				}
				if err := os.WriteFile(outputFile, x509certs.New().EncodeMultiplePEM(chain), 0644); err != nil {
					return fmt.Errorf("writing chain bundle: %w", err)
				}
				log.Printf("Chain bundle written to %s", outputFile)
			}

			OperationPerformedSuccessfully = true
			if !report.Valid() {
				return fmt.Errorf("certificate is not trusted: %s", flags)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "write the evaluated chain to OUTPUT_FILE as a PEM bundle")
	return cmd
}

// newProbeCmd connects to a live server and adjudicates its certificate with
// the handshake policy callback.
func newProbeCmd(version string, log logger.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe [HOST]",
		Short: "Probe a TLS server and adjudicate its certificate with the handshake policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			OperationPerformed = true

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := effectiveLogger(cfg, log)

			validator, err := buildValidator(cfg, version)
			if err != nil {
				return err
			}

			timeout := time.Duration(cfg.Client.TimeoutSeconds) * time.Second
			pol := policy.NewPolicy(validator)

			accepted, errs, peerCerts, err := pol.Probe(cmd.Context(), args[0], probePort, timeout)
			if err != nil {
				return err
			}

			log.Printf("Policy errors: %s", errs)
			if len(peerCerts) > 0 {
				elements, flags, err := validator.Inspect(cmd.Context(), peerCerts[0])
				if err != nil {
					return err
				}
				if err := renderReport(&trust.Report{Elements: elements, Flags: flags}, log); err != nil {
					return err
				}
			}

			OperationPerformedSuccessfully = true
			if !accepted {
				return fmt.Errorf("connection to %s rejected by trust policy", args[0])
			}

			log.Printf("Connection to %s accepted", args[0])
			return nil
		},
	}

	cmd.Flags().IntVarP(&probePort, "port", "p", 443, "TLS port to probe")
	return cmd
}

// newSANCmd prints the normalized Subject Alternative Names of a certificate.
func newSANCmd(log logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "san [CERT_FILE]",
		Short: "Print a certificate's Subject Alternative Names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			OperationPerformed = true

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := effectiveLogger(cfg, log)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading input file: %w", err)
			}

			cert, err := x509certs.New().Decode(data)
			if err != nil {
				return fmt.Errorf("decoding certificate: %w", err)
			}

			names, err := x509san.FromCertificate(cert)
			if err != nil {
				return err
			}

			if names.IsEmpty() {
				log.Println("No Subject Alternative Names")
			} else {
				log.Println(names.String())
			}

			OperationPerformedSuccessfully = true
			return nil
		},
	}
}

// renderReport writes a validation report in the selected output format.
func renderReport(report *trust.Report, log logger.Logger) error {
	if outputJSON {
		data, err := report.ToJSON()
		if err != nil {
			return err
		}
		log.Println(string(data))
		return nil
	}

	log.Println(report.RenderTable())
	log.Println(report.RenderASCIITree())
	return nil
}
