// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509certs provides decoding, encoding, and fingerprinting of
// X.509 certificates in PEM, DER, and PKCS7 formats.
package x509certs
