// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Command tls-trust-validator validates TLS server certificates against an
// embedded private root-of-trust, with relaxed IP-SAN hostname matching and
// a cached chain-validation verdict per certificate.
package main
