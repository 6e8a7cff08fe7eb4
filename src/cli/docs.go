// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli provides the command-line interface for the TLS trust
// validator: offline certificate validation, live server probing, and SAN
// inspection. All trust decisions live in the internal packages; this
// package is glue.
package cli
