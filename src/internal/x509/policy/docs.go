// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package policy implements the handshake-time trust decision: the
// validation callback invoked by the TLS transport, the IP-SAN hostname
// exception, and an HTTP client wrapper that wires the callback into a
// standard transport.
package policy
