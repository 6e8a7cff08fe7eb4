// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package trust implements the certificate chain validator: chain building
// against the private root-of-trust, per-element status flags with selective
// suppression of revocation-availability failures, and a concurrent
// per-fingerprint verdict cache.
package trust
