// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package truststore holds the process-wide private root-of-trust: an
// immutable set of trusted root certificates loaded once from embedded PEM
// material, with precomputed fingerprints for O(1) identity checks.
package truststore
