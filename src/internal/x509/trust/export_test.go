// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package trust

import (
	"context"
	"crypto/x509"
)

// SetEvaluateForTest replaces the chain evaluation procedure so tests can
// observe when chain building actually runs (e.g. to assert that cache hits
// skip it).
func (v *Validator) SetEvaluateForTest(fn func(ctx context.Context, leaf *x509.Certificate) ([]ChainElement, Flags)) {
	v.evaluate = fn
}
