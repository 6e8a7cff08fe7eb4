// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509san provides an immutable, comparable value type for a
// certificate's Subject Alternative Names, extracted from the SAN extension
// (OID 2.5.29.17) or built from explicit name lists.
package x509san
