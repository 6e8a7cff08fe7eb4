// Copyright (c) 2024 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package gc provides memory-efficient buffer pooling to reduce garbage
// collection overhead during network I/O operations.
package gc
