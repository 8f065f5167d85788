// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smrq

// Value is an opaque word-sized payload. Valid user values are any bit
// pattern other than Empty and Taken; the caller is responsible for
// encoding pointers, indices, or small integers into a Value the same
// way existing uintptr-indirect queues in this ecosystem do.
type Value uintptr

const (
	// Empty signals "no value here" — a fresh buffer slot, or the
	// result of popping an observably empty queue.
	Empty Value = 0

	// Taken marks a BatchedLinkedQueue slot a consumer has claimed.
	// Once a slot reads Taken it is never read again.
	Taken Value = ^Value(0)
)
