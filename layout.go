// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smrq

// pad is cache line padding to prevent false sharing between the hot
// atomic fields (head, tail, hazard slots) of a queue struct.
type pad [64]byte

// padShort pads out a cache line after an 8-byte field.
type padShort [64 - 8]byte
