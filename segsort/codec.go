// Copyright 2025 go-segsort Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package segsort

import "math"

// keyCodec maps a key type onto an unsigned rank whose natural order is
// the key's ascending order. Digit passes and resident comparisons both
// work on ranks, never on raw keys.
//
// Integer keys: unsigned keys rank as themselves, signed keys with the
// sign bit flipped. Float keys: positive values get the sign bit set,
// negative values get all bits flipped, so the rank order runs
// -NaN < -Inf < ... < -0 < +0 < ... < +Inf < +NaN.
type keyCodec[K KeyType] struct {
	// bits is the comparable width of the key type.
	bits int

	// rank returns the ascending-order rank, significant in the low `bits`.
	rank func(K) uint64

	// float keys reject non-default bit ranges.
	isFloat bool
}

func resolveCodec[K KeyType]() keyCodec[K] {
	var zero K
	var c keyCodec[K]
	switch any(zero).(type) {
	case uint8:
		c.bits = 8
		c.rank = func(k K) uint64 { return uint64(any(k).(uint8)) }
	case uint16:
		c.bits = 16
		c.rank = func(k K) uint64 { return uint64(any(k).(uint16)) }
	case uint32:
		c.bits = 32
		c.rank = func(k K) uint64 { return uint64(any(k).(uint32)) }
	case uint64:
		c.bits = 64
		c.rank = func(k K) uint64 { return any(k).(uint64) }
	case int8:
		c.bits = 8
		c.rank = func(k K) uint64 { return uint64(uint8(any(k).(int8)) ^ 0x80) }
	case int16:
		c.bits = 16
		c.rank = func(k K) uint64 { return uint64(uint16(any(k).(int16)) ^ 0x8000) }
	case int32:
		c.bits = 32
		c.rank = func(k K) uint64 { return uint64(uint32(any(k).(int32)) ^ 0x8000_0000) }
	case int64:
		c.bits = 64
		c.rank = func(k K) uint64 { return uint64(any(k).(int64)) ^ 0x8000_0000_0000_0000 }
	case float32:
		c.bits = 32
		c.isFloat = true
		c.rank = func(k K) uint64 {
			b := math.Float32bits(any(k).(float32))
			if b&0x8000_0000 != 0 {
				return uint64(^b)
			}
			return uint64(b | 0x8000_0000)
		}
	case float64:
		c.bits = 64
		c.isFloat = true
		c.rank = func(k K) uint64 {
			b := math.Float64bits(any(k).(float64))
			if b&0x8000_0000_0000_0000 != 0 {
				return ^b
			}
			return b | 0x8000_0000_0000_0000
		}
	}
	return c
}

// slicedRank builds the per-key digit source for one invocation: the
// ascending rank, complemented for descending order, shifted down to
// beginBit and masked to the compared width.
func slicedRank[K KeyType](c keyCodec[K], descending bool, beginBit, endBit int) func(K) uint64 {
	var descMask uint64
	if descending {
		descMask = ^uint64(0)
	}
	shift := uint(beginBit)
	mask := ^uint64(0)
	if bits := endBit - beginBit; bits < 64 {
		mask = (uint64(1) << bits) - 1
	}
	rank := c.rank
	return func(k K) uint64 {
		return ((rank(k) ^ descMask) >> shift) & mask
	}
}
