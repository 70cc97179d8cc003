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

// Package blocksort provides bounded sorts for a chunk of data fully
// resident in one execution group's local storage. The inputs are small by
// contract (at most a few hundred elements), so the algorithms trade
// asymptotics for short, branch-light code paths.
//
// Sort is not stable and orders by the native < of the element type.
// ByRank and PairsByRank are stable and order by a caller-computed radix
// rank, which is how the sort engine expresses descending order, float
// ordering and restricted bit ranges.
package blocksort

// Element is the set of element types Sort accepts.
type Element interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

const (
	// insertionThreshold: below this, plain insertion sort wins.
	insertionThreshold = 8

	// networkWidth is one sorting-network column; inputs up to twice this
	// size go through the padded merge path.
	networkWidth = 32
)

// Sort sorts data in place, ascending. Equal elements may be reordered.
func Sort[T Element](data []T) {
	n := len(data)
	if n <= 1 {
		return
	}
	if n <= insertionThreshold {
		insertion(data)
		return
	}
	if n <= 2*networkWidth {
		sortPaddedMerge(data)
		return
	}
	insertion(data)
}

// IsSorted reports whether data is ascending.
func IsSorted[T Element](data []T) bool {
	for i := 1; i < len(data); i++ {
		if data[i] < data[i-1] {
			return false
		}
	}
	return true
}

// insertion is a plain insertion sort.
func insertion[T Element](data []T) {
	for i := 1; i < len(data); i++ {
		key := data[i]
		j := i - 1
		for j >= 0 && data[j] > key {
			data[j+1] = data[j]
			j--
		}
		data[j+1] = key
	}
}

// sortPaddedMerge sorts up to 2*networkWidth elements by sorting two
// max-padded columns and bitonic-merging them.
func sortPaddedMerge[T Element](data []T) {
	n := len(data)

	var buf [2 * networkWidth]T
	maxVal := maxValue[T]()
	for i := range buf {
		buf[i] = maxVal
	}
	copy(buf[:networkWidth], data)
	if n > networkWidth {
		copy(buf[networkWidth:], data[networkWidth:n])
	}

	insertion(buf[:networkWidth])
	insertion(buf[networkWidth:])

	// A bitonic sequence needs the second column descending.
	for i, j := networkWidth, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	bitonicMerge(buf[:])

	copy(data, buf[:n])
}

// bitonicMerge merges a bitonic sequence in place. len(data) must be a
// power of two.
func bitonicMerge[T Element](data []T) {
	n := len(data)
	for k := n / 2; k > 0; k /= 2 {
		for i := 0; i < n; i++ {
			j := i ^ k
			if j > i && data[i] > data[j] {
				data[i], data[j] = data[j], data[i]
			}
		}
	}
}

// maxValue returns the maximum representable value for the type, used to
// pad partial network columns.
func maxValue[T Element]() T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return T(any(float32(3.4028235e+38)).(float32))
	case float64:
		return T(any(float64(1.7976931348623157e+308)).(float64))
	case int8:
		return T(any(int8(127)).(int8))
	case int16:
		return T(any(int16(32767)).(int16))
	case int32:
		return T(any(int32(2147483647)).(int32))
	case int64:
		return T(any(int64(9223372036854775807)).(int64))
	case uint8:
		return T(any(uint8(255)).(uint8))
	case uint16:
		return T(any(uint16(65535)).(uint16))
	case uint32:
		return T(any(uint32(4294967295)).(uint32))
	case uint64:
		return T(any(uint64(18446744073709551615)).(uint64))
	}
	return zero
}

// ByRank stably sorts keys in place by ascending rank. ranks and keys are
// parallel; ranks is permuted alongside keys.
func ByRank[K any](ranks []uint64, keys []K) {
	for i := 1; i < len(keys); i++ {
		r, k := ranks[i], keys[i]
		j := i - 1
		for j >= 0 && ranks[j] > r {
			ranks[j+1] = ranks[j]
			keys[j+1] = keys[j]
			j--
		}
		ranks[j+1] = r
		keys[j+1] = k
	}
}

// PairsByRank stably sorts keys and their paired values in place by
// ascending rank.
func PairsByRank[K, V any](ranks []uint64, keys []K, values []V) {
	for i := 1; i < len(keys); i++ {
		r, k, v := ranks[i], keys[i], values[i]
		j := i - 1
		for j >= 0 && ranks[j] > r {
			ranks[j+1] = ranks[j]
			keys[j+1] = keys[j]
			values[j+1] = values[j]
			j--
		}
		ranks[j+1] = r
		keys[j+1] = k
		values[j+1] = v
	}
}
