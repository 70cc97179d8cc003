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

import (
	"math"
	"math/rand"
	"slices"
	"sort"
	"testing"

	"github.com/ajroetker/go-segsort/segsort/stream"
)

// segmentOffsets builds random segment offsets covering [0, size) with
// lengths in [0, maxLen], the way the device tests shape their inputs.
func segmentOffsets(rng *rand.Rand, size, maxLen int) (begin, end []uint32) {
	off, zeros := 0, 0
	for off < size {
		n := rng.Intn(maxLen + 1)
		if n == 0 {
			zeros++
			if zeros > 2 {
				n, zeros = 1, 0
			}
		} else {
			zeros = 0
		}
		if off+n > size {
			n = size - off
		}
		begin = append(begin, uint32(off))
		end = append(end, uint32(off+n))
		off += n
	}
	return begin, end
}

// refSegments returns the expected output: each segment stably sorted by
// sliced rank, everything else untouched.
func refSegments[K KeyType](keys []K, begin, end []uint32, descending bool, beginBit, endBit int, outside K) []K {
	c := resolveCodec[K]()
	if endBit == 0 {
		endBit = c.bits
	}
	r := slicedRank(c, descending, beginBit, endBit)
	out := make([]K, len(keys))
	for i := range out {
		out[i] = outside
	}
	for s := range begin {
		sub := slices.Clone(keys[begin[s]:end[s]])
		sort.SliceStable(sub, func(i, j int) bool { return r(sub[i]) < r(sub[j]) })
		copy(out[begin[s]:end[s]], sub)
	}
	return out
}

// runSortKeys drives the two-phase protocol end to end on a private
// stream and returns the output buffer, pre-filled with `fill` so
// untouched regions are visible.
func runSortKeys[K KeyType](t *testing.T, keys []K, begin, end []uint32, descending bool, fill K, opts ...Option) []K {
	t.Helper()
	s := stream.New()
	defer s.Close()
	opts = append(opts, OnStream(s))

	out := make([]K, len(keys))
	for i := range out {
		out[i] = fill
	}
	fn := SortKeys[K]
	if descending {
		fn = SortKeysDesc[K]
	}
	var tempBytes int
	if err := fn(nil, &tempBytes, keys, out, begin, end, opts...); err != nil {
		t.Fatalf("sizing failed: %v", err)
	}
	if tempBytes <= 0 {
		t.Fatalf("sizing reported %d bytes", tempBytes)
	}
	temp := make([]byte, tempBytes)
	if err := fn(temp, &tempBytes, keys, out, begin, end, opts...); err != nil {
		t.Fatalf("sort failed: %v", err)
	}
	if err := s.Synchronize(); err != nil {
		t.Fatalf("synchronize failed: %v", err)
	}
	return out
}

func checkSortKeys[K KeyType](t *testing.T, keys []K, begin, end []uint32, descending bool, fill K, opts ...Option) {
	t.Helper()
	got := runSortKeys(t, keys, begin, end, descending, fill, opts...)
	want := refSegments(keys, begin, end, descending, 0, 0, fill)
	if !slices.Equal(got, want) {
		t.Errorf("segment-wise sort mismatch (descending=%v)\n got %v\nwant %v", descending, got, want)
	}
}

// TestSortKeysScenario is the documented keys-only example: segments
// [0,2), [2,3), [3,8) of [6,3,5,4,2,8,1,7] sort to [3,6 | 5 | 1,2,4,7,8].
func TestSortKeysScenario(t *testing.T) {
	keys := []int32{6, 3, 5, 4, 2, 8, 1, 7}
	offsets := []uint32{0, 2, 3, 8}
	got := runSortKeys(t, keys, offsets[:3], offsets[1:], false, int32(0))
	want := []int32{3, 6, 5, 1, 2, 4, 7, 8}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// TestSortPairsDescScenario checks the documented stability rule: the tie
// between the two 1-keys of segment [3,8) keeps input order, so value -1
// (input index 4) precedes value -2 (input index 6).
func TestSortPairsDescScenario(t *testing.T) {
	keys := []int32{6, 3, 5, 4, 1, 8, 1, 7}
	values := []float64{-5, 2, -4, 3, -1, -8, -2, 7}
	offsets := []uint32{0, 2, 3, 8}

	s := stream.New()
	defer s.Close()
	keysOut := make([]int32, len(keys))
	valuesOut := make([]float64, len(values))
	var tempBytes int
	if err := SortPairsDesc(nil, &tempBytes, keys, keysOut, values, valuesOut,
		offsets[:3], offsets[1:], OnStream(s)); err != nil {
		t.Fatalf("sizing failed: %v", err)
	}
	temp := make([]byte, tempBytes)
	if err := SortPairsDesc(temp, &tempBytes, keys, keysOut, values, valuesOut,
		offsets[:3], offsets[1:], OnStream(s)); err != nil {
		t.Fatalf("sort failed: %v", err)
	}
	if err := s.Synchronize(); err != nil {
		t.Fatalf("synchronize failed: %v", err)
	}

	wantKeys := []int32{6, 3, 5, 8, 7, 4, 1, 1}
	wantValues := []float64{-5, 2, -4, -8, 7, 3, -1, -2}
	if !slices.Equal(keysOut, wantKeys) {
		t.Errorf("keys: got %v, want %v", keysOut, wantKeys)
	}
	if !slices.Equal(valuesOut, wantValues) {
		t.Errorf("values: got %v, want %v", valuesOut, wantValues)
	}
}

func testSortKeysRandom[K KeyType](t *testing.T, gen func(*rand.Rand) K) {
	rng := rand.New(rand.NewSource(42))
	sizes := []int{0, 1, 7, 64, 100, 256, 1000, 10000}
	for _, size := range sizes {
		for _, maxLen := range []int{3, 50, 1000} {
			keys := make([]K, size)
			for i := range keys {
				keys[i] = gen(rng)
			}
			begin, end := segmentOffsets(rng, size, maxLen)
			checkSortKeys(t, keys, begin, end, false, gen(rng))
			checkSortKeys(t, keys, begin, end, true, gen(rng))
		}
	}
}

func TestSortKeysRandomInt32(t *testing.T) {
	testSortKeysRandom(t, func(r *rand.Rand) int32 { return r.Int31n(1000000) - 500000 })
}

func TestSortKeysRandomInt64(t *testing.T) {
	testSortKeysRandom(t, func(r *rand.Rand) int64 { return r.Int63n(1000000) - 500000 })
}

func TestSortKeysRandomUint32(t *testing.T) {
	testSortKeysRandom(t, func(r *rand.Rand) uint32 { return r.Uint32() })
}

func TestSortKeysRandomUint8(t *testing.T) {
	testSortKeysRandom(t, func(r *rand.Rand) uint8 { return uint8(r.Intn(256)) })
}

func TestSortKeysRandomFloat32(t *testing.T) {
	testSortKeysRandom(t, func(r *rand.Rand) float32 { return r.Float32()*2000 - 1000 })
}

func TestSortKeysRandomFloat64(t *testing.T) {
	testSortKeysRandom(t, func(r *rand.Rand) float64 { return r.Float64()*2000 - 1000 })
}

// TestSortKeysFloatSpecials pins the radix order of NaN, infinities and
// signed zero.
func TestSortKeysFloatSpecials(t *testing.T) {
	nan := float32(math.NaN())
	negNan := math.Float32frombits(math.Float32bits(nan) | 0x8000_0000)
	keys := []float32{1.5, nan, math.Float32frombits(0x8000_0000) /* -0 */, 0,
		float32(math.Inf(1)), float32(math.Inf(-1)), negNan, -2.5}
	offsets := []uint32{0, uint32(len(keys))}
	got := runSortKeys(t, keys, offsets[:1], offsets[1:], false, float32(0))

	bits := func(f float32) uint32 { return math.Float32bits(f) }
	want := []float32{negNan, float32(math.Inf(-1)), -2.5, math.Float32frombits(0x8000_0000),
		0, 1.5, float32(math.Inf(1)), nan}
	for i := range want {
		if bits(got[i]) != bits(want[i]) {
			t.Fatalf("index %d: got bits %#x, want %#x (got %v want %v)", i, bits(got[i]), bits(want[i]), got, want)
		}
	}
}

// TestSortKeysBitRange restricts comparison to the low bits; keys equal in
// that window must keep input order.
func TestSortKeysBitRange(t *testing.T) {
	keys := []uint32{0x301, 0x101, 0x202, 0x100, 0x001}
	offsets := []uint32{0, 5}
	got := runSortKeys(t, keys, offsets[:1], offsets[1:], false, uint32(0), WithBitRange(0, 4))
	want := refSegments(keys, offsets[:1], offsets[1:], false, 0, 4, 0)
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	// ties on the low nibble keep input order
	wantExact := []uint32{0x100, 0x301, 0x101, 0x001, 0x202}
	if !slices.Equal(got, wantExact) {
		t.Errorf("stability under bit range: got %#v, want %#v", got, wantExact)
	}
}

// TestSortPairsStability sorts many-way ties and checks values keep input
// order per equal key.
func TestSortPairsStability(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const size = 5000
	keys := make([]uint16, size)
	values := make([]int32, size)
	for i := range keys {
		keys[i] = uint16(rng.Intn(8)) // heavy ties
		values[i] = int32(i)
	}
	begin, end := segmentOffsets(rng, size, 700)

	s := stream.New()
	defer s.Close()
	keysOut := make([]uint16, size)
	valuesOut := make([]int32, size)
	var tempBytes int
	if err := SortPairs(nil, &tempBytes, keys, keysOut, values, valuesOut, begin, end, OnStream(s)); err != nil {
		t.Fatalf("sizing failed: %v", err)
	}
	temp := make([]byte, tempBytes)
	if err := SortPairs(temp, &tempBytes, keys, keysOut, values, valuesOut, begin, end, OnStream(s)); err != nil {
		t.Fatalf("sort failed: %v", err)
	}
	if err := s.Synchronize(); err != nil {
		t.Fatalf("synchronize failed: %v", err)
	}

	for seg := range begin {
		b, e := begin[seg], end[seg]
		for i := int(b) + 1; i < int(e); i++ {
			if keysOut[i-1] > keysOut[i] {
				t.Fatalf("segment %d not sorted at %d", seg, i)
			}
			if keysOut[i-1] == keysOut[i] && valuesOut[i-1] >= valuesOut[i] {
				t.Fatalf("segment %d stability violated at %d: values %d, %d",
					seg, i, valuesOut[i-1], valuesOut[i])
			}
			if values[valuesOut[i]] != valuesOut[i] || keys[valuesOut[i]] != keysOut[i] {
				t.Fatalf("segment %d pairing broken at %d", seg, i)
			}
		}
	}
}

// TestSortKeysOutsideUntouched verifies bytes outside every segment stay
// what they were in the output buffer.
func TestSortKeysOutsideUntouched(t *testing.T) {
	keys := []int64{9, 8, 7, 6, 5, 4, 3, 2, 1, 0}
	// two segments with gaps: [1,3) and [6,9)
	begin := []uint32{1, 6}
	end := []uint32{3, 9}
	const fill = int64(-777)
	got := runSortKeys(t, keys, begin, end, false, fill)
	want := refSegments(keys, begin, end, false, 0, 0, fill)
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	for _, i := range []int{0, 3, 4, 5, 9} {
		if got[i] != fill {
			t.Errorf("index %d outside segments overwritten: %v", i, got[i])
		}
	}
}

// TestSortKeysZeroSegments: no segments is a defined no-op.
func TestSortKeysZeroSegments(t *testing.T) {
	keys := []int32{3, 1, 2}
	got := runSortKeys(t, keys, nil, nil, false, int32(-1))
	for i, v := range got {
		if v != -1 {
			t.Errorf("index %d written on zero-segment input: %v", i, v)
		}
	}
}

// TestSortKeysZeroLengthSegments: zero-length segments do no work and no
// harm, including interleaved with real ones.
func TestSortKeysZeroLengthSegments(t *testing.T) {
	keys := []int32{5, 4, 3, 2, 1}
	begin := []uint32{0, 2, 2, 2, 5}
	end := []uint32{2, 2, 2, 5, 5}
	got := runSortKeys(t, keys, begin, end, false, int32(0))
	want := []int32{4, 5, 1, 2, 3}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// TestSortKeysIdempotent: sorting already-sorted data is byte-identical.
func TestSortKeysIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	keys := make([]uint64, 2000)
	for i := range keys {
		keys[i] = rng.Uint64()
	}
	begin, end := segmentOffsets(rng, len(keys), 300)
	once := runSortKeys(t, keys, begin, end, false, uint64(0))
	twice := runSortKeys(t, once, begin, end, false, uint64(0))
	if !slices.Equal(once, twice) {
		t.Error("re-sorting sorted data changed the output")
	}
}

// forceAllSmall routes every segment through the batched path.
func forceAllSmall(maxLen int) Config {
	cfg := DefaultConfigFor(64, Capability{VectorBytes: 16, Workers: 1})
	cfg.SmallSort.PartitioningThreshold = 1
	cfg.SmallSort.SubgroupSize = 8
	cfg.SmallSort.ItemsPerLane = (maxLen + 7) / 8
	cfg.SmallSort.GroupSize = 32
	return cfg
}

// forceAllLarge disables the small path entirely.
func forceAllLarge() Config {
	cfg := DefaultConfigFor(64, Capability{VectorBytes: 16, Workers: 1})
	cfg.SmallSort.Enabled = false
	return cfg
}

// TestSortKeysForcedPaths exercises each kernel shape on its own, with the
// adaptive switch bypassed in both directions.
func TestSortKeysForcedPaths(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	keys := make([]int32, 4000)
	for i := range keys {
		keys[i] = rng.Int31() - 1<<30
	}
	begin, end := segmentOffsets(rng, len(keys), 40)

	t.Run("all_large", func(t *testing.T) {
		checkSortKeys(t, keys, begin, end, false, int32(0), WithConfig(forceAllLarge()))
	})
	t.Run("all_small", func(t *testing.T) {
		checkSortKeys(t, keys, begin, end, false, int32(0), WithConfig(forceAllSmall(41)))
	})
	t.Run("all_small_desc", func(t *testing.T) {
		checkSortKeys(t, keys, begin, end, true, int32(0), WithConfig(forceAllSmall(41)))
	})
	t.Run("adaptive_low_threshold", func(t *testing.T) {
		cfg := DefaultConfigFor(32, Capability{VectorBytes: 16, Workers: 1})
		cfg.SmallSort.PartitioningThreshold = 1
		checkSortKeys(t, keys, begin, end, false, int32(0), WithConfig(cfg))
	})
}

// TestSortKeysBoundaryLength checks segments exactly at the small/large
// capacity sort correctly on both sides of the strict > rule.
func TestSortKeysBoundaryLength(t *testing.T) {
	cfg := DefaultConfigFor(32, Capability{VectorBytes: 16, Workers: 1})
	cfg.SmallSort.PartitioningThreshold = 1
	maxLen := cfg.SmallSort.MaxSegmentLength()

	rng := rand.New(rand.NewSource(19))
	// segment 0: exactly maxLen (small), segment 1: maxLen+1 (large)
	size := maxLen + maxLen + 1
	keys := make([]uint32, size)
	for i := range keys {
		keys[i] = rng.Uint32()
	}
	begin := []uint32{0, uint32(maxLen)}
	end := []uint32{uint32(maxLen), uint32(size)}
	checkSortKeys(t, keys, begin, end, false, uint32(0), WithConfig(cfg))
}

// TestSortKeysDebugSynchronous runs the profiling mode end to end.
func TestSortKeysDebugSynchronous(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	keys := make([]int16, 500)
	for i := range keys {
		keys[i] = int16(rng.Intn(1 << 16))
	}
	begin, end := segmentOffsets(rng, len(keys), 60)
	cfg := DefaultConfigFor(16, Capability{VectorBytes: 16, Workers: 1})
	cfg.SmallSort.PartitioningThreshold = 1
	checkSortKeys(t, keys, begin, end, false, int16(0), WithConfig(cfg), WithDebugSynchronous())
}

// TestSizingDeterminism: identical arguments size identically, and the
// reported size is sufficient.
func TestSizingDeterminism(t *testing.T) {
	keys := make([]int64, 12345)
	out := make([]int64, len(keys))
	begin, end := segmentOffsets(rand.New(rand.NewSource(1)), len(keys), 100)

	var a, b int
	if err := SortKeys(nil, &a, keys, out, begin, end); err != nil {
		t.Fatalf("sizing failed: %v", err)
	}
	if err := SortKeys(nil, &b, keys, out, begin, end); err != nil {
		t.Fatalf("sizing failed: %v", err)
	}
	if a != b {
		t.Errorf("sizing not deterministic: %d vs %d", a, b)
	}
}

// TestSizingSentinel: even a sort needing no scratch reports a nonzero
// size so callers never allocate zero bytes.
func TestSizingSentinel(t *testing.T) {
	keys := NewDoubleBuffer([]int32{3, 1}, make([]int32, 2))
	begin := []uint32{0}
	end := []uint32{2}
	var tempBytes int
	if err := SortKeysBuffer(nil, &tempBytes, keys, begin, end); err != nil {
		t.Fatalf("sizing failed: %v", err)
	}
	if tempBytes <= 0 {
		t.Errorf("sizing reported %d bytes, want > 0", tempBytes)
	}
}

// TestSortKeysBufferForms: the double-buffer entry points leave the sorted
// result in Current() for every pass-parity case.
func TestSortKeysBufferForms(t *testing.T) {
	rng := rand.New(rand.NewSource(29))
	for _, tc := range []struct {
		name     string
		beginBit int
		endBit   int
	}{
		{"full_width", 0, 0},
		{"one_pass", 0, 8},
		{"three_bits", 4, 7},
		{"two_passes", 0, 15},
	} {
		t.Run(tc.name, func(t *testing.T) {
			size := 3000
			input := make([]uint32, size)
			for i := range input {
				input[i] = rng.Uint32()
			}
			begin, end := segmentOffsets(rng, size, 90)

			var opts []Option
			if tc.endBit != 0 {
				opts = append(opts, WithBitRange(tc.beginBit, tc.endBit))
			}
			// slots outside every segment are unspecified in the buffer
			// form, so only segment contents are compared
			want := refSegments(input, begin, end, false, tc.beginBit, tc.endBit, 0)
			s := stream.New()
			defer s.Close()
			opts = append(opts, OnStream(s))

			keys := NewDoubleBuffer(slices.Clone(input), make([]uint32, size))
			var tempBytes int
			fn := SortKeysBuffer[uint32]
			if err := fn(nil, &tempBytes, keys, begin, end, opts...); err != nil {
				t.Fatalf("sizing failed: %v", err)
			}
			temp := make([]byte, tempBytes)
			if err := fn(temp, &tempBytes, keys, begin, end, opts...); err != nil {
				t.Fatalf("sort failed: %v", err)
			}
			if err := s.Synchronize(); err != nil {
				t.Fatalf("synchronize failed: %v", err)
			}
			got := keys.Current()
			for seg := range begin {
				b, e := begin[seg], end[seg]
				if !slices.Equal(got[b:e], want[b:e]) {
					t.Fatalf("segment %d mismatch: got %v, want %v", seg, got[b:e], want[b:e])
				}
			}
		})
	}
}

// TestSortPairsBufferDesc: pairs buffer form swaps keys and values
// together.
func TestSortPairsBufferDesc(t *testing.T) {
	input := []int32{6, 3, 5, 4, 1, 8, 1, 7}
	inputValues := []int64{-5, 2, -4, 3, -1, -8, -2, 7}
	offsets := []uint32{0, 2, 3, 8}

	s := stream.New()
	defer s.Close()
	keys := NewDoubleBuffer(slices.Clone(input), make([]int32, len(input)))
	values := NewDoubleBuffer(slices.Clone(inputValues), make([]int64, len(inputValues)))

	var tempBytes int
	if err := SortPairsDescBuffer(nil, &tempBytes, keys, values,
		offsets[:3], offsets[1:], OnStream(s)); err != nil {
		t.Fatalf("sizing failed: %v", err)
	}
	temp := make([]byte, tempBytes)
	if err := SortPairsDescBuffer(temp, &tempBytes, keys, values,
		offsets[:3], offsets[1:], OnStream(s)); err != nil {
		t.Fatalf("sort failed: %v", err)
	}
	if err := s.Synchronize(); err != nil {
		t.Fatalf("synchronize failed: %v", err)
	}

	wantKeys := []int32{6, 3, 5, 8, 7, 4, 1, 1}
	wantValues := []int64{-5, 2, -4, -8, 7, 3, -1, -2}
	if !slices.Equal(keys.Current(), wantKeys) {
		t.Errorf("keys: got %v, want %v", keys.Current(), wantKeys)
	}
	if !slices.Equal(values.Current(), wantValues) {
		t.Errorf("values: got %v, want %v", values.Current(), wantValues)
	}
}

// TestSortKeysArgumentErrors: caller errors detected up front.
func TestSortKeysArgumentErrors(t *testing.T) {
	keys := []float32{1, 2}
	out := make([]float32, 2)
	offsets := []uint32{0, 2}
	var n int

	if err := SortKeys(nil, &n, keys, out, offsets[:1], offsets[1:], WithBitRange(0, 16)); err == nil {
		t.Error("float bit range accepted")
	}
	ikeys := []uint32{1, 2}
	iout := make([]uint32, 2)
	if err := SortKeys(nil, &n, ikeys, iout, offsets[:1], offsets[1:], WithBitRange(8, 8)); err == nil {
		t.Error("empty bit range accepted")
	}
	if err := SortKeys(nil, &n, ikeys, iout, offsets[:1], offsets[1:], WithBitRange(0, 33)); err == nil {
		t.Error("oversized bit range accepted")
	}
	if err := SortKeys(nil, &n, ikeys, iout, offsets, nil); err == nil {
		t.Error("short end offsets accepted")
	}
	if err := SortKeys(nil, &n, ikeys, iout[:1], offsets[:1], offsets[1:]); err == nil {
		t.Error("short output accepted")
	}
	bad := DefaultConfig(32)
	bad.ShortRadixBits = 0
	if err := SortKeys(nil, &n, ikeys, iout, offsets[:1], offsets[1:], WithConfig(bad)); err == nil {
		t.Error("invalid config accepted")
	}
}
