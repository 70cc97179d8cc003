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
	"time"

	"github.com/ajroetker/go-segsort/segsort/stream"
)

// launchMultiPass submits the multi-pass digit sort kernel: one execution
// group per segment, each running every planned pass over its whole
// segment. With nil indices the group id is the segment id (the uniform,
// unpartitioned shape); otherwise groups map through the classified index
// sequence.
func launchMultiPass[K KeyType, V any](
	s *stream.Stream,
	name string,
	indices []uint32,
	groups int,
	a sortArgs[K, V],
	toOutput bool,
	plan digitPlan,
	bits int,
	rank func(K) uint64,
	debug bool,
) error {
	start := time.Now()
	err := s.Launch(stream.Kernel{
		Name:   name,
		Groups: groups,
		Run: func(group int) error {
			seg := group
			if indices != nil {
				seg = int(indices[group])
			}
			begin := int(a.beginOffsets[seg])
			end := int(a.endOffsets[seg])
			if end <= begin {
				return nil // zero passes, no I/O
			}
			sortSegment(a, begin, end, toOutput, plan, bits, rank)
			return nil
		},
	})
	if err != nil {
		return err
	}
	if debug {
		return debugSync(s, name, groups, start)
	}
	return nil
}

// sortSegment runs the full pass schedule over one segment: per pass a
// digit histogram over the remaining bit window, an exclusive prefix sum
// for the per-digit output offsets, and a stable scatter. Buffers
// alternate between tmp and output so that the final pass lands where the
// parity bookkeeping promised.
func sortSegment[K KeyType, V any](
	a sortArgs[K, V],
	begin, end int,
	toOutput bool,
	plan digitPlan,
	bits int,
	rank func(K) uint64,
) {
	srcK, srcV := a.keysInput, a.valuesInput
	dstIsOutput := toOutput

	var counts [1 << maxRadixBits]uint32

	bit := 0
	for it := 0; it < plan.iterations; it++ {
		passBits := plan.shortBits
		if it < plan.long {
			passBits = plan.longBits
		}
		// the schedule may overshoot; the final pass narrows to what is left
		if rem := bits - bit; passBits > rem {
			passBits = rem
		}
		buckets := 1 << passBits
		mask := uint64(buckets - 1)
		shift := uint(bit)

		dstK, dstV := a.keysTmp, a.valuesTmp
		if dstIsOutput {
			dstK, dstV = a.keysOutput, a.valuesOutput
		}

		clear(counts[:buckets])
		for i := begin; i < end; i++ {
			counts[(rank(srcK[i])>>shift)&mask]++
		}
		var sum uint32
		for d := 0; d < buckets; d++ {
			c := counts[d]
			counts[d] = sum
			sum += c
		}
		for i := begin; i < end; i++ {
			d := (rank(srcK[i]) >> shift) & mask
			at := begin + int(counts[d])
			dstK[at] = srcK[i]
			if a.withValues {
				dstV[at] = srcV[i]
			}
			counts[d]++
		}

		bit += passBits
		srcK, srcV = dstK, dstV
		dstIsOutput = !dstIsOutput
	}
}
