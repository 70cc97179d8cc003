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

	"github.com/ajroetker/go-segsort/segsort/blocksort"
	"github.com/ajroetker/go-segsort/segsort/stream"
)

// launchSmallBatch submits the batched small-segment kernel. Each
// execution group packs SegmentsPerGroup small segments, one per sub-group
// slot; every slot loads its whole segment into group-local storage, sorts
// it there in a single macro-pass, and stores it straight to the side the
// multi-pass path will finish in. Zero-length segments keep their slot but
// do no work.
func launchSmallBatch[K KeyType, V any](
	s *stream.Stream,
	indices []uint32,
	smallCount int,
	a sortArgs[K, V],
	writeToOutput bool,
	cfg SmallSortConfig,
	codec keyCodec[K],
	rank func(K) uint64,
	fullBitRange bool,
	debug bool,
) error {
	perGroup := cfg.SegmentsPerGroup()
	groups := (smallCount + perGroup - 1) / perGroup
	maxLen := cfg.MaxSegmentLength()

	// Integer keys compared over their full width sort identically by
	// value and by rank, and without values stability is unobservable, so
	// the resident sorting network applies. Float keys stay on the rank
	// path for NaN and -0 ordering.
	networkPath := !codec.isFloat && fullBitRange && !a.descending && !a.withValues

	dstK, dstV := a.keysTmp, a.valuesTmp
	if writeToOutput {
		dstK, dstV = a.keysOutput, a.valuesOutput
	}

	start := time.Now()
	err := s.Launch(stream.Kernel{
		Name:   "segmented_sort:small_segments",
		Groups: groups,
		Run: func(group int) error {
			keysLocal := make([]K, maxLen)
			var ranksLocal []uint64
			var valuesLocal []V
			if !networkPath {
				ranksLocal = make([]uint64, maxLen)
			}
			if a.withValues {
				valuesLocal = make([]V, maxLen)
			}

			base := group * perGroup
			slots := min(perGroup, smallCount-base)
			for slot := 0; slot < slots; slot++ {
				seg := int(indices[base+slot])
				begin := int(a.beginOffsets[seg])
				end := int(a.endOffsets[seg])
				n := end - begin
				if n == 0 {
					continue
				}

				kl := keysLocal[:n]
				copy(kl, a.keysInput[begin:end])
				switch {
				case networkPath:
					blocksort.Sort(kl)
				case a.withValues:
					rl := ranksLocal[:n]
					for i, k := range kl {
						rl[i] = rank(k)
					}
					vl := valuesLocal[:n]
					copy(vl, a.valuesInput[begin:end])
					blocksort.PairsByRank(rl, kl, vl)
					copy(dstV[begin:end], vl)
				default:
					rl := ranksLocal[:n]
					for i, k := range kl {
						rl[i] = rank(k)
					}
					blocksort.ByRank(rl, kl)
				}
				copy(dstK[begin:end], kl)
			}
			return nil
		},
	})
	if err != nil {
		return err
	}
	if debug {
		return debugSync(s, "segmented_sort:small_segments", groups, start)
	}
	return nil
}
