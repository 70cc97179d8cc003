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

	logging "github.com/ipfs/go-log/v2"

	"github.com/ajroetker/go-segsort/segsort/partition"
	"github.com/ajroetker/go-segsort/segsort/stream"
)

var log = logging.Logger("segsort")

// sortArgs is the canonical argument form every public entry point adapts
// into: plain-buffer calls leave keysTmp nil, double-buffer calls pass
// their current side as both input and tmp.
type sortArgs[K KeyType, V any] struct {
	keysInput, keysTmp, keysOutput    []K
	valuesInput, valuesTmp, valuesOutput []V
	withValues                        bool
	descending                        bool
	beginOffsets, endOffsets          []uint32
}

// sortImpl is the generic core behind all eight entry points. With a nil
// temp it runs the sizing phase only; otherwise it submits the sort's
// kernels to the stream and returns without waiting for them, setting
// *isResultInOutput from pass parity for the double-buffer adapters.
func sortImpl[K KeyType, V any](
	temp []byte, tempBytes *int,
	a sortArgs[K, V],
	isResultInOutput *bool,
	opt callOptions,
) error {
	codec := resolveCodec[K]()

	beginBit, endBit := opt.beginBit, opt.endBit
	if endBit == 0 {
		endBit = codec.bits
	}
	if beginBit < 0 || beginBit >= endBit || endBit > codec.bits {
		return ErrInvalidBitRange
	}
	if codec.isFloat && (beginBit != 0 || endBit != codec.bits) {
		return ErrFloatBitRange
	}

	var cfg Config
	if opt.config != nil {
		cfg = *opt.config
	} else {
		cfg = DefaultConfig(codec.bits)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	size := len(a.keysInput)
	segments := len(a.beginOffsets)
	if len(a.endOffsets) < segments {
		return ErrShortOffsets
	}
	if len(a.keysOutput) < size {
		return ErrShortBuffer
	}
	if a.withValues && (len(a.valuesInput) < size || len(a.valuesOutput) < size) {
		return ErrShortBuffer
	}

	withDoubleBuffer := a.keysTmp != nil
	bits := endBit - beginBit
	plan := planDigitPasses(bits, cfg.LongRadixBits, cfg.ShortRadixBits)
	toOutput := withDoubleBuffer || (plan.iterations-1)%2 == 0
	*isResultInOutput = (plan.iterations%2 == 0) != toOutput

	maxSmall := cfg.SmallSort.MaxSegmentLength()
	doPartitioning := cfg.SmallSort.Enabled && segments >= cfg.SmallSort.PartitioningThreshold

	keysBytes := alignUp(size * sizeOf[K]())
	valuesBytes := 0
	if a.withValues {
		valuesBytes = alignUp(size * sizeOf[V]())
	}
	indicesBytes := alignUp(segments * 4)
	countBytes := alignUp(4)

	if temp == nil {
		total := 0
		if !withDoubleBuffer {
			total += keysBytes + valuesBytes
		}
		if doPartitioning {
			total += indicesBytes + countBytes + partition.StorageSize(segments)
		}
		if total == 0 {
			total = minStorageSize
		}
		*tempBytes = total
		return nil
	}

	if segments == 0 {
		return nil
	}

	s := opt.stream
	if s == nil {
		s = stream.Default()
	}

	if opt.debug {
		log.Debugw("segmented radix sort",
			"size", size,
			"segments", segments,
			"begin_bit", beginBit,
			"end_bit", endBit,
			"bits", bits,
			"iterations", plan.iterations,
			"long_iterations", plan.long,
			"short_iterations", plan.short,
			"do_partitioning", doPartitioning,
			"max_small_segment_length", maxSmall,
			"storage_size", len(temp),
			"target", targetName(),
		)
	}

	ar := arena{buf: temp}
	if !withDoubleBuffer {
		a.keysTmp = viewAs[K](ar.take(size*sizeOf[K]()), size)
		if a.withValues {
			a.valuesTmp = viewAs[V](ar.take(size*sizeOf[V]()), size)
		}
	}

	rank := slicedRank(codec, a.descending, beginBit, endBit)
	beginOffsets, endOffsets := a.beginOffsets, a.endOffsets

	if !doPartitioning {
		return launchMultiPass(s, "segmented_sort", nil, segments, a, toOutput, plan, bits, rank, opt.debug)
	}

	largeIndices := viewAs[uint32](ar.take(segments*4), segments)
	largeCountOut := &viewAs[uint32](ar.take(4), 1)[0]
	partStorage := ar.take(partition.StorageSize(segments))

	selector := func(i int) bool {
		return int(endOffsets[i]-beginOffsets[i]) > maxSmall
	}
	var partBytes int
	if err := partition.Indices(partStorage, &partBytes, segments, selector,
		largeIndices, largeCountOut, s, opt.debug); err != nil {
		return err
	}
	// The classification count steers kernel shape, so it is read back
	// before the sort kernels are shaped and submitted.
	if err := s.Synchronize(); err != nil {
		return err
	}
	largeCount := int(*largeCountOut)

	if largeCount > 0 {
		err := launchMultiPass(s, "segmented_sort:large_segments",
			largeIndices[:largeCount], largeCount, a, toOutput, plan, bits, rank, opt.debug)
		if err != nil {
			return err
		}
	}
	if smallCount := segments - largeCount; smallCount > 0 {
		err := launchSmallBatch(s, largeIndices[largeCount:segments], smallCount,
			a, *isResultInOutput, cfg.SmallSort, codec, rank, beginBit == 0 && endBit == codec.bits, opt.debug)
		if err != nil {
			return err
		}
	}
	return nil
}

// debugSync forces completion of the preceding kernel and logs its timing,
// mirroring the per-step visibility of the debug-synchronous mode.
func debugSync(s *stream.Stream, name string, groups int, start time.Time) error {
	if err := s.Synchronize(); err != nil {
		return err
	}
	log.Debugw(name, "groups", groups, "ms", float64(time.Since(start).Microseconds())/1000.0)
	return nil
}
