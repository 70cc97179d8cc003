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
	"errors"
	"fmt"
	"runtime"
)

// ErrInvalidConfig reports a configuration that violates the documented
// invariants (see Config.Validate).
var ErrInvalidConfig = errors.New("segsort: invalid config")

// maxRadixBits bounds the per-pass digit width; each execution group keys
// a histogram of 1<<bits counters.
const maxRadixBits = 12

// SmallSortConfig tunes the batched small-segment path.
type SmallSortConfig struct {
	// Enabled routes segments at or below MaxSegmentLength through the
	// batched resident sort. When false every segment takes the
	// multi-pass path.
	Enabled bool

	// GroupSize is the number of lanes in one small-batch execution group.
	GroupSize int

	// SubgroupSize is the number of lanes in one sub-group; each sub-group
	// owns one segment end-to-end.
	SubgroupSize int

	// ItemsPerLane is how many keys one lane holds resident.
	ItemsPerLane int

	// PartitioningThreshold is the minimum segment count for which
	// classifying segments pays off. Below it, all segments take the
	// multi-pass path.
	PartitioningThreshold int
}

// MaxSegmentLength is the largest key count a sub-group can hold resident;
// segments strictly longer are classified large.
func (c SmallSortConfig) MaxSegmentLength() int {
	return c.ItemsPerLane * c.SubgroupSize
}

// SegmentsPerGroup is how many small segments one execution group packs.
func (c SmallSortConfig) SegmentsPerGroup() int {
	return c.GroupSize / c.SubgroupSize
}

// Config holds the compile-time-style tuning of one sort invocation. The
// zero value is not valid; start from DefaultConfig.
type Config struct {
	// LongRadixBits is the wide digit width, used by most passes.
	LongRadixBits int

	// ShortRadixBits is the narrow digit width, used to absorb leftover
	// bits more cheaply. Invariant: LongRadixBits >= ShortRadixBits > 0.
	ShortRadixBits int

	// SortGroupSize is the lane count of one large-path execution group.
	SortGroupSize int

	SmallSort SmallSortConfig
}

// Capability describes the execution target a default configuration is
// resolved against.
type Capability struct {
	// Name of the detected target, for diagnostics.
	Name string

	// VectorBytes is the usable SIMD register width.
	VectorBytes int

	// Workers is the available hardware parallelism.
	Workers int
}

// DetectCapability inspects the running CPU once per call.
func DetectCapability() Capability {
	return Capability{
		Name:        targetName(),
		VectorBytes: vectorBytes(),
		Workers:     runtime.GOMAXPROCS(0),
	}
}

// DefaultConfig resolves the tuning for a key of the given bit width on
// the detected target. Wider resident capacity is granted on wider-vector
// targets; the digit widths follow the key size so that 32-bit keys take
// 4+0 passes and 64-bit keys 8+0 by default.
func DefaultConfig(keyBits int) Config {
	return DefaultConfigFor(keyBits, DetectCapability())
}

// DefaultConfigFor resolves the tuning for an explicit target descriptor.
func DefaultConfigFor(keyBits int, target Capability) Config {
	itemsPerLane := 4
	if target.VectorBytes >= 64 {
		itemsPerLane = 8
	}
	cfg := Config{
		LongRadixBits:  8,
		ShortRadixBits: 7,
		SortGroupSize:  256,
		SmallSort: SmallSortConfig{
			Enabled:               true,
			GroupSize:             256,
			SubgroupSize:          32,
			ItemsPerLane:          itemsPerLane,
			PartitioningThreshold: 3000,
		},
	}
	if keyBits <= 16 {
		// One wide pass covers half the key; no narrow passes needed.
		cfg.ShortRadixBits = cfg.LongRadixBits
	}
	return cfg
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if c.ShortRadixBits <= 0 || c.LongRadixBits < c.ShortRadixBits {
		return fmt.Errorf("%w: radix bits long=%d short=%d (need long >= short > 0)",
			ErrInvalidConfig, c.LongRadixBits, c.ShortRadixBits)
	}
	if c.LongRadixBits > maxRadixBits {
		return fmt.Errorf("%w: long radix bits %d exceeds %d",
			ErrInvalidConfig, c.LongRadixBits, maxRadixBits)
	}
	if c.SortGroupSize <= 0 {
		return fmt.Errorf("%w: sort group size %d", ErrInvalidConfig, c.SortGroupSize)
	}
	if c.SmallSort.Enabled {
		s := c.SmallSort
		if s.SubgroupSize <= 0 || s.GroupSize < s.SubgroupSize || s.ItemsPerLane <= 0 {
			return fmt.Errorf("%w: small sort group=%d subgroup=%d items=%d",
				ErrInvalidConfig, s.GroupSize, s.SubgroupSize, s.ItemsPerLane)
		}
	}
	return nil
}
