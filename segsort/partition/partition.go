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

// Package partition provides a parallel one-sided binary partition of an
// index domain: given a predicate over [0, n), it writes the matching
// indices to the front of an output sequence, the rest behind them, and
// reports the match count.
//
// It follows the same two-phase temporary-storage convention as the sort
// engine: invoked with a nil scratch buffer it only reports the exact byte
// requirement.
package partition

import (
	"errors"
	"time"
	"unsafe"

	logging "github.com/ipfs/go-log/v2"

	"github.com/ajroetker/go-segsort/segsort/stream"
)

var log = logging.Logger("segsort/partition")

// debugSync forces completion of the preceding kernel and logs its timing.
func debugSync(s *stream.Stream, name string, groups int, start time.Time) error {
	if err := s.Synchronize(); err != nil {
		return err
	}
	log.Debugw(name, "groups", groups, "ms", float64(time.Since(start).Microseconds())/1000.0)
	return nil
}

// chunkSize is the index range counted and scattered by one execution
// group. Scratch requirements are a deterministic function of n through
// this constant.
const chunkSize = 2048

// storageAlignment keeps scratch regions aligned the same way the sort
// engine aligns its own.
const storageAlignment = 256

// ErrOutputTooSmall reports an indices slice shorter than n.
var ErrOutputTooSmall = errors.New("partition: indices slice shorter than input domain")

func alignUp(n int) int {
	return (n + storageAlignment - 1) &^ (storageAlignment - 1)
}

func chunksFor(n int) int {
	return (n + chunkSize - 1) / chunkSize
}

// StorageSize returns the scratch bytes Indices requires for an n-sized
// index domain.
func StorageSize(n int) int {
	// one uint32 slot per chunk plus one for the running total
	return alignUp((chunksFor(n) + 1) * 4)
}

// Indices partitions the index domain [0, n) by pred into indices: matching
// indices first (count written to *count), the remaining indices after
// them. Relative order inside each class follows chunk order but is not
// part of the contract.
//
// When temp is nil, the required scratch size is written to *tempBytes and
// no work is submitted. Otherwise three kernels are submitted to s; *count
// is valid only after s.Synchronize() returns successfully.
func Indices(
	temp []byte,
	tempBytes *int,
	n int,
	pred func(index int) bool,
	indices []uint32,
	count *uint32,
	s *stream.Stream,
	debugSynchronous bool,
) error {
	if temp == nil {
		*tempBytes = StorageSize(n)
		return nil
	}
	if n == 0 {
		*count = 0
		return nil
	}
	if len(indices) < n {
		return ErrOutputTooSmall
	}

	chunks := chunksFor(n)
	// counts[c] holds chunk c's matched count, then after the scan kernel
	// its exclusive prefix; counts[chunks] holds the total.
	counts := unsafe.Slice((*uint32)(unsafe.Pointer(&temp[0])), chunks+1)

	start := time.Now()
	err := s.Launch(stream.Kernel{
		Name:   "partition:count",
		Groups: chunks,
		Run: func(group int) error {
			begin := group * chunkSize
			end := min(begin+chunkSize, n)
			var c uint32
			for i := begin; i < end; i++ {
				if pred(i) {
					c++
				}
			}
			counts[group] = c
			return nil
		},
	})
	if err != nil {
		return err
	}
	if debugSynchronous {
		if err := debugSync(s, "partition:count", chunks, start); err != nil {
			return err
		}
	}

	start = time.Now()
	err = s.Launch(stream.Kernel{
		Name:   "partition:scan",
		Groups: 1,
		Run: func(int) error {
			var sum uint32
			for c := 0; c < chunks; c++ {
				v := counts[c]
				counts[c] = sum
				sum += v
			}
			counts[chunks] = sum
			*count = sum
			return nil
		},
	})
	if err != nil {
		return err
	}
	if debugSynchronous {
		if err := debugSync(s, "partition:scan", 1, start); err != nil {
			return err
		}
	}

	start = time.Now()
	err = s.Launch(stream.Kernel{
		Name:   "partition:scatter",
		Groups: chunks,
		Run: func(group int) error {
			begin := group * chunkSize
			end := min(begin+chunkSize, n)
			total := counts[chunks]
			sel := counts[group]
			// indices before this chunk that did not match
			rej := total + uint32(begin) - counts[group]
			for i := begin; i < end; i++ {
				if pred(i) {
					indices[sel] = uint32(i)
					sel++
				} else {
					indices[rej] = uint32(i)
					rej++
				}
			}
			return nil
		},
	})
	if err != nil {
		return err
	}
	if debugSynchronous {
		return debugSync(s, "partition:scatter", chunks, start)
	}
	return nil
}
