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

	"github.com/ajroetker/go-segsort/segsort/stream"
)

var (
	// ErrInvalidBitRange reports a bit range outside
	// 0 <= beginBit < endBit <= key width.
	ErrInvalidBitRange = errors.New("segsort: invalid bit range")

	// ErrFloatBitRange reports a non-default bit range on a
	// floating-point key type, which is unsupported.
	ErrFloatBitRange = errors.New("segsort: bit ranges are not supported for float keys")

	// ErrShortBuffer reports an output or value buffer shorter than the
	// key input.
	ErrShortBuffer = errors.New("segsort: buffer shorter than input")

	// ErrShortOffsets reports an end-offsets sequence shorter than the
	// begin-offsets sequence.
	ErrShortOffsets = errors.New("segsort: end offsets shorter than begin offsets")
)

// callOptions is the resolved per-call option set.
type callOptions struct {
	beginBit int
	endBit   int // 0 means the full key width
	config   *Config
	stream   *stream.Stream
	debug    bool
}

// Option adjusts one sort invocation.
type Option func(*callOptions)

// WithBitRange restricts key comparison to bits [begin, end) of the key,
// counted from the least significant bit. Integer keys only.
func WithBitRange(begin, end int) Option {
	return func(o *callOptions) {
		o.beginBit = begin
		o.endBit = end
	}
}

// WithConfig overrides the default configuration for this call. The sizing
// and executing phases of one sort must use the same configuration.
func WithConfig(cfg Config) Option {
	return func(o *callOptions) {
		o.config = &cfg
	}
}

// OnStream submits the sort's kernels to s instead of the default stream.
func OnStream(s *stream.Stream) Option {
	return func(o *callOptions) {
		o.stream = s
	}
}

// WithDebugSynchronous forces a stream synchronization after every internal
// step and logs per-step parameters and timings at debug level. Intended
// for profiling; it trades latency for visibility.
func WithDebugSynchronous() Option {
	return func(o *callOptions) {
		o.debug = true
	}
}

func resolveOptions(opts []Option) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SortKeys sorts each segment of keysInput ascending into keysOutput.
//
// Segments are the half-open ranges [beginOffsets[i], endOffsets[i]); the
// two sequences may alias one offsets slice as offsets[:n] and offsets[1:].
// Keys outside every segment are left untouched in keysOutput.
//
// Two-phase protocol: when temp is nil the exact scratch requirement is
// written to *tempBytes and nothing is sorted; call again with a buffer of
// at least that many bytes and identical arguments. Kernels are submitted
// asynchronously; results are ready once the stream has been synchronized.
func SortKeys[K KeyType](
	temp []byte, tempBytes *int,
	keysInput, keysOutput []K,
	beginOffsets, endOffsets []uint32,
	opts ...Option,
) error {
	var ignored bool
	return sortImpl(temp, tempBytes, sortArgs[K, struct{}]{
		keysInput:    keysInput,
		keysOutput:   keysOutput,
		beginOffsets: beginOffsets,
		endOffsets:   endOffsets,
	}, &ignored, resolveOptions(opts))
}

// SortKeysDesc is SortKeys with each segment sorted descending.
func SortKeysDesc[K KeyType](
	temp []byte, tempBytes *int,
	keysInput, keysOutput []K,
	beginOffsets, endOffsets []uint32,
	opts ...Option,
) error {
	var ignored bool
	return sortImpl(temp, tempBytes, sortArgs[K, struct{}]{
		keysInput:    keysInput,
		keysOutput:   keysOutput,
		beginOffsets: beginOffsets,
		endOffsets:   endOffsets,
		descending:   true,
	}, &ignored, resolveOptions(opts))
}

// SortPairs sorts each segment of keysInput ascending into keysOutput,
// carrying valuesInput into valuesOutput alongside. The sort is stable:
// values of equal keys keep their input order.
func SortPairs[K KeyType, V any](
	temp []byte, tempBytes *int,
	keysInput, keysOutput []K,
	valuesInput, valuesOutput []V,
	beginOffsets, endOffsets []uint32,
	opts ...Option,
) error {
	var ignored bool
	return sortImpl(temp, tempBytes, sortArgs[K, V]{
		keysInput:    keysInput,
		keysOutput:   keysOutput,
		valuesInput:  valuesInput,
		valuesOutput: valuesOutput,
		withValues:   true,
		beginOffsets: beginOffsets,
		endOffsets:   endOffsets,
	}, &ignored, resolveOptions(opts))
}

// SortPairsDesc is SortPairs with each segment sorted descending by key.
func SortPairsDesc[K KeyType, V any](
	temp []byte, tempBytes *int,
	keysInput, keysOutput []K,
	valuesInput, valuesOutput []V,
	beginOffsets, endOffsets []uint32,
	opts ...Option,
) error {
	var ignored bool
	return sortImpl(temp, tempBytes, sortArgs[K, V]{
		keysInput:    keysInput,
		keysOutput:   keysOutput,
		valuesInput:  valuesInput,
		valuesOutput: valuesOutput,
		withValues:   true,
		descending:   true,
		beginOffsets: beginOffsets,
		endOffsets:   endOffsets,
	}, &ignored, resolveOptions(opts))
}

// SortKeysBuffer is the double-buffer form of SortKeys: keys.Current() is
// the input, both sides may be clobbered, and after the stream completes
// keys.Current() references the sorted result. No key-sized scratch is
// required.
func SortKeysBuffer[K KeyType](
	temp []byte, tempBytes *int,
	keys *DoubleBuffer[K],
	beginOffsets, endOffsets []uint32,
	opts ...Option,
) error {
	var isResultInOutput bool
	err := sortImpl(temp, tempBytes, sortArgs[K, struct{}]{
		keysInput:    keys.Current(),
		keysTmp:      keys.Current(),
		keysOutput:   keys.Alternate(),
		beginOffsets: beginOffsets,
		endOffsets:   endOffsets,
	}, &isResultInOutput, resolveOptions(opts))
	if temp != nil && isResultInOutput {
		keys.Swap()
	}
	return err
}

// SortKeysDescBuffer is SortKeysBuffer with descending order.
func SortKeysDescBuffer[K KeyType](
	temp []byte, tempBytes *int,
	keys *DoubleBuffer[K],
	beginOffsets, endOffsets []uint32,
	opts ...Option,
) error {
	var isResultInOutput bool
	err := sortImpl(temp, tempBytes, sortArgs[K, struct{}]{
		keysInput:    keys.Current(),
		keysTmp:      keys.Current(),
		keysOutput:   keys.Alternate(),
		descending:   true,
		beginOffsets: beginOffsets,
		endOffsets:   endOffsets,
	}, &isResultInOutput, resolveOptions(opts))
	if temp != nil && isResultInOutput {
		keys.Swap()
	}
	return err
}

// SortPairsBuffer is the double-buffer form of SortPairs; both handles are
// swapped together so keys and values stay paired.
func SortPairsBuffer[K KeyType, V any](
	temp []byte, tempBytes *int,
	keys *DoubleBuffer[K], values *DoubleBuffer[V],
	beginOffsets, endOffsets []uint32,
	opts ...Option,
) error {
	var isResultInOutput bool
	err := sortImpl(temp, tempBytes, sortArgs[K, V]{
		keysInput:    keys.Current(),
		keysTmp:      keys.Current(),
		keysOutput:   keys.Alternate(),
		valuesInput:  values.Current(),
		valuesTmp:    values.Current(),
		valuesOutput: values.Alternate(),
		withValues:   true,
		beginOffsets: beginOffsets,
		endOffsets:   endOffsets,
	}, &isResultInOutput, resolveOptions(opts))
	if temp != nil && isResultInOutput {
		keys.Swap()
		values.Swap()
	}
	return err
}

// SortPairsDescBuffer is SortPairsBuffer with descending order by key.
func SortPairsDescBuffer[K KeyType, V any](
	temp []byte, tempBytes *int,
	keys *DoubleBuffer[K], values *DoubleBuffer[V],
	beginOffsets, endOffsets []uint32,
	opts ...Option,
) error {
	var isResultInOutput bool
	err := sortImpl(temp, tempBytes, sortArgs[K, V]{
		keysInput:    keys.Current(),
		keysTmp:      keys.Current(),
		keysOutput:   keys.Alternate(),
		valuesInput:  values.Current(),
		valuesTmp:    values.Current(),
		valuesOutput: values.Alternate(),
		withValues:   true,
		descending:   true,
		beginOffsets: beginOffsets,
		endOffsets:   endOffsets,
	}, &isResultInOutput, resolveOptions(opts))
	if temp != nil && isResultInOutput {
		keys.Swap()
		values.Swap()
	}
	return err
}
