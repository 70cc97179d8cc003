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

// DoubleBuffer is a pair of equally sized buffers with a tracked current
// side. The buffer-handle sort entry points read Current as input, may
// clobber both sides, and leave Current referencing the sorted result,
// swapping the descriptor rather than copying data when the result lands
// in the alternate side.
//
// Ownership of both sides passes to the sort call for its duration.
type DoubleBuffer[T any] struct {
	bufs    [2][]T
	current int
}

// NewDoubleBuffer builds a double buffer whose current side is `current`.
// Both sides must have the same length.
func NewDoubleBuffer[T any](current, alternate []T) *DoubleBuffer[T] {
	return &DoubleBuffer[T]{bufs: [2][]T{current, alternate}}
}

// Current returns the side holding the authoritative data.
func (d *DoubleBuffer[T]) Current() []T {
	return d.bufs[d.current]
}

// Alternate returns the other side.
func (d *DoubleBuffer[T]) Alternate() []T {
	return d.bufs[d.current^1]
}

// Swap flips which side is current. It moves no data.
func (d *DoubleBuffer[T]) Swap() {
	d.current ^= 1
}
