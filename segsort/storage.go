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

import "unsafe"

const (
	// storageAlignment: every region carved out of the caller's scratch
	// buffer starts on this boundary, so typed views stay aligned for any
	// key or value type.
	storageAlignment = 256

	// minStorageSize is reported instead of zero so callers never attempt
	// a literal empty allocation and then pass nil again by accident.
	minStorageSize = 4
)

func alignUp(n int) int {
	return (n + storageAlignment - 1) &^ (storageAlignment - 1)
}

// arena carves aligned regions out of one caller-provided scratch buffer.
// Carving past the end panics; providing at least the byte count reported
// by the sizing phase is a documented precondition.
type arena struct {
	buf []byte
	off int
}

func (a *arena) take(n int) []byte {
	if n == 0 {
		return nil
	}
	b := a.buf[a.off : a.off+n]
	a.off += alignUp(n)
	return b
}

// viewAs reinterprets a scratch region as a typed slice of n elements.
func viewAs[T any](b []byte, n int) []T {
	if n == 0 || len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}

// sizeOf is the element byte size of T.
func sizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}
