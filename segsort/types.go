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

// Floats is a constraint for floating-point key types.
type Floats interface {
	~float32 | ~float64
}

// SignedInts is a constraint for signed integer key types.
type SignedInts interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// UnsignedInts is a constraint for unsigned integer key types.
type UnsignedInts interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Integers is a constraint for all integer key types.
type Integers interface {
	SignedInts | UnsignedInts
}

// KeyType is the set of sortable key types: fixed-width arithmetic types
// whose bit patterns a radix digit pass can examine.
type KeyType interface {
	Floats | Integers
}
