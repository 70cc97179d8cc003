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

// digitPlan is the pass schedule for one invocation: how many digit passes
// run with the wide (long) radix width and how many with the narrow
// (short) one. Long passes run first, short passes absorb the leftover
// bits, so only two pass specializations exist instead of one per pass.
type digitPlan struct {
	iterations int
	long       int
	short      int
	longBits   int
	shortBits  int
}

// planDigitPasses computes the schedule for sorting `bits` key bits.
//
// A uniform wide schedule would waste most of the final pass whenever bits
// is not a multiple of longBits; trading wide passes for narrow ones keeps
// the total processed width close to bits. With longBits == shortBits the
// trade is undefined and no narrow passes are planned.
func planDigitPasses(bits, longBits, shortBits int) digitPlan {
	p := digitPlan{longBits: longBits, shortBits: shortBits}
	p.iterations = (bits + longBits - 1) / longBits
	if diff := longBits - shortBits; diff != 0 && p.iterations > 0 {
		p.short = min(p.iterations, (longBits*p.iterations-bits)/diff)
	}
	p.long = p.iterations - p.short
	return p
}
