// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package batch

import "sort"

// Permutation is a mutable array of row indices, initially the
// identity permutation [0, n). Sort core rearranges it in place so
// that p[i] is the row index that should appear at output position i.
type Permutation struct {
	p []int
}

// NewPermutation builds the identity permutation over n rows.
func NewPermutation(n int) *Permutation {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &Permutation{p: p}
}

func (p *Permutation) Len() int { return len(p.p) }

func (p *Permutation) At(i int) int { return p.p[i] }

func (p *Permutation) Set(i, row int) { p.p[i] = row }

// Slice returns the underlying index slice; callers may read it but
// must treat it as owned by the Permutation.
func (p *Permutation) Slice() []int { return p.p }

// Sort orders p.p[from:to] using less, which compares two elements
// of p.p by position (not by row index): less(a, b) should report
// whether p.p[a] should precede p.p[b]. Sort delegates to
// sort.SliceStable: see spec.md §9 / DESIGN.md for why stability is
// chosen over the non-stable open question.
func (p *Permutation) Sort(from, to int, less func(a, b int) bool) {
	sub := p.p[from:to]
	sort.SliceStable(sub, func(i, j int) bool {
		return less(from+i, from+j)
	})
}

// Partition reorders p.p[from:to] so that all elements satisfying
// pred come first, preserving relative order within each group
// (a stable partition), and returns the count of elements satisfying
// pred.
func (p *Permutation) Partition(from, to int, pred func(i int) bool) int {
	sub := p.p[from:to]
	out := make([]int, 0, len(sub))
	var rest []int
	for i, row := range sub {
		if pred(from + i) {
			out = append(out, row)
		} else {
			rest = append(rest, row)
		}
	}
	n := len(out)
	out = append(out, rest...)
	copy(sub, out)
	return n
}

// IsPermutation reports whether p is a bijection of [0, n): every
// index visited exactly once.
func (p *Permutation) IsPermutation(n int) bool {
	if len(p.p) != n {
		return false
	}
	seen := make([]bool, n)
	for _, row := range p.p {
		if row < 0 || row >= n || seen[row] {
			return false
		}
		seen[row] = true
	}
	return true
}
