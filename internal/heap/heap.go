// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

// Package heap orders the live lane indices of a k-way merge by a
// cross-lane comparator, the same sift-up/sift-down algorithm the
// teacher's generic heap.FixSlice/PushSlice/PopSlice/OrderSlice use,
// narrowed here to int indices and a bound Less func rather than kept
// generic, since extsort's merge cursor is this package's only caller
// and always operates on lane indices.
package heap

// LaneHeap holds a min-heap of lane indices ordered by Less, the
// cross-lane comparator that reads each lane's current buffered head
// row.
type LaneHeap struct {
	lanes []int
	Less  func(a, b int) bool
}

// NewLaneHeap builds a LaneHeap over lanes, heap-ordering them in place.
func NewLaneHeap(lanes []int, less func(a, b int) bool) *LaneHeap {
	h := &LaneHeap{lanes: lanes, Less: less}
	for i := len(h.lanes) - 1; i >= 0; i-- {
		h.siftDown(i)
		h.siftUp(i)
	}
	return h
}

func (h *LaneHeap) Len() int { return len(h.lanes) }

// Top returns the lane index currently ordered first, without removing it.
func (h *LaneHeap) Top() int { return h.lanes[0] }

// Fix restores the heap invariant after the top lane's head row changes
// (its position advanced) without it becoming exhausted.
func (h *LaneHeap) Fix() {
	h.siftDown(0)
	h.siftUp(0)
}

// Pop removes and returns the lane index currently ordered first.
func (h *LaneHeap) Pop() int {
	ret := h.lanes[0]
	h.lanes[0], h.lanes = h.lanes[len(h.lanes)-1], h.lanes[:len(h.lanes)-1]
	if len(h.lanes) > 0 {
		h.siftDown(0)
	}
	return ret
}

func (h *LaneHeap) siftUp(index int) {
	for index > 0 {
		p := (index - 1) / 2
		if h.Less(h.lanes[p], h.lanes[index]) {
			break
		}
		h.lanes[p], h.lanes[index] = h.lanes[index], h.lanes[p]
		index = p
	}
}

func (h *LaneHeap) siftDown(index int) {
	for {
		left := (index * 2) + 1
		right := left + 1
		if left >= len(h.lanes) {
			break
		}
		c := left
		if len(h.lanes) > right && h.Less(h.lanes[right], h.lanes[left]) {
			c = right
		}
		if h.Less(h.lanes[index], h.lanes[c]) {
			break
		}
		h.lanes[c], h.lanes[index] = h.lanes[index], h.lanes[c]
		index = c
	}
}
