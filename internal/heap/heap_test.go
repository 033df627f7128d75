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

package heap

import "testing"

func TestLaneHeapPopsInAscendingOrder(t *testing.T) {
	values := []int{5, 3, 8, 1, 9, 2}
	less := func(a, b int) bool { return values[a] < values[b] }

	lanes := make([]int, len(values))
	for i := range lanes {
		lanes[i] = i
	}
	h := NewLaneHeap(lanes, less)

	var got []int
	for h.Len() > 0 {
		got = append(got, values[h.Pop()])
	}
	want := []int{1, 2, 3, 5, 8, 9}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestLaneHeapFixAfterTopChanges(t *testing.T) {
	values := []int{1, 4, 2}
	less := func(a, b int) bool { return values[a] < values[b] }
	h := NewLaneHeap([]int{0, 1, 2}, less)

	if got := values[h.Top()]; got != 1 {
		t.Fatalf("Top() = %d, want 1", got)
	}
	values[h.Top()] = 10 // simulate the top lane advancing past a smaller head row
	h.Fix()
	if got := values[h.Top()]; got != 2 {
		t.Fatalf("Top() after Fix() = %d, want 2", got)
	}
}
