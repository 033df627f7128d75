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

package mem

import "testing"

func TestMemoryLimitEnforcesHardQuota(t *testing.T) {
	root := Root()
	limit := NewMemoryLimit(root, 100, false)
	if !limit.Allocate(100) {
		t.Fatalf("expected an allocation at exactly the quota to succeed")
	}
	if limit.Allocate(1) {
		t.Fatalf("expected an allocation past the quota to fail")
	}
	limit.Free(50)
	if !limit.Allocate(50) {
		t.Fatalf("expected room to reopen after a Free")
	}
}

// TestSoftQuotaBypassFreeingBypassedBytesDoesNotLoosenParentQuota
// exercises the nesting this allocator exists for: a hard-quota
// MemoryLimit as parent, with a bypass allocator in front of it that
// lets a child exceed the parent's remaining budget by a fixed
// margin. Freeing bytes that only ever lived in the bypass margin
// must never reach the parent, or repeated bypass-then-free cycles
// would erode the parent's accounted usage for memory it never
// actually counted as allocated.
func TestSoftQuotaBypassFreeingBypassedBytesDoesNotLoosenParentQuota(t *testing.T) {
	parent := NewMemoryLimit(Root(), 100, false)
	bypass := NewSoftQuotaBypassingAllocator(parent, 40)

	// Exhaust the parent's quota exactly, so the parent has accounted
	// for every one of its 100 bytes.
	if !bypass.Allocate(100) {
		t.Fatalf("expected the initial allocation to exhaust the parent's quota")
	}
	if got := parent.GetUsage(); got != 100 {
		t.Fatalf("parent usage = %d, want 100", got)
	}

	// The parent has no room left; this allocation can only succeed
	// via the bypass margin, and parent.GetUsage() must not move.
	if !bypass.Allocate(30) {
		t.Fatalf("expected a bypassed allocation within the margin to succeed")
	}
	if got := parent.GetUsage(); got != 100 {
		t.Fatalf("parent usage = %d, want 100 (bypassed allocation must not reach parent)", got)
	}

	// Freeing the bypassed 30 bytes must restore the bypass margin,
	// not the parent's usage, which was never charged for them.
	bypass.Free(30)
	if got := parent.GetUsage(); got != 100 {
		t.Fatalf("parent usage = %d, want 100 after freeing bypassed bytes", got)
	}
	if !bypass.Allocate(30) {
		t.Fatalf("expected the restored bypass margin to admit another 30-byte allocation")
	}

	// Now free everything and confirm the parent's own accounting
	// comes back exactly to zero, never negative or under-counted.
	bypass.Free(130)
	if got := parent.GetUsage(); got != 0 {
		t.Fatalf("parent usage = %d, want 0 after freeing every forwarded byte", got)
	}

	// With the parent back to a clean quota, it must still enforce
	// it: a bypassed-then-forgotten free must not have let the
	// bypass margin silently grow past its original 40-byte size.
	if !bypass.Allocate(100) {
		t.Fatalf("expected a fresh full-quota allocation to succeed")
	}
	if bypass.Allocate(41) {
		t.Fatalf("expected an allocation past quota+bypass to fail")
	}
	if !bypass.Allocate(40) {
		t.Fatalf("expected an allocation exactly at quota+bypass to succeed")
	}
}

func TestSoftQuotaBypassReallocateSharesTheSameAccounting(t *testing.T) {
	parent := NewMemoryLimit(Root(), 10, false)
	bypass := NewSoftQuotaBypassingAllocator(parent, 10)

	if !bypass.Allocate(10) {
		t.Fatalf("expected initial allocation to exhaust the parent's quota")
	}
	// Growing by 10 can only be satisfied via the bypass margin.
	if !bypass.Reallocate(10, 20) {
		t.Fatalf("expected a bypassed growth within the margin to succeed")
	}
	if got := parent.GetUsage(); got != 10 {
		t.Fatalf("parent usage = %d, want 10 (bypassed growth must not reach parent)", got)
	}
	// Shrinking back must replenish the bypass margin rather than
	// under-counting the parent.
	if !bypass.Reallocate(20, 10) {
		t.Fatalf("expected shrinking back to succeed")
	}
	if got := parent.GetUsage(); got != 10 {
		t.Fatalf("parent usage = %d, want 10 after shrinking back", got)
	}
	if !bypass.Reallocate(10, 20) {
		t.Fatalf("expected the replenished bypass margin to admit growth again")
	}
}
