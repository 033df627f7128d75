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

// Package mem implements the hierarchical buffer-allocator tree used
// by blocks, arenas, and the external sorter: a root allocator, a
// MemoryLimit that enforces a (hard or soft) quota against a parent,
// and a bypass allocator that allows a bounded overshoot past a
// parent's soft quota.
//
// This mirrors the page-accounting bookkeeping that the VM's memory
// manager performs over a single reserved region, generalized to an
// arbitrary tree of nested accountants so that each operator can hold
// its own quota without a global reservation.
package mem

import (
	"fmt"
	"math"
	"sync"
)

// Allocator is a hierarchical memory accountant. Implementations are
// safe for use only from their owning goroutine (matching the
// single-threaded, cooperative execution model of the rest of the
// library); no internal locking is required for correctness, but a
// mutex is used anyway so that accounting queries (Available,
// GetUsage) from diagnostic/metrics code cannot race with mutation.
type Allocator interface {
	// Allocate accounts for n additional bytes of usage. It returns
	// false if n bytes would exceed the allocator's quota.
	Allocate(n int64) bool
	// Reallocate adjusts accounted usage from oldSize to newSize,
	// returning false if the increase (if any) would exceed quota.
	Reallocate(oldSize, newSize int64) bool
	// Free releases n bytes of previously-accounted usage.
	Free(n int64)
	// Available returns the number of bytes that could still be
	// allocated without exceeding quota, or MaxInt64 if unbounded.
	Available() int64
	// GetUsage returns current accounted usage.
	GetUsage() int64
	// GetQuota returns the allocator's nominal quota, or MaxInt64 if
	// unbounded.
	GetQuota() int64
}

// root is an unbounded allocator; it never rejects an allocation.
type root struct {
	mu    sync.Mutex
	usage int64
}

// Root constructs an allocator with no quota, suitable as the top of
// an allocator tree.
func Root() Allocator {
	return &root{}
}

func (r *root) Allocate(n int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage += n
	return true
}

func (r *root) Reallocate(oldSize, newSize int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage += newSize - oldSize
	return true
}

func (r *root) Free(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage -= n
	if r.usage < 0 {
		r.usage = 0
	}
}

func (r *root) Available() int64 {
	return math.MaxInt64
}

func (r *root) GetUsage() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usage
}

func (r *root) GetQuota() int64 {
	return math.MaxInt64
}

// MemoryLimit enforces a quota against a parent allocator. The soft
// flag is recorded and shown by String, but Allocate and Reallocate
// fail once quota would be exceeded whether soft is true or false.
// Overshoot past a limit comes only from a SoftQuotaBypassingAllocator
// placed in front of it, up to that allocator's bypass margin.
type MemoryLimit struct {
	mu     sync.Mutex
	parent Allocator
	quota  int64
	soft   bool
	usage  int64
}

// NewMemoryLimit constructs a MemoryLimit of the given quota against parent.
func NewMemoryLimit(parent Allocator, quota int64, soft bool) *MemoryLimit {
	return &MemoryLimit{parent: parent, quota: quota, soft: soft}
}

func (m *MemoryLimit) Allocate(n int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.usage+n > m.quota {
		return false
	}
	if !m.parent.Allocate(n) {
		return false
	}
	m.usage += n
	return true
}

func (m *MemoryLimit) Reallocate(oldSize, newSize int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	delta := newSize - oldSize
	if delta > 0 && m.usage+delta > m.quota {
		return false
	}
	if !m.parent.Reallocate(oldSize, newSize) {
		return false
	}
	m.usage += delta
	if m.usage < 0 {
		m.usage = 0
	}
	return true
}

func (m *MemoryLimit) Free(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage -= n
	if m.usage < 0 {
		m.usage = 0
	}
	m.parent.Free(n)
}

func (m *MemoryLimit) Available() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	avail := m.quota - m.usage
	if avail < 0 {
		return 0
	}
	if pa := m.parent.Available(); pa < avail {
		return pa
	}
	return avail
}

func (m *MemoryLimit) GetUsage() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage
}

func (m *MemoryLimit) GetQuota() int64 {
	return m.quota
}

func (m *MemoryLimit) String() string {
	return fmt.Sprintf("MemoryLimit(quota=%d, usage=%d, soft=%v)", m.quota, m.GetUsage(), m.soft)
}

// softQuotaBypass allows allocations to push a parent's soft quota by
// up to `bypass` additional bytes before failing. It is used by the
// buffering sorter to let its in-memory table grow past the nominal
// quota rather than degrading to spilling on every batch.
//
// usage splits into forwarded (bytes actually accounted to parent) and
// the rest (bytes that only ever ate into the bypass margin because
// parent rejected them). Free must give each portion back to where it
// actually came from: forwarding more than forwarded bytes to
// parent.Free would free bytes parent never counted as allocated,
// permanently loosening its quota enforcement.
type softQuotaBypass struct {
	mu        sync.Mutex
	parent    Allocator
	bypass    int64
	usage     int64
	forwarded int64
}

// NewSoftQuotaBypassingAllocator constructs an allocator that permits
// usage to exceed the parent's available budget by up to bypass bytes.
func NewSoftQuotaBypassingAllocator(parent Allocator, bypass int64) Allocator {
	return &softQuotaBypass{parent: parent, bypass: bypass}
}

func (s *softQuotaBypass) allocateLocked(n int64) bool {
	if s.parent.Allocate(n) {
		s.forwarded += n
		s.usage += n
		return true
	}
	// parent rejected; allow it anyway if within the bypass margin
	if n > s.bypass {
		return false
	}
	s.bypass -= n
	s.usage += n
	return true
}

// freeLocked gives back n bytes, preferring to release them from
// whatever is currently only accounted here and not forwarded to
// parent — the margin a bypassed Allocate/Reallocate most recently
// ate into — and only forwards the remainder to parent.Free. This
// matches how callers actually pair calls (a Grow forced into the
// bypass margin is undone by the matching Compact, not by unwinding
// an older, already-forwarded allocation), and it's what keeps a
// bypass-then-free cycle from ever freeing bytes parent never counted
// as allocated in the first place.
func (s *softQuotaBypass) freeLocked(n int64) {
	nonForwarded := s.usage - s.forwarded
	if nonForwarded < 0 {
		nonForwarded = 0
	}
	release := n
	if release > nonForwarded {
		release = nonForwarded
	}
	s.bypass += release
	if forwarded := n - release; forwarded > 0 {
		s.forwarded -= forwarded
		s.parent.Free(forwarded)
	}
	s.usage -= n
	if s.usage < 0 {
		s.usage = 0
	}
}

func (s *softQuotaBypass) Allocate(n int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allocateLocked(n)
}

func (s *softQuotaBypass) Reallocate(oldSize, newSize int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	delta := newSize - oldSize
	if delta <= 0 {
		s.freeLocked(-delta)
		return true
	}
	return s.allocateLocked(delta)
}

func (s *softQuotaBypass) Free(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.freeLocked(n)
}

func (s *softQuotaBypass) Available() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parent.Available() + s.bypass
}

func (s *softQuotaBypass) GetUsage() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

func (s *softQuotaBypass) GetQuota() int64 {
	return s.parent.GetQuota()
}
