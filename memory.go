package armboot

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"golang.org/x/sys/unix"
)

// ZeroStride is the number of bytes cleared per zeroizer iteration,
// matching the paired 64-bit zero store the boot path uses.
const ZeroStride = 16

var (
	cachedPageSize int
	cachedPageMask uint64 // For fast alignment checks: addr & mask == 0
	pageSizeOnce   sync.Once
)

// pageSize returns the system page size, cached for performance
func pageSize() int {
	pageSizeOnce.Do(func() {
		cachedPageSize = unix.Getpagesize()
		cachedPageMask = uint64(cachedPageSize - 1)
	})
	return cachedPageSize
}

// isPageAligned returns true if addr is page-aligned (fast path)
func isPageAligned(addr uint64) bool {
	pageSizeOnce.Do(func() {
		cachedPageSize = unix.Getpagesize()
		cachedPageMask = uint64(cachedPageSize - 1)
	})
	return addr&cachedPageMask == 0
}

// slice resolves a guest-physical range to the backing RAM, validating
// bounds the way the MMU-less early-boot environment cannot.
func (m *Machine) slice(addr uint64, n int) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("armboot: machine is nil")
	}
	if m.closedNow() {
		return nil, ErrMachineClosed
	}
	if n < 0 {
		return nil, fmt.Errorf("armboot: negative length %d: %w", n, ErrOutOfRange)
	}
	if uint64(n) > math.MaxUint64-addr {
		return nil, fmt.Errorf("armboot: guest address range would overflow: %w", ErrOutOfRange)
	}
	base, size := m.cfg.RAMBase, m.cfg.RAMSize
	if addr < base || addr+uint64(n) > base+size {
		return nil, fmt.Errorf("armboot: access [0x%x, 0x%x) outside guest RAM [0x%x, 0x%x): %w",
			addr, addr+uint64(n), base, base+size, ErrOutOfRange)
	}
	off := addr - base
	return m.ram[off : off+uint64(n)], nil
}

// ReadAt reads guest-physical memory. Offsets are guest-physical
// addresses, not slice offsets, so a machine with RAM based above zero
// is addressed the same way the hardware would be.
func (m *Machine) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("armboot: negative offset %d: %w", off, ErrOutOfRange)
	}
	src, err := m.slice(uint64(off), len(p))
	if err != nil {
		return 0, err
	}
	recordMemRead()
	return copy(p, src), nil
}

// WriteAt writes guest-physical memory from the host side, e.g. to
// load an image or dirty the zero-initialized region before a boot.
// Host-side pokes are not attributed to any core.
func (m *Machine) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("armboot: negative offset %d: %w", off, ErrOutOfRange)
	}
	dst, err := m.slice(uint64(off), len(p))
	if err != nil {
		return 0, err
	}
	recordMemWrite()
	return copy(dst, p), nil
}

var (
	_ io.ReaderAt = (*Machine)(nil)
	_ io.WriterAt = (*Machine)(nil)
)

func (m *Machine) readUint32(addr uint64) (uint32, error) {
	b, err := m.slice(addr, 4)
	if err != nil {
		return 0, err
	}
	recordMemRead()
	return binary.LittleEndian.Uint32(b), nil
}

func (m *Machine) readUint64(addr uint64) (uint64, error) {
	b, err := m.slice(addr, 8)
	if err != nil {
		return 0, err
	}
	recordMemRead()
	return binary.LittleEndian.Uint64(b), nil
}

func (m *Machine) writeUint64(addr uint64, v uint64) error {
	b, err := m.slice(addr, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, v)
	recordMemWrite()
	return nil
}

// Core-attributed memory operations. Every store the boot sequence
// performs goes through these, which is what makes the "parked cores
// write nothing" property checkable.

func (c *Core) loadUint64(addr uint64) (uint64, error) {
	return c.m.readUint64(addr)
}

// storeZeroPair clears ZeroStride bytes at addr, the model of the
// paired zero-register store the zeroing loop issues.
func (c *Core) storeZeroPair(addr uint64) error {
	b, err := c.m.slice(addr, ZeroStride)
	if err != nil {
		return err
	}
	for i := range b {
		b[i] = 0
	}
	c.mu.Lock()
	c.memWrites++
	c.mu.Unlock()
	recordMemWrite()
	return nil
}

// storeUint32 is the model of the 32-bit store the timer probe uses to
// persist the calibrated frequency.
func (c *Core) storeUint32(addr uint64, v uint32) error {
	b, err := c.m.slice(addr, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	c.mu.Lock()
	c.memWrites++
	c.mu.Unlock()
	recordMemWrite()
	return nil
}
