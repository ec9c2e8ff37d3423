package emu

import "encoding/binary"

// Memory layout mirrors spec.md §3.2: a ROM region at 0x0000_0000 used for
// compiled shader code and the Q16.16 runtime helpers, and a RAM region at
// 0x8000_0000 holding a downward-growing stack and an upward-growing
// struct-return buffer arena. Grounded on machine_bus.go's ROM/RAM split
// and its little-endian, bounds-checked word access via encoding/binary.
const (
	RomBase = 0x0000_0000
	RamBase = 0x8000_0000

	// DefaultRamSize is large enough for a downward stack plus an
	// upward struct-return arena for any reasonably sized shader.
	DefaultRamSize = 1 << 20 // 1 MiB

	// StackReserve is the tail of RAM reserved for the stack; the
	// struct-return buffer allocator refuses to grow into it
	// (spec.md §5, "Shared resources: Emulator memory").
	StackReserve = 64 * 1024
)

// Memory is the hart's address space: a ROM region and a RAM region, nothing
// else is mapped (no MMIO — the emulator backend intercepts syscalls in Go
// rather than servicing them via memory-mapped registers).
type Memory struct {
	Rom []byte
	Ram []byte

	// heapTop is the struct-return arena's high-water mark, relative to
	// RamBase. It never reclaims individual allocations; callers reset
	// it between top-level calls (internal/glsl/rvexec).
	heapTop uint32
}

// NewMemory allocates a Memory with rom preloaded at RomBase and a RAM
// region of ramSize bytes (rounded up to DefaultRamSize if smaller than
// twice StackReserve so the stack-reserve invariant is satisfiable).
func NewMemory(rom []byte, ramSize int) *Memory {
	if ramSize < StackReserve*2 {
		ramSize = DefaultRamSize
	}
	return &Memory{Rom: rom, Ram: make([]byte, ramSize)}
}

func (m *Memory) region(addr uint32, size uint32) (buf []byte, off uint32, ok bool) {
	if addr < uint32(len(m.Rom)) && addr+size <= uint32(len(m.Rom)) {
		return m.Rom, addr, true
	}
	if addr >= RamBase {
		rel := addr - RamBase
		if rel+size <= uint32(len(m.Ram)) {
			return m.Ram, rel, true
		}
	}
	return nil, 0, false
}

func (m *Memory) checkAlign(addr uint32, size uint32) error {
	mis := addr % size
	if mis != 0 {
		return &memFault{kind: TrapUnalignedAccess, addr: addr}
	}
	return nil
}

// Read8/Read16/Read32 and Write8/Write16/Write32 implement bounds- and
// alignment-checked little-endian access (spec.md §3.2 invariants).

func (m *Memory) Read8(addr uint32) (uint8, error) {
	buf, off, ok := m.region(addr, 1)
	if !ok {
		return 0, &memFault{kind: TrapInvalidMemoryAccess, addr: addr}
	}
	return buf[off], nil
}

func (m *Memory) Write8(addr uint32, v uint8) error {
	buf, off, ok := m.region(addr, 1)
	if !ok {
		return &memFault{kind: TrapInvalidMemoryAccess, addr: addr}
	}
	buf[off] = v
	return nil
}

func (m *Memory) Read16(addr uint32) (uint16, error) {
	if err := m.checkAlign(addr, 2); err != nil {
		return 0, err
	}
	buf, off, ok := m.region(addr, 2)
	if !ok {
		return 0, &memFault{kind: TrapInvalidMemoryAccess, addr: addr}
	}
	return binary.LittleEndian.Uint16(buf[off:]), nil
}

func (m *Memory) Write16(addr uint32, v uint16) error {
	if err := m.checkAlign(addr, 2); err != nil {
		return err
	}
	buf, off, ok := m.region(addr, 2)
	if !ok {
		return &memFault{kind: TrapInvalidMemoryAccess, addr: addr}
	}
	binary.LittleEndian.PutUint16(buf[off:], v)
	return nil
}

func (m *Memory) Read32(addr uint32) (uint32, error) {
	if err := m.checkAlign(addr, 4); err != nil {
		return 0, err
	}
	buf, off, ok := m.region(addr, 4)
	if !ok {
		return 0, &memFault{kind: TrapInvalidMemoryAccess, addr: addr}
	}
	return binary.LittleEndian.Uint32(buf[off:]), nil
}

func (m *Memory) Write32(addr uint32, v uint32) error {
	if err := m.checkAlign(addr, 4); err != nil {
		return err
	}
	buf, off, ok := m.region(addr, 4)
	if !ok {
		return &memFault{kind: TrapInvalidMemoryAccess, addr: addr}
	}
	binary.LittleEndian.PutUint32(buf[off:], v)
	return nil
}

// ReadBytes returns n raw bytes at addr with no alignment requirement,
// used for instruction fetch (the C extension permits 2-byte-aligned
// instruction addresses regardless of the 4-byte natural word size).
func (m *Memory) ReadBytes(addr uint32, n int) ([]byte, error) {
	buf, off, ok := m.region(addr, uint32(n))
	if !ok {
		return nil, &memFault{kind: TrapInvalidMemoryAccess, addr: addr}
	}
	return buf[off : off+uint32(n)], nil
}

// AllocStructReturn advances the heap high-water mark by size bytes
// (rounded to 4) and returns the allocated address, refusing to cross into
// the reserved stack tail (spec.md §5).
func (m *Memory) AllocStructReturn(size uint32) (uint32, error) {
	size = (size + 3) &^ 3
	limit := uint32(len(m.Ram)) - StackReserve
	if m.heapTop+size > limit {
		return 0, &memFault{kind: TrapInvalidMemoryAccess, addr: RamBase + m.heapTop}
	}
	addr := RamBase + m.heapTop
	m.heapTop += size
	return addr, nil
}

// ResetArena resets the struct-return high-water mark to zero. Called
// between top-level GlslExecutable calls (not within one call, so that a
// function's own sub-calls can all still address buffers allocated by
// their caller).
func (m *Memory) ResetArena() { m.heapTop = 0 }

// InitialStackPointer returns the address a fresh call frame's sp should
// start at: the top of RAM.
func (m *Memory) InitialStackPointer() uint32 {
	return RamBase + uint32(len(m.Ram))
}
