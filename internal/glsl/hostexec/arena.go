package hostexec

import "encoding/binary"

// arena is a host-side byte-addressable scratch space standing in for the
// emulator's RAM: Alloca bump-allocates from it and never reclaims (a call
// frame's arena is simply dropped to the Go garbage collector once the
// top-level call returns, unlike rvexec's explicit high-water-mark reset).
type arena struct{ buf []byte }

func (a *arena) alloc(size int32) int32 {
	if size < 0 {
		size = 0
	}
	addr := int32(len(a.buf))
	a.buf = append(a.buf, make([]byte, size)...)
	return addr
}

func (a *arena) load32(addr int32) int32 {
	return int32(binary.LittleEndian.Uint32(a.buf[addr:]))
}

func (a *arena) store32(addr, v int32) {
	binary.LittleEndian.PutUint32(a.buf[addr:], uint32(v))
}
