// Package output implements the channel allocator/flusher interface
// spec.md §1 treats as an external collaborator (output hardware drivers),
// plus one concrete reference implementation, LogProvider.
package output

// ChannelHandle is an opaque handle to one allocated output channel range.
type ChannelHandle uint32

// Provider is the interface output-kind node runtimes drive. An output
// runtime allocates channels the first time a fixture requests a window
// and releases them on output destroy — release must
// be explicit (spec.md §5: "the provider may hold external hardware
// state").
type Provider interface {
	Allocate(universe uint32, startCh, chCount uint32) (ChannelHandle, error)
	Release(h ChannelHandle) error
	// Window returns a direct mutable view into the channel buffer for h;
	// callers write pixel-derived values directly into it.
	Window(h ChannelHandle) ([]uint16, error)
	Flush(h ChannelHandle) error
}
