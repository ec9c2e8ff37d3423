package nodes

import (
	"github.com/lightplayer/lightplayer/internal/model"
	"github.com/lightplayer/lightplayer/internal/output"
)

type channelKey struct {
	universe, start, count uint32
}

// OutputRuntime owns the channel handles it has allocated from the shared
// output.Provider. Channels are allocated lazily, the first time a fixture
// asks for a given (universe, start, count) window, and cached by that key
// for the runtime's lifetime; all of them are released together on
// Destroy (spec.md §4.6's "only reliable place to release output
// resources").
type OutputRuntime struct {
	driver   model.OutputDriverKind
	gpioPin  uint32
	provider output.Provider
	slots    map[channelKey]output.ChannelHandle
}

// NewOutputRuntime builds a runtime from an output node's config.
func NewOutputRuntime(cfg model.OutputConfig) *OutputRuntime {
	return &OutputRuntime{driver: cfg.Driver, gpioPin: cfg.GpioPin, slots: map[channelKey]output.ChannelHandle{}}
}

// Init records the shared provider; no channels are allocated until a
// fixture actually requests a window.
func (o *OutputRuntime) Init(ictx *InitContext) error {
	o.provider = ictx.Output
	return nil
}

// Window returns the channel buffer for (universe, startCh, chCount),
// allocating it on first use.
func (o *OutputRuntime) Window(universe, startCh, chCount uint32) ([]uint16, error) {
	key := channelKey{universe, startCh, chCount}
	h, ok := o.slots[key]
	if !ok {
		var err error
		h, err = o.provider.Allocate(universe, startCh, chCount)
		if err != nil {
			return nil, err
		}
		o.slots[key] = h
	}
	return o.provider.Window(h)
}

// Render is the tick-time flush step (spec.md §4.5 step 3): it is only
// invoked for outputs whose state_ver equals the current frame, so every
// call here means some fixture wrote into this output this frame.
func (o *OutputRuntime) Render(_ RenderContext) error {
	for _, h := range o.slots {
		if err := o.provider.Flush(h); err != nil {
			return err
		}
	}
	return nil
}

// Destroy releases every channel this output ever allocated.
func (o *OutputRuntime) Destroy(p output.Provider) error {
	for key, h := range o.slots {
		if err := p.Release(h); err != nil {
			return err
		}
		delete(o.slots, key)
	}
	return nil
}
