package output

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// MaxChannels bounds the fixed-size channel table, mirroring the teacher's
// CoprocessorManager's fixed-size [7]*CoprocWorker table indexed by kind
// rather than a dynamically growing map.
const MaxChannels = 256

type channelSlot struct {
	allocated bool
	universe  uint32
	startCh   uint32
	buf       []uint16
}

// LogProvider is the reference output.Provider: a fixed-size, mutex-guarded
// channel table that logs writes instead of driving real hardware,
// grounded on the teacher's CoprocessorManager worker-table pattern
// (coprocessor_manager.go: workers [7]*CoprocWorker, single mu sync.Mutex).
type LogProvider struct {
	mu      sync.Mutex
	slots   [MaxChannels]channelSlot
	logger  *log.Logger
}

// NewLogProvider creates a LogProvider that logs through logger (component
// "output" is added by the caller via logger.With).
func NewLogProvider(logger *log.Logger) *LogProvider {
	return &LogProvider{logger: logger}
}

func (p *LogProvider) component() *log.Logger {
	if p.logger == nil {
		return log.Default()
	}
	return p.logger
}

func (p *LogProvider) Allocate(universe, startCh, chCount uint32) (ChannelHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.slots {
		if !p.slots[i].allocated {
			p.slots[i] = channelSlot{
				allocated: true,
				universe:  universe,
				startCh:   startCh,
				buf:       make([]uint16, chCount),
			}
			p.component().Debug("channel allocated", "handle", i, "universe", universe, "start_ch", startCh, "count", chCount)
			return ChannelHandle(i), nil
		}
	}
	return 0, fmt.Errorf("output: no free channel slots (max %d)", MaxChannels)
}

func (p *LogProvider) Release(h ChannelHandle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(h) >= MaxChannels || !p.slots[h].allocated {
		return fmt.Errorf("output: handle %d not allocated", h)
	}
	p.component().Debug("channel released", "handle", h)
	p.slots[h] = channelSlot{}
	return nil
}

func (p *LogProvider) Window(h ChannelHandle) ([]uint16, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(h) >= MaxChannels || !p.slots[h].allocated {
		return nil, fmt.Errorf("output: handle %d not allocated", h)
	}
	return p.slots[h].buf, nil
}

func (p *LogProvider) Flush(h ChannelHandle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(h) >= MaxChannels || !p.slots[h].allocated {
		return fmt.Errorf("output: handle %d not allocated", h)
	}
	s := p.slots[h]
	p.component().Debug("flush", "handle", h, "universe", s.universe, "start_ch", s.startCh, "channels", len(s.buf))
	return nil
}
