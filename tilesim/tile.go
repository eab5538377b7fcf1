// Package tilesim provides an in-memory model of a MAGIA compute tile:
// the event unit, DMA, and synchronization unit register files, the L1
// and L2 windows, and cycle-driven device completion. It implements
// both mmio.Bus and eu.Suspender, so the drivers run against it
// unmodified.
//
// The model is completion-accurate, not cycle-accurate: devices flip
// their status and sticky bits after a configurable latency, and the
// matrix engine computes nothing.
package tilesim

import (
	"fmt"

	"github.com/eapache/queue"

	"github.com/luca24balboni/MAGIA-EventUnit/dma"
	"github.com/luca24balboni/MAGIA-EventUnit/eu"
)

// Tile is the simulated tile. It must be driven from a single
// goroutine, matching the single thread of control the real tile has.
type Tile struct {
	cycle uint64

	buffer  uint32
	mask    uint32
	irqMask uint32
	swMask  uint32

	l1 []byte
	l2 []byte

	channels [2]*channel
	engine   engineModel
	syncUnit syncModel

	fifo    *queue.Queue
	scratch map[uint32]uint32

	injections []injection

	maxBlockCycles uint64
}

type injection struct {
	at   uint64
	bits uint32
}

// A Builder configures and creates simulated tiles.
type Builder struct {
	l1Size         uint32
	l2Size         uint32
	dmaLatency     uint64
	engineLatency  uint64
	barrierLatency uint64
	maxBlockCycles uint64
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		l1Size:         1 << 20,
		l2Size:         1 << 20,
		dmaLatency:     20,
		engineLatency:  100,
		barrierLatency: 30,
		maxBlockCycles: 1_000_000,
	}
}

// WithL1Size sets the size of the local memory window.
func (b Builder) WithL1Size(n uint32) Builder {
	b.l1Size = n
	return b
}

// WithL2Size sets the size of the external memory window.
func (b Builder) WithL2Size(n uint32) Builder {
	b.l2Size = n
	return b
}

// WithDMALatency sets the cycles a DMA transfer stays in flight.
func (b Builder) WithDMALatency(cycles uint64) Builder {
	b.dmaLatency = cycles
	return b
}

// WithMatMulLatency sets the cycles the matrix engine stays busy.
func (b Builder) WithMatMulLatency(cycles uint64) Builder {
	b.engineLatency = cycles
	return b
}

// WithBarrierLatency sets the cycles an aggregation round takes.
func (b Builder) WithBarrierLatency(cycles uint64) Builder {
	b.barrierLatency = cycles
	return b
}

// Build creates the Tile.
func (b Builder) Build() *Tile {
	t := &Tile{
		l1:             make([]byte, b.l1Size),
		l2:             make([]byte, b.l2Size),
		fifo:           queue.New(),
		scratch:        make(map[uint32]uint32),
		maxBlockCycles: b.maxBlockCycles,
	}

	for i := range t.channels {
		t.channels[i] = &channel{nextID: 1, latency: b.dmaLatency}
	}
	t.engine.latency = b.engineLatency
	t.syncUnit.latency = b.barrierLatency

	return t
}

// Cycle returns the current simulated cycle.
func (t *Tile) Cycle() uint64 {
	return t.cycle
}

// L1 exposes the local memory window.
func (t *Tile) L1() []byte {
	return t.l1
}

// L2 exposes the external memory window.
func (t *Tile) L2() []byte {
	return t.l2
}

// Raise sets sticky buffer bits as hardware completion would, and
// enqueues the bits on the SoC event FIFO.
func (t *Tile) Raise(bits uint32) {
	fresh := bits &^ t.buffer
	t.buffer |= bits
	for bit := 0; bit < 32; bit++ {
		if fresh&(1<<bit) != 0 {
			t.fifo.Add(uint32(1 << bit))
		}
	}
}

// CompleteAt schedules bits to be raised once the tile reaches the
// given absolute cycle.
func (t *Tile) CompleteAt(cycle uint64, bits uint32) {
	if cycle <= t.cycle {
		t.Raise(bits)
		return
	}
	t.injections = append(t.injections, injection{at: cycle, bits: bits})
}

// StartMatMul models offloading one job to the matrix engine: the busy
// event raises immediately and the done event after the engine latency.
func (t *Tile) StartMatMul() {
	t.Raise(eu.MatMulBusyMask)
	t.engine.doneAt = t.cycle + t.engine.latency
	t.engine.inFlight = true
}

// InjectBarrierError makes the next aggregation round settle with the
// error event instead of done.
func (t *Tile) InjectBarrierError() {
	t.syncUnit.injectError = true
}

// Advance steps the tile by n cycles, applying every device completion
// that falls due.
func (t *Tile) Advance(n uint64) {
	for i := uint64(0); i < n; i++ {
		t.cycle++
		t.step()
	}
}

func (t *Tile) step() {
	kept := t.injections[:0]
	for _, inj := range t.injections {
		if inj.at <= t.cycle {
			t.Raise(inj.bits)
		} else {
			kept = append(kept, inj)
		}
	}
	t.injections = kept

	for i, ch := range t.channels {
		t.stepChannel(dma.Direction(i), ch)
	}

	if t.engine.inFlight && t.engine.doneAt <= t.cycle {
		t.engine.inFlight = false
		t.Raise(eu.MatMulDoneMask)
	}

	if t.syncUnit.inFlight && t.syncUnit.doneAt <= t.cycle {
		t.syncUnit.inFlight = false
		if t.syncUnit.injectError {
			t.syncUnit.injectError = false
			t.Raise(eu.BarrierErrMask)
		} else {
			t.Raise(eu.BarrierDoneMask)
		}
	}
}

// Idle implements eu.Suspender by advancing the tile clock.
func (t *Tile) Idle(cycles uint32) {
	t.Advance(uint64(cycles))
}

// BlockUntilInterrupt implements eu.Suspender. The core resumes as
// soon as an interrupt-enabled event is pending; an already-pending
// event prevents blocking entirely. A wait that no completion can ever
// end is a caller configuration bug, so the model panics after a guard
// limit instead of hanging.
func (t *Tile) BlockUntilInterrupt() {
	start := t.cycle
	for t.buffer&t.irqMask == 0 {
		if t.cycle-start >= t.maxBlockCycles {
			panic(fmt.Sprintf(
				"tilesim: blocked %d cycles with irq mask 0x%08x and no "+
					"completion in sight", t.maxBlockCycles, t.irqMask))
		}
		t.Advance(1)
	}
}
