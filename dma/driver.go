// Package dma drives the tile's bidirectional DMA engine and tracks
// transfer completion through per-channel transfer identifiers.
package dma

import (
	"github.com/luca24balboni/MAGIA-EventUnit/eu"
	"github.com/luca24balboni/MAGIA-EventUnit/mmio"
)

// Hook positions invoked by the Driver.
var (
	HookPosIssue  = &eu.HookPos{Name: "TicketIssue"}
	HookPosRetire = &eu.HookPos{Name: "TicketRetire"}
)

// A Ticket correlates an issued transfer with its eventual completion.
// IDs increase monotonically per direction and wrap at 32 bits.
type Ticket struct {
	Dir Direction
	ID  uint32
}

// Driver programs the DMA register files and matches completions back
// to tickets. Waiting is built on the event unit's wait primitives.
type Driver struct {
	eu.HookableBase

	bus  mmio.Bus
	unit *eu.Unit
}

// A Builder configures and creates DMA drivers.
type Builder struct {
	bus  mmio.Bus
	unit *eu.Unit
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{}
}

// WithBus sets the bus the register files are reached through.
func (b Builder) WithBus(bus mmio.Bus) Builder {
	b.bus = bus
	return b
}

// WithEventUnit sets the event unit used for completion waits.
func (b Builder) WithEventUnit(u *eu.Unit) Builder {
	b.unit = u
	return b
}

// Build creates the Driver.
func (b Builder) Build() *Driver {
	if b.bus == nil {
		panic("dma: building a driver without a bus")
	}
	if b.unit == nil {
		panic("dma: building a driver without an event unit")
	}
	return &Driver{bus: b.bus, unit: b.unit}
}

func (d *Driver) read(dir Direction, offset uint32) uint32 {
	return d.bus.Read32(dir.Base() + offset)
}

func (d *Driver) write(dir Direction, offset uint32, v uint32) {
	d.bus.Write32(dir.Base()+offset, v)
}

// InitEvents enables both directions' completion events, optionally
// allowing them to wake a suspended core.
func (d *Driver) InitEvents(irq bool) {
	d.unit.Clear(eu.DMAAllDoneMask)
	d.unit.EnableEvents(eu.DMAAllDoneMask)
	if irq {
		d.unit.EnableIRQ(eu.DMAAllDoneMask)
	}
}

// Configure programs a direction's configuration register.
func (d *Driver) Configure(dir Direction, c Config) {
	d.write(dir, RegConf, c.pack())
}

// ConfigureDefault applies the default transfer configuration.
func (d *Driver) ConfigureDefault(dir Direction) {
	d.Configure(dir, DefaultConfig)
}

// SetTransfer programs the destination, source, and byte length of the
// next transfer on the direction.
func (d *Driver) SetTransfer(dir Direction, dst, src, length uint32) {
	d.write(dir, RegDstAddr, dst)
	d.write(dir, RegSrcAddr, src)
	d.write(dir, RegLength, length)
}

// Set2DParams programs the second-dimension strides and repetitions.
func (d *Driver) Set2DParams(dir Direction, dstStride, srcStride, reps uint32) {
	d.write(dir, RegDstStride2, dstStride)
	d.write(dir, RegSrcStride2, srcStride)
	d.write(dir, RegReps2, reps)
}

// Set3DParams programs the third-dimension strides and repetitions.
func (d *Driver) Set3DParams(dir Direction, dstStride, srcStride, reps uint32) {
	d.write(dir, RegDstStride3, dstStride)
	d.write(dir, RegSrcStride3, srcStride)
	d.write(dir, RegReps3, reps)
}

// Start launches the transfer staged in the direction's registers.
// Reading the next-id register both allocates the transfer identifier
// and triggers the engine.
func (d *Driver) Start(dir Direction) Ticket {
	id := d.read(dir, RegNextID)
	t := Ticket{Dir: dir, ID: id}

	d.InvokeHook(eu.HookCtx{
		Domain: d, Pos: HookPosIssue, Mask: dir.DoneMask(), Detail: id,
	})

	return t
}

// Busy reports whether the direction has a transfer in flight.
func (d *Driver) Busy(dir Direction) bool {
	return d.read(dir, RegStatus)&StatusBusyMask != 0
}

// DoneID returns the identifier of the direction's most recently
// completed transfer.
func (d *Driver) DoneID(dir Direction) uint32 {
	return d.read(dir, RegDoneID)
}

// IsComplete reports whether the ticket's transfer has finished. Both
// conjuncts are required: an idle channel alone cannot distinguish
// never-started from finished, and the done-id alone is stale right
// after issue, before the channel has been observed busy. A mismatched
// done-id on an idle channel means not-yet-complete, never an error.
func (d *Driver) IsComplete(t Ticket) bool {
	return !d.Busy(t.Dir) && d.DoneID(t.Dir) == t.ID
}

// Wait blocks until the ticket's transfer completes, under the given
// discipline. timeoutCycles only applies to polling mode; zero means
// unbounded, and each wake re-arms the full budget.
//
// The sticky completion bit only proves that some transfer on the
// channel finished, so every wake re-validates the ticket itself.
// Matching done-id against the ticket assumes the caller keeps at most
// one transfer outstanding per direction; back-to-back pipelined
// transfers are only observed complete once their own id is reached.
func (d *Driver) Wait(t Ticket, mode eu.WaitMode, timeoutCycles uint32) bool {
	for {
		if d.IsComplete(t) {
			d.InvokeHook(eu.HookCtx{
				Domain: d, Pos: HookPosRetire,
				Mask: t.Dir.DoneMask(), Detail: t.ID,
			})
			return true
		}

		detected := d.unit.WaitEvents(t.Dir.DoneMask(), mode, timeoutCycles)
		if detected == 0 && mode == eu.WaitPolling {
			return false
		}
	}
}

// Barrier waits until both directions are idle. Under polling it gives
// up after timeoutCycles per wait, returning false.
func (d *Driver) Barrier(mode eu.WaitMode, timeoutCycles uint32) bool {
	for d.Busy(ExtToLoc) || d.Busy(LocToExt) {
		detected := d.unit.WaitEvents(eu.DMAAllDoneMask, mode, timeoutCycles)
		if detected == 0 && mode == eu.WaitPolling {
			return false
		}
	}
	return true
}
