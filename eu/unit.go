// Package eu drives the MAGIA event unit: the aggregation point for
// the sticky completion events raised by the tile's accelerators, and
// the wait primitives built on top of it.
//
// Hardware sets a buffer bit when a source completes and the bit stays
// set until software clears it. Because the bits are edge-set but
// level-held, a completion that lands between a status check and a
// suspend instruction is still visible after resumption, which is what
// makes the wait primitives race-free without a lock.
package eu

import (
	"github.com/luca24balboni/MAGIA-EventUnit/mmio"
)

// A Suspender exposes the two core-level wait instructions the unit
// drives: the parameterless suspend-until-interrupt primitive and the
// bounded idle used between polling iterations.
type Suspender interface {
	// BlockUntilInterrupt suspends execution until an interrupt-enabled
	// event arrives. Resumption carries no return value; resuming
	// without the awaited bit set is a legal spurious wake.
	BlockUntilInterrupt()

	// Idle burns the given number of cycles.
	Idle(cycles uint32)
}

// Unit owns the software view of one event unit register file. It is
// constructed explicitly and injected into callers; the enable mask,
// interrupt mask, and sticky buffer it governs are tile-wide singletons,
// so a single logical owner must drive wait semantics over any given
// bit range at a time.
type Unit struct {
	HookableBase

	bus        mmio.Bus
	base       uint32
	suspender  Suspender
	pollStride uint32
}

// A Builder configures and creates event unit drivers.
type Builder struct {
	bus        mmio.Bus
	base       uint32
	suspender  Suspender
	pollStride uint32
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		base:       mmio.EventUnitBase,
		pollStride: 10,
	}
}

// WithBus sets the bus the unit's registers are reached through.
func (b Builder) WithBus(bus mmio.Bus) Builder {
	b.bus = bus
	return b
}

// WithBase sets the base address of the register file.
func (b Builder) WithBase(addr uint32) Builder {
	b.base = addr
	return b
}

// WithSuspender sets the core wait capability.
func (b Builder) WithSuspender(s Suspender) Builder {
	b.suspender = s
	return b
}

// WithPollStride sets the number of cycles burned per polling
// iteration. The stride is also the granularity of every polling
// timeout.
func (b Builder) WithPollStride(cycles uint32) Builder {
	b.pollStride = cycles
	return b
}

// Build creates the Unit.
func (b Builder) Build() *Unit {
	if b.bus == nil {
		panic("eu: building a unit without a bus")
	}
	if b.suspender == nil {
		panic("eu: building a unit without a suspender")
	}

	return &Unit{
		bus:        b.bus,
		base:       b.base,
		suspender:  b.suspender,
		pollStride: b.pollStride,
	}
}

func (u *Unit) read(offset uint32) uint32 {
	return u.bus.Read32(u.base + offset)
}

func (u *Unit) write(offset uint32, v uint32) {
	u.bus.Write32(u.base+offset, v)
}

// Init clears all pending events and disables every source in both the
// enable mask and the interrupt mask.
func (u *Unit) Init() {
	u.write(RegBufferClear, 0xFFFFFFFF)
	u.write(RegMask, 0)
	u.write(RegIRQMask, 0)
}

// EnableEvents adds the masked sources to the aggregated view.
// Out-of-range bits are ignored by hardware; re-enabling is idempotent.
func (u *Unit) EnableEvents(mask uint32) {
	u.write(RegMaskOR, mask)
}

// DisableEvents removes the masked sources from the aggregated view.
func (u *Unit) DisableEvents(mask uint32) {
	u.write(RegMaskAND, mask)
}

// EnableIRQ allows the masked sources to wake a suspended core.
func (u *Unit) EnableIRQ(mask uint32) {
	u.write(RegIRQMaskOR, mask)
}

// DisableIRQ stops the masked sources from waking a suspended core.
func (u *Unit) DisableIRQ(mask uint32) {
	u.write(RegIRQMaskAND, mask)
}

// EventMask returns the current enable mask.
func (u *Unit) EventMask() uint32 {
	return u.read(RegMask)
}

// IRQMask returns the current interrupt mask.
func (u *Unit) IRQMask() uint32 {
	return u.read(RegIRQMask)
}

// Events returns the raw sticky buffer.
func (u *Unit) Events() uint32 {
	return u.read(RegBuffer)
}

// EventsMasked returns the sticky buffer narrowed to enabled sources,
// the canonical "things I care about that happened" view.
func (u *Unit) EventsMasked() uint32 {
	return u.read(RegBufferMask)
}

// EventsIRQMasked returns the sticky buffer narrowed to
// interrupt-enabled sources.
func (u *Unit) EventsIRQMasked() uint32 {
	return u.read(RegBufferIRQ)
}

// Check returns the enabled pending events within mask without
// consuming them. Repeated checks without an intervening Clear return
// identical results.
func (u *Unit) Check(mask uint32) uint32 {
	return u.EventsMasked() & mask
}

// Clear consumes exactly the masked bits from the sticky buffer. After
// a clear, Check over the same bits returns zero until hardware sets
// them again.
func (u *Unit) Clear(mask uint32) {
	u.write(RegBufferClear, mask)
	u.InvokeHook(HookCtx{Domain: u, Pos: HookPosClear, Mask: mask})
}

// EventWait reads the unit's built-in wait register. The access does
// not complete until an enabled event is pending and returns the
// buffer observed at that point, without consuming anything.
func (u *Unit) EventWait() uint32 {
	return u.read(RegEventWait)
}

// EventWaitClear is EventWait with the enabled pending bits consumed
// as part of the access.
func (u *Unit) EventWaitClear() uint32 {
	return u.read(RegEventWaitClear)
}

// ClockEnabled reports whether the event unit clock is running.
func (u *Unit) ClockEnabled() bool {
	return u.read(RegStatus)&0x1 != 0
}

// CurrentEvent pops the head of the SoC event FIFO.
func (u *Unit) CurrentEvent() uint32 {
	return u.read(RegCurrentEvent)
}

// TriggerSWEvent raises software event id. Out-of-range ids are
// ignored.
func (u *Unit) TriggerSWEvent(id uint32) {
	if id >= NumSWEvents {
		return
	}
	u.write(RegTrigSWEvent+id*4, 1)
}

// TriggerSWEventAndWait raises software event id and sleeps until an
// event arrives, returning the buffer observed at wake-up.
func (u *Unit) TriggerSWEventAndWait(id uint32) uint32 {
	if id >= NumSWEvents {
		return 0
	}
	return u.read(RegTrigSWEventWait + id*4)
}
