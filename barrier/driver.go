// Package barrier drives the tile's synchronization unit. The unit
// aggregates a (id, aggregate-size) request through its hardware tree
// and raises a sticky done or error event when the round settles; the
// tree topology and routing are entirely the hardware's business.
package barrier

import (
	"github.com/luca24balboni/MAGIA-EventUnit/eu"
	"github.com/luca24balboni/MAGIA-EventUnit/mmio"
)

// Register offsets within the synchronization unit's register file.
// Any write to the control register triggers aggregation with the
// staged parameters.
const (
	RegAggregate = 0x00
	RegID        = 0x04
	RegControl   = 0x08
	RegStatus    = 0x0C
)

// StatusBusyMask is the busy bit of the status register.
const StatusBusyMask uint32 = 1 << 2

// Driver programs the synchronization unit and waits for its
// completion events through the event unit.
type Driver struct {
	bus  mmio.Bus
	base uint32
	unit *eu.Unit
}

// A Builder configures and creates synchronization unit drivers.
type Builder struct {
	bus  mmio.Bus
	base uint32
	unit *eu.Unit
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{base: mmio.BarrierBase}
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

// WithEventUnit sets the event unit used for completion waits.
func (b Builder) WithEventUnit(u *eu.Unit) Builder {
	b.unit = u
	return b
}

// Build creates the Driver.
func (b Builder) Build() *Driver {
	if b.bus == nil {
		panic("barrier: building a driver without a bus")
	}
	if b.unit == nil {
		panic("barrier: building a driver without an event unit")
	}
	return &Driver{bus: b.bus, base: b.base, unit: b.unit}
}

// InitEvents enables the unit's done and error event lines, optionally
// allowing the done event to wake a suspended core.
func (d *Driver) InitEvents(irq bool) {
	d.unit.Clear(eu.BarrierAllMask)
	d.unit.EnableEvents(eu.BarrierAllMask)
	if irq {
		d.unit.EnableIRQ(eu.BarrierDoneMask)
	}
}

// Trigger stages id and aggregate and starts an aggregation round.
func (d *Driver) Trigger(id, aggregate uint32) {
	d.bus.Write32(d.base+RegAggregate, aggregate)
	d.bus.Write32(d.base+RegID, id)
	d.bus.Write32(d.base+RegControl, 1)
}

// Busy reports whether an aggregation round is in flight.
func (d *Driver) Busy() bool {
	return d.bus.Read32(d.base+RegStatus)&StatusBusyMask != 0
}

// Done reports whether the done event has signalled.
func (d *Driver) Done() bool {
	return d.unit.Check(eu.BarrierDoneMask) != 0
}

// Error reports whether the error event has signalled. The bit is
// surfaced like any other event; whether it is fatal is the caller's
// policy.
func (d *Driver) Error() bool {
	return d.unit.Check(eu.BarrierErrMask) != 0
}

// Sync triggers an aggregation round and waits for its completion
// event under the given discipline. Returns the detected bits, zero on
// a polling timeout.
func (d *Driver) Sync(id, aggregate uint32, mode eu.WaitMode, timeoutCycles uint32) uint32 {
	d.Trigger(id, aggregate)
	return d.unit.WaitEvents(eu.BarrierDoneMask, mode, timeoutCycles)
}
