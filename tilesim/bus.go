package tilesim

import (
	"encoding/binary"
	"fmt"

	"github.com/luca24balboni/MAGIA-EventUnit/barrier"
	"github.com/luca24balboni/MAGIA-EventUnit/dma"
	"github.com/luca24balboni/MAGIA-EventUnit/eu"
	"github.com/luca24balboni/MAGIA-EventUnit/mmio"
)

// Register file decode windows.
const (
	barrierSpan = 0x10
	dmaSpan     = 0x200
	euSpan      = 0x800
)

// Read32 implements mmio.Bus.
func (t *Tile) Read32(addr uint32) uint32 {
	switch {
	case addr >= mmio.BarrierBase && addr < mmio.BarrierBase+barrierSpan:
		return t.readBarrier(addr - mmio.BarrierBase)

	case addr >= mmio.DMALocToExtBase && addr < mmio.DMALocToExtBase+dmaSpan:
		return t.readDMA(dma.LocToExt, addr-mmio.DMALocToExtBase)

	case addr >= mmio.DMAExtToLocBase && addr < mmio.DMAExtToLocBase+dmaSpan:
		return t.readDMA(dma.ExtToLoc, addr-mmio.DMAExtToLocBase)

	case addr >= mmio.EventUnitBase && addr < mmio.EventUnitBase+euSpan:
		return t.readEU(addr - mmio.EventUnitBase)

	default:
		if w, ok := t.window(addr, 4); ok {
			return binary.LittleEndian.Uint32(w)
		}
		return t.scratch[addr]
	}
}

// Write32 implements mmio.Bus.
func (t *Tile) Write32(addr uint32, v uint32) {
	switch {
	case addr >= mmio.BarrierBase && addr < mmio.BarrierBase+barrierSpan:
		t.writeBarrier(addr-mmio.BarrierBase, v)

	case addr >= mmio.DMALocToExtBase && addr < mmio.DMALocToExtBase+dmaSpan:
		t.writeDMA(dma.LocToExt, addr-mmio.DMALocToExtBase, v)

	case addr >= mmio.DMAExtToLocBase && addr < mmio.DMAExtToLocBase+dmaSpan:
		t.writeDMA(dma.ExtToLoc, addr-mmio.DMAExtToLocBase, v)

	case addr >= mmio.EventUnitBase && addr < mmio.EventUnitBase+euSpan:
		t.writeEU(addr-mmio.EventUnitBase, v)

	default:
		if w, ok := t.window(addr, 4); ok {
			binary.LittleEndian.PutUint32(w, v)
			return
		}
		t.scratch[addr] = v
	}
}

func (t *Tile) readEU(off uint32) uint32 {
	switch {
	case off == eu.RegMask:
		return t.mask
	case off == eu.RegIRQMask:
		return t.irqMask
	case off == eu.RegSWMask:
		return t.swMask
	case off == eu.RegStatus:
		return 1 // unit clock always running in the model
	case off == eu.RegBuffer:
		return t.buffer
	case off == eu.RegBufferMask:
		return t.buffer & t.mask
	case off == eu.RegBufferIRQ:
		return t.buffer & t.irqMask
	case off == eu.RegEventWait:
		return t.waitEvent(false)
	case off == eu.RegEventWaitClear:
		return t.waitEvent(true)
	case off == eu.RegCurrentEvent:
		return t.popEvent()

	case off >= eu.RegTrigSWEventWaitClear &&
		off < eu.RegTrigSWEventWaitClear+eu.NumSWEvents*4:
		t.raiseSW((off - eu.RegTrigSWEventWaitClear) / 4)
		return t.waitEvent(true)

	case off >= eu.RegTrigSWEventWait &&
		off < eu.RegTrigSWEventWait+eu.NumSWEvents*4:
		t.raiseSW((off - eu.RegTrigSWEventWait) / 4)
		return t.waitEvent(false)

	default:
		return t.scratch[mmio.EventUnitBase+off]
	}
}

func (t *Tile) writeEU(off uint32, v uint32) {
	switch {
	case off == eu.RegMask:
		t.mask = v
	case off == eu.RegMaskAND:
		t.mask &^= v
	case off == eu.RegMaskOR:
		t.mask |= v
	case off == eu.RegIRQMask:
		t.irqMask = v
	case off == eu.RegIRQMaskAND:
		t.irqMask &^= v
	case off == eu.RegIRQMaskOR:
		t.irqMask |= v
	case off == eu.RegSWMask:
		t.swMask = v
	case off == eu.RegSWMaskAND:
		t.swMask &^= v
	case off == eu.RegSWMaskOR:
		t.swMask |= v
	case off == eu.RegBufferClear:
		t.buffer &^= v

	case off >= eu.RegTrigSWEvent && off < eu.RegTrigSWEvent+eu.NumSWEvents*4:
		t.raiseSW((off - eu.RegTrigSWEvent) / 4)

	default:
		t.scratch[mmio.EventUnitBase+off] = v
	}
}

// waitEvent models the unit's built-in sleep register: the read does
// not return until an enabled event is pending.
func (t *Tile) waitEvent(clear bool) uint32 {
	start := t.cycle
	for t.buffer&t.mask == 0 {
		if t.cycle-start >= t.maxBlockCycles {
			panic(fmt.Sprintf(
				"tilesim: event-wait read stuck %d cycles with enable "+
					"mask 0x%08x", t.maxBlockCycles, t.mask))
		}
		t.Advance(1)
	}

	v := t.buffer
	if clear {
		t.buffer &^= t.buffer & t.mask
	}
	return v
}

func (t *Tile) raiseSW(id uint32) {
	if m := eu.SWEventMask(id); m != 0 {
		t.Raise(m)
	}
}

// popEvent dequeues the oldest raised event's mask, zero when empty.
func (t *Tile) popEvent() uint32 {
	if t.fifo.Length() == 0 {
		return 0
	}
	return t.fifo.Remove().(uint32)
}

func (t *Tile) readDMA(dir dma.Direction, off uint32) uint32 {
	ch := t.channels[dir]

	switch {
	case off == dma.RegConf:
		return ch.conf

	case off >= dma.RegStatus && off < dma.RegStatus+dma.NumSlots*4:
		if len(ch.inflight) > 0 {
			return 1
		}
		return 0

	case off >= dma.RegNextID && off < dma.RegNextID+dma.NumSlots*4:
		return t.launch(dir)

	case off >= dma.RegDoneID && off < dma.RegDoneID+dma.NumSlots*4:
		return ch.doneID

	case off == dma.RegDstAddr:
		return ch.dstAddr
	case off == dma.RegSrcAddr:
		return ch.srcAddr
	case off == dma.RegLength:
		return ch.length
	case off == dma.RegDstStride2:
		return ch.dstStride2
	case off == dma.RegSrcStride2:
		return ch.srcStride2
	case off == dma.RegReps2:
		return ch.reps2
	case off == dma.RegDstStride3:
		return ch.dstStride3
	case off == dma.RegSrcStride3:
		return ch.srcStride3
	case off == dma.RegReps3:
		return ch.reps3

	default:
		return t.scratch[dir.Base()+off]
	}
}

func (t *Tile) writeDMA(dir dma.Direction, off uint32, v uint32) {
	ch := t.channels[dir]

	switch off {
	case dma.RegConf:
		ch.conf = v
	case dma.RegDstAddr:
		ch.dstAddr = v
	case dma.RegSrcAddr:
		ch.srcAddr = v
	case dma.RegLength:
		ch.length = v
	case dma.RegDstStride2:
		ch.dstStride2 = v
	case dma.RegSrcStride2:
		ch.srcStride2 = v
	case dma.RegReps2:
		ch.reps2 = v
	case dma.RegDstStride3:
		ch.dstStride3 = v
	case dma.RegSrcStride3:
		ch.srcStride3 = v
	case dma.RegReps3:
		ch.reps3 = v
	default:
		t.scratch[dir.Base()+off] = v
	}
}

func (t *Tile) readBarrier(off uint32) uint32 {
	switch off {
	case barrier.RegAggregate:
		return t.syncUnit.aggregate
	case barrier.RegID:
		return t.syncUnit.id
	case barrier.RegStatus:
		if t.syncUnit.inFlight {
			return barrier.StatusBusyMask
		}
		return 0
	default:
		return t.scratch[mmio.BarrierBase+off]
	}
}

func (t *Tile) writeBarrier(off uint32, v uint32) {
	switch off {
	case barrier.RegAggregate:
		t.syncUnit.aggregate = v
	case barrier.RegID:
		t.syncUnit.id = v
	case barrier.RegControl:
		// Any write starts an aggregation round.
		t.syncUnit.inFlight = true
		t.syncUnit.doneAt = t.cycle + t.syncUnit.latency
	default:
		t.scratch[mmio.BarrierBase+off] = v
	}
}
