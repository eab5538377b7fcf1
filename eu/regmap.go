package eu

// Event unit register offsets, relative to the unit's base address.
//
// Mask registers come in triples: a plain read/write register, an
// AND-write alias that clears the written bits, and an OR-write alias
// that sets them. The event buffer is sticky: hardware sets bits on
// completion and they stay set until software writes them to the clear
// register.
const (
	RegMask        = 0x00 // R/W: event enable mask
	RegMaskAND     = 0x04 // W: clear bits in the enable mask
	RegMaskOR      = 0x08 // W: set bits in the enable mask
	RegIRQMask     = 0x0C // R/W: interrupt enable mask
	RegIRQMaskAND  = 0x10 // W: clear bits in the interrupt mask
	RegIRQMaskOR   = 0x14 // W: set bits in the interrupt mask
	RegStatus      = 0x18 // R: unit clock status
	RegBuffer      = 0x1C // R: raw sticky event buffer
	RegBufferMask  = 0x20 // R: buffer AND enable mask
	RegBufferIRQ   = 0x24 // R: buffer AND interrupt mask
	RegBufferClear = 0x28 // W: write-to-clear buffer bits
	RegSWMask      = 0x2C // R/W: software event target mask
	RegSWMaskAND   = 0x30 // W: clear bits in the software event mask
	RegSWMaskOR    = 0x34 // W: set bits in the software event mask

	RegEventWait      = 0x38 // R: sleep until event, return buffer
	RegEventWaitClear = 0x3C // R: sleep until event, return and clear

	// Hardware barrier block, one 0x20 stride per barrier.
	RegBarrTriggerMask = 0x400
	RegBarrStatus      = 0x404
	RegBarrTargetMask  = 0x40C
	RegBarrTrigger     = 0x410

	// Software event trigger blocks, one word per event slot.
	RegTrigSWEvent          = 0x600
	RegTrigSWEventWait      = 0x640
	RegTrigSWEventWaitClear = 0x680

	RegCurrentEvent = 0x700 // R: head of the SoC event FIFO

	RegHWMutex = 0x0C0 // R/W: hardware mutex block
)

// NumSWEvents is the number of software event slots the unit exposes.
const NumSWEvents = 8

// Sticky buffer bit layout.
const (
	SyncEvtBit     = 0 // tile synchronization
	DispatchEvtBit = 1 // work dispatch

	DMAExtToLocDoneBit = 2 // DMA direction A (external to local) done
	DMALocToExtDoneBit = 3 // DMA direction B (local to external) done

	Timer0Bit = 4
	Timer1Bit = 5

	AccAuxBit     = 8  // accelerator auxiliary line, wired to zero
	MatMulBusyBit = 9  // matrix engine busy
	MatMulDoneBit = 10 // matrix engine completion
	MatMulExtBit  = 11 // matrix engine additional event

	SWEventBit0 = 16 // software events occupy [23:16]

	BarrierDoneBit = 24 // synchronization unit completion
	BarrierErrBit  = 25 // synchronization unit error

	// DMA extended status lines, [31:26].
	DMAExtToLocErrBit   = 26
	DMALocToExtErrBit   = 27
	DMAExtToLocStartBit = 28
	DMALocToExtStartBit = 29
	DMAExtToLocBusyBit  = 30
	DMALocToExtBusyBit  = 31
)

// Commonly used masks over the sticky buffer.
const (
	SyncEvtMask     uint32 = 1 << SyncEvtBit
	DispatchEvtMask uint32 = 1 << DispatchEvtBit

	DMAExtToLocDoneMask uint32 = 1 << DMAExtToLocDoneBit
	DMALocToExtDoneMask uint32 = 1 << DMALocToExtDoneBit
	DMAAllDoneMask      uint32 = DMAExtToLocDoneMask | DMALocToExtDoneMask

	TimerMask uint32 = 1<<Timer0Bit | 1<<Timer1Bit

	MatMulBusyMask uint32 = 1 << MatMulBusyBit
	MatMulDoneMask uint32 = 1 << MatMulDoneBit
	MatMulExtMask  uint32 = 1 << MatMulExtBit
	MatMulAllMask  uint32 = 0x0000_0F00

	BarrierDoneMask uint32 = 1 << BarrierDoneBit
	BarrierErrMask  uint32 = 1 << BarrierErrBit
	BarrierAllMask  uint32 = BarrierDoneMask | BarrierErrMask

	DMAExtToLocErrMask  uint32 = 1 << DMAExtToLocErrBit
	DMALocToExtErrMask  uint32 = 1 << DMALocToExtErrBit
	DMAExtToLocBusyMask uint32 = 1 << DMAExtToLocBusyBit
	DMALocToExtBusyMask uint32 = 1 << DMALocToExtBusyBit
	DMAStatusMask       uint32 = 0xFC00_0000
)

// A Source tags one completion-generating unit on the tile.
type Source int

// Sources the aggregated view can be narrowed to.
const (
	SourceSync Source = iota
	SourceDispatch
	SourceDMAExtToLoc
	SourceDMALocToExt
	SourceTimer
	SourceMatMul
	SourceBarrier
)

// Mask returns the sticky-buffer bits the source signals completion on.
func (s Source) Mask() uint32 {
	switch s {
	case SourceSync:
		return SyncEvtMask
	case SourceDispatch:
		return DispatchEvtMask
	case SourceDMAExtToLoc:
		return DMAExtToLocDoneMask
	case SourceDMALocToExt:
		return DMALocToExtDoneMask
	case SourceTimer:
		return TimerMask
	case SourceMatMul:
		return MatMulDoneMask
	case SourceBarrier:
		return BarrierDoneMask
	}
	return 0
}

// SWEventMask returns the sticky-buffer bit of software event id.
func SWEventMask(id uint32) uint32 {
	if id >= NumSWEvents {
		return 0
	}
	return 1 << (SWEventBit0 + id)
}
