package dma

import (
	"github.com/luca24balboni/MAGIA-EventUnit/eu"
	"github.com/luca24balboni/MAGIA-EventUnit/mmio"
)

// Register offsets within one direction's register file. The status,
// next-id, and done-id registers are arrays with one word per possible
// in-flight transfer slot.
const (
	RegConf   = 0x00
	RegStatus = 0x04
	RegNextID = 0x44
	RegDoneID = 0x84

	RegDstAddr = 0xD0
	RegSrcAddr = 0xD8
	RegLength  = 0xE0

	RegDstStride2 = 0xE8
	RegSrcStride2 = 0xF0
	RegReps2      = 0xF8

	RegDstStride3 = 0x100
	RegSrcStride3 = 0x108
	RegReps3      = 0x110
)

// NumSlots is the number of transfer slots per direction.
const NumSlots = 16

// StatusBusyMask covers the per-slot busy bits of a status register.
const StatusBusyMask uint32 = 0x3FF

// Configuration register fields.
const (
	confDecoupleAWBit   = 0
	confDecoupleRWBit   = 1
	confSrcReduceLenBit = 2
	confDstReduceLenBit = 3
	confSrcMaxLLenShift = 4
	confDstMaxLLenShift = 7
	confEnableNDShift   = 10
)

// A Direction names one of the two independent DMA channels. The two
// directions have separate register files and complete independently.
type Direction int

const (
	// ExtToLoc moves data from external (L2) memory into the tile's
	// local (L1) memory.
	ExtToLoc Direction = iota

	// LocToExt moves data from local memory out to external memory.
	LocToExt
)

func (d Direction) String() string {
	switch d {
	case ExtToLoc:
		return "ext2loc"
	case LocToExt:
		return "loc2ext"
	}
	return "unknown"
}

// Base returns the base address of the direction's register file.
func (d Direction) Base() uint32 {
	if d == LocToExt {
		return mmio.DMALocToExtBase
	}
	return mmio.DMAExtToLocBase
}

// DoneMask returns the direction's sticky completion bit.
func (d Direction) DoneMask() uint32 {
	if d == LocToExt {
		return eu.DMALocToExtDoneMask
	}
	return eu.DMAExtToLocDoneMask
}

// ErrMask returns the direction's sticky error bit.
func (d Direction) ErrMask() uint32 {
	if d == LocToExt {
		return eu.DMALocToExtErrMask
	}
	return eu.DMAExtToLocErrMask
}

// Config captures the fields of a direction's configuration register.
type Config struct {
	DecoupleAW   bool
	DecoupleRW   bool
	SrcReduceLen bool
	DstReduceLen bool
	SrcMaxLogLen uint32 // 3 bits
	DstMaxLogLen uint32 // 3 bits
	EnableND     uint32 // 2 bits, number of extra dimensions
}

// DefaultConfig is the configuration used for plain multi-dimensional
// transfers.
var DefaultConfig = Config{EnableND: 3}

func (c Config) pack() uint32 {
	var v uint32
	if c.DecoupleAW {
		v |= 1 << confDecoupleAWBit
	}
	if c.DecoupleRW {
		v |= 1 << confDecoupleRWBit
	}
	if c.SrcReduceLen {
		v |= 1 << confSrcReduceLenBit
	}
	if c.DstReduceLen {
		v |= 1 << confDstReduceLenBit
	}
	v |= (c.SrcMaxLogLen & 0x7) << confSrcMaxLLenShift
	v |= (c.DstMaxLogLen & 0x7) << confDstMaxLLenShift
	v |= (c.EnableND & 0x3) << confEnableNDShift
	return v
}
