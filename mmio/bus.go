// Package mmio provides word-granular access to the memory-mapped
// register space of a MAGIA compute tile.
package mmio

// A Bus provides 32-bit access to a memory-mapped register space.
//
// Register files of the event unit, the DMA engine, and the
// synchronization unit are all driven through this interface. The
// production implementation maps physical memory; tests and the
// simulated tile provide in-memory implementations.
type Bus interface {
	Read32(addr uint32) uint32
	Write32(addr uint32, v uint32)
}
