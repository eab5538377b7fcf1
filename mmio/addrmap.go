package mmio

// Tile address map. The peripheral decode places the synchronization
// unit, the two DMA register files, and the event unit in the low
// peripheral window; L1 and L2 occupy their own windows.
const (
	BarrierBase = 0x0000_0400

	// The DMA engine exposes one register file per direction.
	DMALocToExtBase = 0x0000_1000
	DMAExtToLocBase = 0x0000_1200

	EventUnitBase = 0x0000_2000

	L1Base = 0x1000_0000
	L2Base = 0x8000_0000
)
