package tilesim_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/luca24balboni/MAGIA-EventUnit/eu"
	"github.com/luca24balboni/MAGIA-EventUnit/mmio"
	"github.com/luca24balboni/MAGIA-EventUnit/tilesim"
)

var _ = Describe("Tile", func() {
	var tile *tilesim.Tile

	BeforeEach(func() {
		tile = tilesim.MakeBuilder().Build()
	})

	euWrite := func(off, v uint32) {
		tile.Write32(mmio.EventUnitBase+off, v)
	}
	euRead := func(off uint32) uint32 {
		return tile.Read32(mmio.EventUnitBase + off)
	}

	Context("register decode", func() {
		It("should apply the set and clear views of the enable mask", func() {
			euWrite(eu.RegMask, 0)
			euWrite(eu.RegMaskOR, 0x0C)
			euWrite(eu.RegMaskOR, 0x03)
			euWrite(eu.RegMaskAND, 0x05)

			Expect(euRead(eu.RegMask)).To(Equal(uint32(0x0A)))
		})

		It("should apply the set and clear views of the irq mask", func() {
			euWrite(eu.RegIRQMask, 0xF0)
			euWrite(eu.RegIRQMaskAND, 0x30)

			Expect(euRead(eu.RegIRQMask)).To(Equal(uint32(0xC0)))
		})

		It("should narrow the buffer by the enable mask", func() {
			tile.Raise(eu.MatMulDoneMask | eu.SyncEvtMask)
			euWrite(eu.RegMask, eu.MatMulDoneMask)

			Expect(euRead(eu.RegBuffer)).
				To(Equal(eu.MatMulDoneMask | eu.SyncEvtMask))
			Expect(euRead(eu.RegBufferMask)).To(Equal(eu.MatMulDoneMask))
		})

		It("should clear only the written buffer bits", func() {
			tile.Raise(eu.MatMulDoneMask | eu.SyncEvtMask)
			euWrite(eu.RegBufferClear, eu.MatMulDoneMask)

			Expect(euRead(eu.RegBuffer)).To(Equal(eu.SyncEvtMask))
		})

		It("should report the unit clock as running", func() {
			Expect(euRead(eu.RegStatus)).To(Equal(uint32(1)))
		})

		It("should back unmapped addresses with scratch words", func() {
			tile.Write32(0x0000_3000, 0xDEADBEEF)

			Expect(tile.Read32(0x0000_3000)).To(Equal(uint32(0xDEADBEEF)))
		})

		It("should serve word access to the memory windows", func() {
			tile.Write32(mmio.L1Base+8, 0x01020304)

			Expect(tile.Read32(mmio.L1Base + 8)).To(Equal(uint32(0x01020304)))
			Expect(tile.L1()[8:12]).To(Equal([]byte{0x04, 0x03, 0x02, 0x01}))
		})
	})

	Context("event delivery", func() {
		It("should keep raised bits sticky across cycles", func() {
			tile.Raise(eu.SyncEvtMask)
			tile.Advance(100)

			Expect(euRead(eu.RegBuffer)).To(Equal(eu.SyncEvtMask))
		})

		It("should feed fresh events through the SoC FIFO in order", func() {
			tile.Raise(eu.SyncEvtMask)
			tile.Raise(eu.MatMulDoneMask)

			Expect(euRead(eu.RegCurrentEvent)).To(Equal(eu.SyncEvtMask))
			Expect(euRead(eu.RegCurrentEvent)).To(Equal(eu.MatMulDoneMask))
			Expect(euRead(eu.RegCurrentEvent)).To(Equal(uint32(0)))
		})

		It("should not re-enqueue an already sticky bit", func() {
			tile.Raise(eu.SyncEvtMask)
			tile.Raise(eu.SyncEvtMask)

			Expect(euRead(eu.RegCurrentEvent)).To(Equal(eu.SyncEvtMask))
			Expect(euRead(eu.RegCurrentEvent)).To(Equal(uint32(0)))
		})

		It("should deliver scheduled completions at their cycle", func() {
			tile.CompleteAt(50, 1<<eu.Timer0Bit|eu.SyncEvtMask)

			tile.Advance(49)
			Expect(euRead(eu.RegBuffer)).To(Equal(uint32(0)))

			tile.Advance(1)
			Expect(euRead(eu.RegBuffer)).NotTo(BeZero())
		})

		It("should raise immediately when the cycle has passed", func() {
			tile.Advance(10)
			tile.CompleteAt(5, eu.SyncEvtMask)

			Expect(euRead(eu.RegBuffer)).To(Equal(eu.SyncEvtMask))
		})

		It("should raise software events through their trigger registers", func() {
			euWrite(eu.RegTrigSWEvent+2*4, 1)

			Expect(euRead(eu.RegBuffer)).To(Equal(eu.SWEventMask(2)))
		})
	})

	Context("suspension", func() {
		It("should advance the clock while idling", func() {
			tile.Idle(25)

			Expect(tile.Cycle()).To(Equal(uint64(25)))
		})

		It("should not block when an interrupt-enabled event is pending", func() {
			euWrite(eu.RegIRQMask, eu.SyncEvtMask)
			tile.Raise(eu.SyncEvtMask)

			tile.BlockUntilInterrupt()

			Expect(tile.Cycle()).To(Equal(uint64(0)))
		})

		It("should resume when the awaited completion falls due", func() {
			euWrite(eu.RegIRQMask, eu.MatMulDoneMask)
			tile.CompleteAt(40, eu.MatMulDoneMask)

			tile.BlockUntilInterrupt()

			Expect(tile.Cycle()).To(Equal(uint64(40)))
		})

		It("should serve the built-in event-wait register", func() {
			euWrite(eu.RegMask, eu.MatMulDoneMask)
			tile.CompleteAt(30, eu.MatMulDoneMask)

			v := euRead(eu.RegEventWaitClear)

			Expect(v & eu.MatMulDoneMask).NotTo(BeZero())
			Expect(tile.Cycle()).To(Equal(uint64(30)))
			Expect(euRead(eu.RegBuffer)).To(Equal(uint32(0)))
		})
	})

	Context("matrix engine", func() {
		It("should raise busy at launch and done after the latency", func() {
			tile.StartMatMul()

			Expect(euRead(eu.RegBuffer) & eu.MatMulBusyMask).NotTo(BeZero())
			Expect(euRead(eu.RegBuffer) & eu.MatMulDoneMask).To(BeZero())

			tile.Advance(100)

			Expect(euRead(eu.RegBuffer) & eu.MatMulDoneMask).NotTo(BeZero())
		})
	})
})
