package tilesim_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/luca24balboni/MAGIA-EventUnit/barrier"
	"github.com/luca24balboni/MAGIA-EventUnit/dma"
	"github.com/luca24balboni/MAGIA-EventUnit/eu"
	"github.com/luca24balboni/MAGIA-EventUnit/mmio"
	"github.com/luca24balboni/MAGIA-EventUnit/tilesim"
)

var _ = Describe("Tile workloads", func() {
	var (
		tile *tilesim.Tile
		unit *eu.Unit
	)

	BeforeEach(func() {
		tile = tilesim.MakeBuilder().Build()
		unit = eu.MakeBuilder().
			WithBus(tile).
			WithSuspender(tile).
			Build()
		unit.Init()
	})

	It("should satisfy a wait-any with the first arrival", func() {
		unit.EnableEvents(eu.MatMulDoneMask | eu.DMAAllDoneMask)
		tile.CompleteAt(35, eu.DMAExtToLocDoneMask)
		tile.CompleteAt(95, eu.MatMulDoneMask)

		detected := unit.WaitAnyEvents(eu.WaitPolling, 0,
			eu.SourceMatMul, eu.SourceDMAExtToLoc)

		Expect(detected).To(Equal(eu.DMAExtToLocDoneMask))
		Expect(unit.Check(eu.MatMulDoneMask)).To(Equal(uint32(0)))
	})

	It("should collect a wait-all set arriving out of order", func() {
		required := eu.MatMulDoneMask | eu.DMAAllDoneMask
		unit.EnableEvents(required)
		tile.CompleteAt(5, eu.DMALocToExtDoneMask)
		tile.CompleteAt(12, eu.MatMulDoneMask)
		tile.CompleteAt(40, eu.DMAExtToLocDoneMask)

		detected := unit.WaitAllEvents(required, eu.WaitPolling, 0)

		Expect(detected).To(Equal(required))
		Expect(unit.Events()).To(Equal(uint32(0)))
		Expect(tile.Cycle()).To(Equal(uint64(40)))
	})

	It("should finish a two-source wait-all one stride after the last arrival", func() {
		required := eu.DMAExtToLocDoneMask | eu.MatMulBusyMask
		unit.EnableEvents(required)
		tile.CompleteAt(5, eu.DMAExtToLocDoneMask)
		tile.CompleteAt(12, eu.MatMulBusyMask)

		detected := unit.WaitAllEvents(required, eu.WaitPolling, 100)

		Expect(detected).To(Equal(required))
		Expect(tile.Cycle()).To(BeNumerically("<=", 20))
	})

	It("should drive the matrix engine helpers", func() {
		unit.InitMatMul(false)

		Expect(unit.MatMulBusy()).To(BeFalse())

		tile.StartMatMul()

		Expect(unit.MatMulBusy()).To(BeTrue())
		Expect(unit.MatMulDone()).To(BeFalse())

		detected := unit.WaitMatMulDone(eu.WaitPolling, 1000)

		Expect(detected).To(Equal(eu.MatMulDoneMask))
		Expect(unit.MatMulDone()).To(BeFalse())
	})

	It("should raise and collect a software event in one access", func() {
		unit.EnableEvents(eu.SWEventMask(1))

		v := unit.TriggerSWEventAndWait(1)

		Expect(v & eu.SWEventMask(1)).NotTo(BeZero())
	})

	It("should bound a wait-all by its cumulative budget", func() {
		required := eu.MatMulDoneMask | eu.DMAAllDoneMask
		unit.EnableEvents(required)
		tile.CompleteAt(5, eu.DMALocToExtDoneMask)

		detected := unit.WaitAllEvents(required, eu.WaitPolling, 30)

		Expect(detected).To(Equal(uint32(0)))
		Expect(unit.Check(eu.DMALocToExtDoneMask)).NotTo(BeZero())
		Expect(tile.Cycle()).To(BeNumerically("<=", 40))
	})

	It("should collect a wait-all set through suspensions", func() {
		required := eu.MatMulDoneMask | eu.DMAExtToLocDoneMask
		unit.EnableEvents(required)
		tile.CompleteAt(25, eu.MatMulDoneMask)
		tile.CompleteAt(60, eu.DMAExtToLocDoneMask)

		detected := unit.WaitAllEvents(required, eu.WaitSleep, 0)

		Expect(detected).To(Equal(required))
		Expect(unit.Events()).To(Equal(uint32(0)))
	})

	It("should run the full accelerator coordination flow", func() {
		drv := dma.MakeBuilder().
			WithBus(tile).
			WithEventUnit(unit).
			Build()
		bar := barrier.MakeBuilder().
			WithBus(tile).
			WithEventUnit(unit).
			Build()

		unit.InitMatMul(true)
		drv.InitEvents(true)
		bar.InitEvents(true)

		pattern := make([]byte, 512)
		for i := range pattern {
			pattern[i] = byte(i * 7)
		}
		copy(tile.L2(), pattern)
		copy(tile.L1()[512:], pattern)

		tile.StartMatMul()
		in := drv.CopyExtToLoc(mmio.L2Base, mmio.L1Base, 512)
		out := drv.CopyLocToExt(mmio.L1Base+512, mmio.L2Base+512, 512)

		required := eu.MatMulDoneMask | eu.DMAAllDoneMask
		detected := unit.WaitAllEvents(required, eu.WaitSleep, 0)

		Expect(detected & required).To(Equal(required))
		Expect(drv.IsComplete(in)).To(BeTrue())
		Expect(drv.IsComplete(out)).To(BeTrue())
		Expect(bytes.Equal(tile.L1()[:512], pattern)).To(BeTrue())
		Expect(bytes.Equal(tile.L2()[512:1024], pattern)).To(BeTrue())

		Expect(bar.Sync(0, 4, eu.WaitSleep, 0)).
			To(Equal(eu.BarrierDoneMask))
	})
})
