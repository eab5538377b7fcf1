package eu

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/luca24balboni/MAGIA-EventUnit/mmio"
)

// recordingHook captures every hook invocation for inspection.
type recordingHook struct {
	ctxs []HookCtx
}

func (h *recordingHook) Func(ctx HookCtx) {
	h.ctxs = append(h.ctxs, ctx)
}

var _ = Describe("Unit", func() {
	var (
		mockCtrl  *gomock.Controller
		bus       *MockBus
		suspender *MockSuspender
		unit      *Unit
	)

	const base = mmio.EventUnitBase

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		bus = NewMockBus(mockCtrl)
		suspender = NewMockSuspender(mockCtrl)
		unit = MakeBuilder().
			WithBus(bus).
			WithSuspender(suspender).
			Build()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should panic when built without a bus", func() {
		Expect(func() {
			MakeBuilder().WithSuspender(suspender).Build()
		}).To(Panic())
	})

	It("should panic when built without a suspender", func() {
		Expect(func() {
			MakeBuilder().WithBus(bus).Build()
		}).To(Panic())
	})

	It("should clear the buffer and both masks on init", func() {
		bus.EXPECT().Write32(uint32(base+RegBufferClear), uint32(0xFFFFFFFF))
		bus.EXPECT().Write32(uint32(base+RegMask), uint32(0))
		bus.EXPECT().Write32(uint32(base+RegIRQMask), uint32(0))

		unit.Init()
	})

	It("should enable events through the set-bits register", func() {
		bus.EXPECT().Write32(uint32(base+RegMaskOR), DMAAllDoneMask)

		unit.EnableEvents(DMAAllDoneMask)
	})

	It("should disable events through the clear-bits register", func() {
		bus.EXPECT().Write32(uint32(base+RegMaskAND), DMAAllDoneMask)

		unit.DisableEvents(DMAAllDoneMask)
	})

	It("should enable interrupts through the set-bits register", func() {
		bus.EXPECT().Write32(uint32(base+RegIRQMaskOR), MatMulDoneMask)

		unit.EnableIRQ(MatMulDoneMask)
	})

	It("should disable interrupts through the clear-bits register", func() {
		bus.EXPECT().Write32(uint32(base+RegIRQMaskAND), MatMulDoneMask)

		unit.DisableIRQ(MatMulDoneMask)
	})

	It("should read the masked buffer view when checking", func() {
		bus.EXPECT().
			Read32(uint32(base + RegBufferMask)).
			Return(MatMulDoneMask | DMAExtToLocDoneMask)

		pending := unit.Check(MatMulDoneMask)

		Expect(pending).To(Equal(MatMulDoneMask))
	})

	It("should not consume events when checking repeatedly", func() {
		bus.EXPECT().
			Read32(uint32(base + RegBufferMask)).
			Return(DMAAllDoneMask).
			Times(3)

		for i := 0; i < 3; i++ {
			Expect(unit.Check(DMAAllDoneMask)).To(Equal(DMAAllDoneMask))
		}
	})

	It("should clear exactly the masked bits", func() {
		hook := &recordingHook{}
		unit.AcceptHook(hook)
		bus.EXPECT().
			Write32(uint32(base+RegBufferClear), DMAExtToLocDoneMask)

		unit.Clear(DMAExtToLocDoneMask)

		Expect(hook.ctxs).To(HaveLen(1))
		Expect(hook.ctxs[0].Pos).To(BeIdenticalTo(HookPosClear))
		Expect(hook.ctxs[0].Mask).To(Equal(DMAExtToLocDoneMask))
	})

	It("should read the hardware wait registers", func() {
		bus.EXPECT().
			Read32(uint32(base + RegEventWait)).
			Return(DMALocToExtDoneMask)
		bus.EXPECT().
			Read32(uint32(base + RegEventWaitClear)).
			Return(DMALocToExtDoneMask)

		Expect(unit.EventWait()).To(Equal(DMALocToExtDoneMask))
		Expect(unit.EventWaitClear()).To(Equal(DMALocToExtDoneMask))
	})

	It("should report the clock state from the status register", func() {
		bus.EXPECT().Read32(uint32(base + RegStatus)).Return(uint32(1))

		Expect(unit.ClockEnabled()).To(BeTrue())
	})

	It("should pop the SoC event FIFO head", func() {
		bus.EXPECT().
			Read32(uint32(base + RegCurrentEvent)).
			Return(SyncEvtMask)

		Expect(unit.CurrentEvent()).To(Equal(SyncEvtMask))
	})

	It("should address software event trigger registers by id", func() {
		bus.EXPECT().Write32(uint32(base+RegTrigSWEvent+3*4), uint32(1))

		unit.TriggerSWEvent(3)
	})

	It("should ignore out-of-range software event ids", func() {
		unit.TriggerSWEvent(NumSWEvents)

		Expect(unit.TriggerSWEventAndWait(NumSWEvents)).To(Equal(uint32(0)))
	})

	It("should trigger and wait through the combined register", func() {
		bus.EXPECT().
			Read32(uint32(base + RegTrigSWEventWait + 2*4)).
			Return(SWEventMask(2))

		Expect(unit.TriggerSWEventAndWait(2)).To(Equal(SWEventMask(2)))
	})
})

var _ = Describe("Source", func() {
	It("should map software event ids into the dedicated bit range", func() {
		Expect(SWEventMask(0)).To(Equal(uint32(1 << SWEventBit0)))
		Expect(SWEventMask(NumSWEvents - 1)).To(Equal(uint32(1 << 23)))
		Expect(SWEventMask(NumSWEvents)).To(Equal(uint32(0)))
	})

	It("should cover both DMA directions under the DMA sources", func() {
		Expect(SourceDMAExtToLoc.Mask() | SourceDMALocToExt.Mask()).
			To(Equal(DMAAllDoneMask))
	})
})
