package dma

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	It("should pack an empty configuration to zero", func() {
		Expect(Config{}.pack()).To(Equal(uint32(0)))
	})

	It("should pack the decouple and reduce-length flags", func() {
		c := Config{
			DecoupleAW:   true,
			DecoupleRW:   true,
			SrcReduceLen: true,
			DstReduceLen: true,
		}
		Expect(c.pack()).To(Equal(uint32(0xF)))
	})

	It("should place the burst-length fields at their shifts", func() {
		c := Config{SrcMaxLogLen: 0x5, DstMaxLogLen: 0x3}
		Expect(c.pack()).To(Equal(uint32(0x5<<4 | 0x3<<7)))
	})

	It("should truncate out-of-range fields to their widths", func() {
		c := Config{SrcMaxLogLen: 0xF, DstMaxLogLen: 0xF, EnableND: 0xF}
		Expect(c.pack()).To(Equal(uint32(0x7<<4 | 0x7<<7 | 0x3<<10)))
	})

	It("should pack the default configuration as fully dimensional", func() {
		Expect(DefaultConfig.pack()).To(Equal(uint32(3 << 10)))
	})
})

var _ = Describe("Direction", func() {
	It("should map directions to their register files", func() {
		Expect(ExtToLoc.Base()).NotTo(Equal(LocToExt.Base()))
	})

	It("should name the directions", func() {
		Expect(ExtToLoc.String()).To(Equal("ext2loc"))
		Expect(LocToExt.String()).To(Equal("loc2ext"))
	})
})
