package tilesim

import (
	"github.com/luca24balboni/MAGIA-EventUnit/dma"
	"github.com/luca24balboni/MAGIA-EventUnit/eu"
	"github.com/luca24balboni/MAGIA-EventUnit/mmio"
)

// channel models one DMA direction: a staged descriptor, monotonic
// transfer ids, and in-order completion after a fixed latency.
type channel struct {
	conf uint32

	dstAddr, srcAddr, length      uint32
	dstStride2, srcStride2, reps2 uint32
	dstStride3, srcStride3, reps3 uint32

	nextID  uint32
	doneID  uint32
	latency uint64

	inflight []transfer
	lastDue  uint64
}

type transfer struct {
	id   uint32
	due  uint64
	desc descriptor
}

type descriptor struct {
	dst, src, length              uint32
	dstStride2, srcStride2, reps2 uint32
	dstStride3, srcStride3, reps3 uint32
}

type engineModel struct {
	latency  uint64
	doneAt   uint64
	inFlight bool
}

type syncModel struct {
	aggregate, id uint32
	latency       uint64
	doneAt        uint64
	inFlight      bool
	injectError   bool
}

// launch allocates the next transfer id for the direction and puts the
// staged descriptor in flight. Back-to-back transfers queue behind each
// other and complete in issue order.
func (t *Tile) launch(dir dma.Direction) uint32 {
	ch := t.channels[dir]

	id := ch.nextID
	ch.nextID++ // wraps at 32 bits

	due := t.cycle
	if ch.lastDue > due {
		due = ch.lastDue
	}
	due += ch.latency
	ch.lastDue = due

	ch.inflight = append(ch.inflight, transfer{
		id:  id,
		due: due,
		desc: descriptor{
			dst: ch.dstAddr, src: ch.srcAddr, length: ch.length,
			dstStride2: ch.dstStride2, srcStride2: ch.srcStride2,
			reps2:      ch.reps2,
			dstStride3: ch.dstStride3, srcStride3: ch.srcStride3,
			reps3: ch.reps3,
		},
	})

	if dir == dma.LocToExt {
		t.Raise(1 << eu.DMALocToExtStartBit)
	} else {
		t.Raise(1 << eu.DMAExtToLocStartBit)
	}

	return id
}

func (t *Tile) stepChannel(dir dma.Direction, ch *channel) {
	for len(ch.inflight) > 0 && ch.inflight[0].due <= t.cycle {
		tr := ch.inflight[0]
		ch.inflight = ch.inflight[1:]

		ch.doneID = tr.id
		if t.applyTransfer(tr.desc) {
			t.Raise(dir.DoneMask())
		} else {
			t.Raise(dir.ErrMask())
		}
	}
}

// applyTransfer copies the descriptor's bytes between the memory
// windows. Reports false when any row falls outside both windows.
func (t *Tile) applyTransfer(d descriptor) bool {
	reps2, reps3 := d.reps2, d.reps3
	if reps2 == 0 {
		reps2 = 1
	}
	if reps3 == 0 {
		reps3 = 1
	}

	for r3 := uint32(0); r3 < reps3; r3++ {
		for r2 := uint32(0); r2 < reps2; r2++ {
			src := d.src + r3*d.srcStride3 + r2*d.srcStride2
			dst := d.dst + r3*d.dstStride3 + r2*d.dstStride2

			from, ok := t.window(src, d.length)
			if !ok {
				return false
			}
			to, ok := t.window(dst, d.length)
			if !ok {
				return false
			}
			copy(to, from)
		}
	}

	return true
}

// window resolves an address range against the L1 and L2 windows.
func (t *Tile) window(addr, n uint32) ([]byte, bool) {
	switch {
	case addr >= mmio.L1Base && uint64(addr)+uint64(n) <= mmio.L1Base+uint64(len(t.l1)):
		return t.l1[addr-mmio.L1Base:][:n], true
	case addr >= mmio.L2Base && uint64(addr)+uint64(n) <= mmio.L2Base+uint64(len(t.l2)):
		return t.l2[addr-mmio.L2Base:][:n], true
	}
	return nil, false
}
