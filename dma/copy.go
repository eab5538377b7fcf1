package dma

// High-level transfer helpers. Each stages a full descriptor on the
// direction's register file and launches it, returning the ticket to
// wait on.

// A Space names one of the tile's memory windows.
type Space int

const (
	// SpaceLoc is the tile-local L1 window.
	SpaceLoc Space = iota

	// SpaceExt is the external L2 window.
	SpaceExt
)

// CopyExtToLoc launches a 1D transfer of length bytes from external
// memory into local memory.
func (d *Driver) CopyExtToLoc(src, dst, length uint32) Ticket {
	return d.copy1D(ExtToLoc, dst, src, length)
}

// CopyLocToExt launches a 1D transfer of length bytes from local
// memory out to external memory.
func (d *Driver) CopyLocToExt(src, dst, length uint32) Ticket {
	return d.copy1D(LocToExt, dst, src, length)
}

// CopyExtToLoc2D launches a strided transfer into local memory: reps
// rows of length bytes, source and destination advancing by their
// strides between rows.
func (d *Driver) CopyExtToLoc2D(src, dst, length, srcStride, dstStride, reps uint32) Ticket {
	return d.copy2D(ExtToLoc, dst, src, length, dstStride, srcStride, reps)
}

// CopyLocToExt2D launches a strided transfer out to external memory.
func (d *Driver) CopyLocToExt2D(src, dst, length, srcStride, dstStride, reps uint32) Ticket {
	return d.copy2D(LocToExt, dst, src, length, dstStride, srcStride, reps)
}

// Memcpy launches a transfer between arbitrary windows. Local-to-local
// copies ride the ext-to-loc channel. External-to-external copies are
// not supported and report ok false.
func (d *Driver) Memcpy(src, dst, length uint32, srcSpace, dstSpace Space) (t Ticket, ok bool) {
	switch {
	case srcSpace == SpaceExt && dstSpace == SpaceLoc:
		return d.CopyExtToLoc(src, dst, length), true
	case srcSpace == SpaceLoc && dstSpace == SpaceExt:
		return d.CopyLocToExt(src, dst, length), true
	case srcSpace == SpaceLoc && dstSpace == SpaceLoc:
		return d.copy1D(ExtToLoc, dst, src, length), true
	default:
		return Ticket{}, false
	}
}

func (d *Driver) copy1D(dir Direction, dst, src, length uint32) Ticket {
	d.ConfigureDefault(dir)
	d.SetTransfer(dir, dst, src, length)
	d.Set2DParams(dir, 0, 0, 1)
	d.Set3DParams(dir, 0, 0, 1)
	return d.Start(dir)
}

func (d *Driver) copy2D(dir Direction, dst, src, length, dstStride, srcStride, reps uint32) Ticket {
	d.ConfigureDefault(dir)
	d.SetTransfer(dir, dst, src, length)
	d.Set2DParams(dir, dstStride, srcStride, reps)
	d.Set3DParams(dir, 0, 0, 1)
	return d.Start(dir)
}
