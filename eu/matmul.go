package eu

// Matrix engine helpers. The engine's datapath is driven elsewhere;
// these cover its completion-facing side only.

// InitMatMul enables the matrix engine event lines, optionally allowing
// the completion event to wake a suspended core.
func (u *Unit) InitMatMul(irq bool) {
	u.Clear(MatMulAllMask)
	u.EnableEvents(MatMulAllMask)
	if irq {
		u.EnableIRQ(MatMulDoneMask)
	}
}

// MatMulBusy reports whether the matrix engine busy line has signalled.
func (u *Unit) MatMulBusy() bool {
	return u.Check(MatMulBusyMask) != 0
}

// MatMulDone reports whether the matrix engine has completed.
func (u *Unit) MatMulDone() bool {
	return u.Check(MatMulDoneMask) != 0
}

// WaitMatMulDone waits for the matrix engine completion event.
func (u *Unit) WaitMatMulDone(mode WaitMode, timeoutCycles uint32) uint32 {
	return u.WaitEvents(MatMulDoneMask, mode, timeoutCycles)
}
