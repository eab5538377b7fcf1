package eu

// WaitMode selects the scheduling discipline of a wait operation.
type WaitMode int

const (
	// WaitPolling busy-waits with a bounded cycle budget.
	WaitPolling WaitMode = iota

	// WaitSleep suspends the core until an interrupt-enabled event
	// arrives.
	WaitSleep
)

func (m WaitMode) String() string {
	switch m {
	case WaitPolling:
		return "polling"
	case WaitSleep:
		return "sleep"
	}
	return "unknown"
}

// WaitEvents waits for any event in mask under the given discipline.
// timeoutCycles only applies to polling mode; zero means unbounded.
// Detected bits are cleared before returning. A zero return means
// timeout under polling and a spurious wake under sleep; neither is an
// error, and a still-interested caller re-issues the wait.
func (u *Unit) WaitEvents(mask uint32, mode WaitMode, timeoutCycles uint32) uint32 {
	switch mode {
	case WaitSleep:
		return u.WaitEventsSleep(mask)
	default:
		return u.WaitEventsPolling(mask, timeoutCycles)
	}
}

// WaitEventsPolling busy-waits until any event in mask is pending,
// clears the detected bits, and returns them. The elapsed-cycle counter
// advances by the poll stride per iteration, so the timeout is honored
// within one stride. timeoutCycles of zero waits forever. Returns zero
// on timeout, the only recoverable failure of this primitive.
func (u *Unit) WaitEventsPolling(mask uint32, timeoutCycles uint32) uint32 {
	u.InvokeHook(HookCtx{Domain: u, Pos: HookPosWaitBegin, Mask: mask})

	detected, _ := u.pollEvents(mask, timeoutCycles)
	if detected != 0 {
		u.Clear(detected)
	}

	u.InvokeHook(HookCtx{
		Domain: u, Pos: HookPosWaitEnd, Mask: mask, Detail: detected,
	})

	return detected
}

// WaitEventsSleep suspends until any event in mask is pending, clears
// the detected bits, and returns them.
//
// The mask is interrupt-enabled first and the buffer checked once
// before suspending. A bit that was already sticky, even if it was set
// before arming, satisfies the wait immediately and the suspend
// instruction is never reached. A completion landing between the check
// and the suspend raises the interrupt that ends the suspend, so no
// ordering of completion against suspension can lose an event.
//
// Resuming without a masked bit set is a legal spurious wake and yields
// a zero return; the caller re-issues the wait if still interested.
func (u *Unit) WaitEventsSleep(mask uint32) uint32 {
	u.InvokeHook(HookCtx{Domain: u, Pos: HookPosWaitBegin, Mask: mask})

	detected := u.sleepEvents(mask)
	if detected != 0 {
		u.Clear(detected)
	}

	u.InvokeHook(HookCtx{
		Domain: u, Pos: HookPosWaitEnd, Mask: mask, Detail: detected,
	})

	return detected
}

// WaitAllEvents waits until every bit of required is pending,
// accumulating partial detections across as many waits as arrivals
// take. Arrival order is immaterial. Under polling, budgetCycles bounds
// the whole loop cumulatively, with zero meaning unbounded; exhaustion
// aborts with a zero return and consumes nothing.
//
// Partial detections are only accumulated, never cleared mid-loop:
// clearing intermediate detections before the set is complete can
// discard the evidence of a source that arrived early. The accumulated
// bits are consumed with a single clear once the set is complete, and
// the full set is returned.
func (u *Unit) WaitAllEvents(required uint32, mode WaitMode, budgetCycles uint32) uint32 {
	var accumulated uint32
	var elapsed uint32

	for accumulated&required != required {
		missing := required &^ accumulated

		switch mode {
		case WaitSleep:
			// Sticky bits already collected would hold the wake line
			// high and turn every further suspension into an immediate
			// spurious resume. Only the missing bits may wake the core.
			if accumulated != 0 {
				u.DisableIRQ(accumulated)
			}
			accumulated |= u.sleepEvents(missing)

		default:
			remaining := uint32(0)
			if budgetCycles != 0 {
				if elapsed >= budgetCycles {
					return 0
				}
				remaining = budgetCycles - elapsed
			}

			detected, spent := u.pollEvents(missing, remaining)
			elapsed += spent
			if detected == 0 {
				return 0
			}
			accumulated |= detected
		}
	}

	if accumulated != 0 {
		u.Clear(accumulated)
	}

	return accumulated
}

// WaitAnyEvents waits for the first event among the sources' masks and
// returns the detected bits.
func (u *Unit) WaitAnyEvents(mode WaitMode, timeoutCycles uint32, sources ...Source) uint32 {
	var mask uint32
	for _, s := range sources {
		mask |= s.Mask()
	}
	return u.WaitEvents(mask, mode, timeoutCycles)
}

// pollEvents is the non-consuming polling loop. It returns the detected
// bits and the cycles spent idling.
func (u *Unit) pollEvents(mask uint32, timeoutCycles uint32) (detected, spent uint32) {
	for {
		if detected = u.Check(mask); detected != 0 {
			return detected, spent
		}

		if timeoutCycles != 0 && spent >= timeoutCycles {
			return 0, spent
		}

		u.suspender.Idle(u.pollStride)
		spent += u.pollStride
	}
}

// sleepEvents is the non-consuming suspend path. The returned bits are
// whatever was pending at wake-up, possibly zero on a spurious wake.
func (u *Unit) sleepEvents(mask uint32) uint32 {
	u.EnableIRQ(mask)

	if detected := u.Check(mask); detected != 0 {
		return detected
	}

	u.InvokeHook(HookCtx{Domain: u, Pos: HookPosSuspend, Mask: mask})
	u.suspender.BlockUntilInterrupt()

	return u.Check(mask)
}
