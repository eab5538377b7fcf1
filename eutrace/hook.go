package eutrace

import (
	"github.com/luca24balboni/MAGIA-EventUnit/eu"
)

// ActivityTable is the table activity hooks record into.
const ActivityTable = "eu_activity"

// ActivityRow is one recorded wait, suspend, clear, or ticket action.
type ActivityRow struct {
	Seq      uint64
	Pos      string
	Mask     uint32
	Detected uint32
}

// ActivityHook records every hook invocation of the units it is
// attached to. One hook can be attached to several hookables; rows
// share a single sequence.
type ActivityHook struct {
	rec *Recorder
	seq uint64
}

// NewActivityHook creates the activity table and returns a hook
// recording into it.
func NewActivityHook(rec *Recorder) *ActivityHook {
	rec.CreateTable(ActivityTable, ActivityRow{})
	return &ActivityHook{rec: rec}
}

// Func implements eu.Hook.
func (h *ActivityHook) Func(ctx eu.HookCtx) {
	h.seq++
	h.rec.Insert(ActivityTable, ActivityRow{
		Seq:      h.seq,
		Pos:      ctx.Pos.Name,
		Mask:     ctx.Mask,
		Detected: ctx.Detail,
	})
}
